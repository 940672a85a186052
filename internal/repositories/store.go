package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskapp/internal/config"
	"taskapp/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the process-scoped persistence handle. It is opened once at
// startup, injected into the services and closed on shutdown.
type Store struct {
	Driver string
	Users  UserRepository
	Tasks  TaskRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks that the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the database connection. It is safe to call on a nil Store.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NewMemoryStore returns a Store backed by in-process maps.
func NewMemoryStore() *Store {
	return &Store{
		Driver: config.DriverMemory,
		Users:  NewMemoryUserRepository(),
		Tasks:  NewMemoryTaskRepository(),
	}
}

// Open connects to the configured backend and prepares its schema.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("using in-memory storage; data is lost on restart")
		return NewMemoryStore(), nil
	case config.DriverPostgres:
		return openGORM(cfg.Driver, postgres.Open(cfg.DSN), logger)
	case config.DriverSQLite:
		return openGORM(cfg.Driver, sqlite.Open(cfg.DSN), logger)
	case config.DriverMongo:
		return openMongo(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openGORM(driver string, dialector gorm.Dialector, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(
			slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s database: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s connection pool: %w", driver, err)
	}
	logger.Info("connected to database", "driver", driver)

	return &Store{
		Driver: driver,
		Users:  NewGORMUserRepository(db),
		Tasks:  NewGORMTaskRepository(db),
		ping:   sqlDB.PingContext,
		close: func(context.Context) error {
			return sqlDB.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)
	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerAPIOptions(serverAPI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	users := NewMongoUserRepository(db)
	tasks := NewMongoTaskRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := tasks.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("connected to MongoDB", "database", cfg.MongoDatabase)

	return &Store{
		Driver: config.DriverMongo,
		Users:  users,
		Tasks:  tasks,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}
