// Package app wires configuration, storage, messaging and HTTP handlers into
// a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskapp/internal/config"
	"taskapp/internal/handlers"
	"taskapp/internal/middleware"
	"taskapp/internal/repositories"
	"taskapp/internal/services"
	"taskapp/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthTimeout = 2 * time.Second

// App is a fully wired server. It owns the database and broker connections.
type App struct {
	Fiber *fiber.App

	cfg    config.Config
	store  *repositories.Store
	mq     *rabbitmq.Client
	logger *slog.Logger

	stopConsumer context.CancelFunc
}

// New opens the configured storage backend and, when RABBITMQ_URL is set, the
// broker connection, then builds the Fiber application on top of them.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	connectCtx := ctx
	if cfg.Storage.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Storage.ConnectTimeout)
		defer cancel()
	}

	store, err := repositories.Open(connectCtx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var mq *rabbitmq.Client
	if cfg.RabbitMQ.URL != "" {
		mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange}, logger)
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
	} else {
		logger.Info("RABBITMQ_URL not set; task events disabled")
	}

	a := build(cfg, store, mq, logger)
	if mq != nil {
		consumerCtx, cancel := context.WithCancel(context.Background())
		a.stopConsumer = cancel
		if err := mq.ConsumeTaskEvents(consumerCtx, auditTaskEvent(logger)); err != nil {
			cancel()
			_ = a.Shutdown(ctx)
			return nil, fmt.Errorf("start task event consumer: %w", err)
		}
	}
	return a, nil
}

// NewWithStore builds an App on an already opened store, without a broker.
func NewWithStore(cfg config.Config, store *repositories.Store, logger *slog.Logger) *App {
	return build(cfg, store, nil, logger)
}

func build(cfg config.Config, store *repositories.Store, mq *rabbitmq.Client, logger *slog.Logger) *App {
	// A nil *rabbitmq.Client must stay a nil interface.
	var publisher services.EventPublisher
	if mq != nil {
		publisher = mq
	}

	authService := services.NewAuthService(store.Users, cfg.BcryptCost, logger)
	taskService := services.NewTaskService(store.Tasks, publisher, logger)

	authHandler := handlers.NewAuthHandler(authService, logger)
	taskHandler := handlers.NewTaskHandler(taskService, logger)

	app := fiber.New(fiber.Config{
		AppName:               "taskapp",
		ErrorHandler:          handlers.ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	a := &App{
		Fiber:  app,
		cfg:    cfg,
		store:  store,
		mq:     mq,
		logger: logger,
	}

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} ${path}\n",
		Output: accessLogWriter{logger: logger},
	}))

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		app.Use(middleware.NewMetrics(reg).Handler())
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// --- API Routes ---
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	taskHandler.RegisterRoutes(api)

	app.Get("/health", a.handleHealth)

	return a
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	events := "disabled"
	if a.mq != nil {
		events = "enabled"
	}
	if err := a.store.Ping(ctx); err != nil {
		a.logger.Warn("health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unhealthy",
			"storage": a.store.Driver,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"storage": a.store.Driver,
		"events":  events,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Listen serves HTTP on the configured port until Shutdown is called.
func (a *App) Listen() error {
	a.logger.Info("starting server", "addr", a.cfg.AppPort, "storage", a.store.Driver)
	return a.Fiber.Listen(a.cfg.AppPort)
}

// Shutdown stops accepting requests, waits for in-flight ones, then releases
// the broker and database connections.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	if a.stopConsumer != nil {
		a.stopConsumer()
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq: %w", err))
		}
	}
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
