package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers understood by repositories.Open.
const (
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config is the full runtime configuration of the server.
type Config struct {
	AppPort         string
	LogLevel        string
	LogFormat       string
	MetricsEnabled  bool
	BcryptCost      int
	ShutdownTimeout time.Duration
	Storage         StorageConfig
	RabbitMQ        RabbitMQConfig
}

// StorageConfig selects and addresses the persistence backend.
type StorageConfig struct {
	Driver         string
	DSN            string
	MongoURI       string
	MongoDatabase  string
	ConnectTimeout time.Duration
}

// RabbitMQConfig enables task event publishing when URL is non-empty.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// SetDefaults registers every key with its default so AutomaticEnv can see it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("STORAGE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "tasks.db")
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", "taskapp")
	v.SetDefault("CONNECT_TIMEOUT", "10s")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "tasks")
}

// Load reads configuration from the environment and, if CONFIG_FILE is set,
// from that file. Environment variables win over the file.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		AppPort:         v.GetString("APP_PORT"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		MetricsEnabled:  v.GetBool("METRICS_ENABLED"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		Storage: StorageConfig{
			Driver:         strings.ToLower(v.GetString("STORAGE_DRIVER")),
			DSN:            v.GetString("DATABASE_DSN"),
			MongoURI:       v.GetString("MONGODB_URI"),
			MongoDatabase:  v.GetString("MONGODB_DATABASE"),
			ConnectTimeout: v.GetDuration("CONNECT_TIMEOUT"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements that defaults cannot express.
func (c Config) Validate() error {
	if !strings.Contains(c.AppPort, ":") {
		return fmt.Errorf("APP_PORT must look like \":3000\" or \"host:3000\", got %q", c.AppPort)
	}
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORAGE_DRIVER=%s", DriverMongo)
		}
	case DriverPostgres, DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when STORAGE_DRIVER=%s", c.Storage.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
