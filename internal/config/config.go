package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Review   ReviewConfig   `mapstructure:"review"   validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Database drivers understood by the server.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig contains all database-related configuration settings.
// URL is a PostgreSQL connection URL for the postgres driver and a file path
// (or ":memory:") for the sqlite driver.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url"    validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"`
}

// ReviewConfig holds the review settings applied to users who have not saved
// their own.
type ReviewConfig struct {
	Intervals         string `mapstructure:"intervals"           validate:"required"`
	DailyLimit        int    `mapstructure:"daily_limit"         validate:"required,gt=0"`
	Timezone          string `mapstructure:"timezone"            validate:"required"`
	SadReset          string `mapstructure:"sad_reset"           validate:"required,oneof=to_zero decrement_one"`
	AgainRetryMinutes int    `mapstructure:"again_retry_minutes" validate:"required,gt=0"`
}

// ReminderConfig controls the periodic due-review digest.
type ReminderConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Schedule  string `mapstructure:"schedule"   validate:"required_if=Enabled true"`
	Workers   int    `mapstructure:"workers"    validate:"required_if=Enabled true,gte=0"`
	QueueSize int    `mapstructure:"queue_size" validate:"required_if=Enabled true,gte=0"`
}
