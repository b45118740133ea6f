package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. SCHED_DATABASE_URL for database.url.
const EnvPrefix = "SCHED"

// keys without a default that must still be readable from the environment.
var envOnlyKeys = []string{
	"database.url",
	"auth.jwt_secret",
}

// Load configuration from environment variables and optionally config files.
// A .env file in the working directory is loaded first (without overriding
// variables that are already set), then an optional config.yaml is read.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the semantic validity of the review defaults.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := cfg.Review.Settings(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Settings converts the configured defaults into a validated domain value.
// The returned settings carry no user; callers bind one with ForUser.
func (r ReviewConfig) Settings() (domain.ReviewSettings, error) {
	return domain.NewReviewSettings(uuid.Nil, r.SettingsConfig())
}

// SettingsConfig returns the raw review defaults.
func (r ReviewConfig) SettingsConfig() domain.ReviewSettingsConfig {
	return domain.ReviewSettingsConfig{
		Intervals:         r.Intervals,
		DailyLimit:        r.DailyLimit,
		Timezone:          r.Timezone,
		SadReset:          r.SadReset,
		AgainRetryMinutes: r.AgainRetryMinutes,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.driver", DriverPostgres)

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("review.intervals", "1,2,3,5,8,13,21,34,55")
	v.SetDefault("review.daily_limit", 10)
	v.SetDefault("review.timezone", "UTC")
	v.SetDefault("review.sad_reset", string(domain.SadResetToZero))
	v.SetDefault("review.again_retry_minutes", 10)

	v.SetDefault("reminder.enabled", false)
	v.SetDefault("reminder.schedule", "0 * * * *")
	v.SetDefault("reminder.workers", 2)
	v.SetDefault("reminder.queue_size", 100)
}
