package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TASKER_SERVER_PORT or TASKER_DATABASE_URL.
const EnvPrefix = "TASKER"

// Load reads configuration from environment variables and, when present, a
// config.yaml in the working directory. Environment variables take
// precedence over file values.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)

	v.SetDefault("auth.token_lifetime_hours", 168)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.interval_seconds", 30)
	v.SetDefault("sweeper.reminder_window_minutes", 120)

	v.SetDefault("notify.queue_size", 100)
	v.SetDefault("notify.worker_count", 2)

	v.SetDefault("email.smtp_port", 587)
}

// bindEnvs registers keys without defaults so Unmarshal sees their
// environment variables; AutomaticEnv alone only covers keys viper knows.
func bindEnvs(v *viper.Viper) {
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"email.smtp_host",
		"email.smtp_user",
		"email.smtp_pass",
		"email.from",
	} {
		_ = v.BindEnv(key)
	}
}
