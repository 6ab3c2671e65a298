package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper" validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify" validate:"required"`
	Email    EmailConfig    `mapstructure:"email"`
}

// Environment names accepted in server.environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Environment            string `mapstructure:"environment" validate:"required,oneof=development production test"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// IsProduction reports whether the server runs in production mode, which
// enables Secure session cookies.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gt=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeHours int    `mapstructure:"token_lifetime_hours" validate:"gt=0"`
	BCryptCost         int    `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
}

// TokenLifetime returns how long an issued session token stays valid.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeHours) * time.Hour
}

// SweeperConfig controls the background deadline sweeper.
type SweeperConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	IntervalSeconds       int  `mapstructure:"interval_seconds" validate:"gt=0"`
	ReminderWindowMinutes int  `mapstructure:"reminder_window_minutes" validate:"gt=0"`
}

// Interval returns the time between sweeps.
func (c SweeperConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ReminderWindow returns how far ahead of a deadline reminders are sent.
func (c SweeperConfig) ReminderWindow() time.Duration {
	return time.Duration(c.ReminderWindowMinutes) * time.Minute
}

// NotifyConfig sizes the reminder dispatch queue.
type NotifyConfig struct {
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
}

// EmailConfig holds SMTP settings. Reminder email is disabled when SMTPHost
// is empty.
type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" validate:"omitempty,gt=0,lt=65536"`
	SMTPUser string `mapstructure:"smtp_user"`
	SMTPPass string `mapstructure:"smtp_pass"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.From != ""
}
