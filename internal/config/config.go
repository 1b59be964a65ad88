// Package config loads application configuration from environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration.
type AppConfig struct {
	// APIKey is the bearer credential attached to every outbound call.
	// Its absence is not validated locally; an empty credential is sent
	// as-is.
	APIKey string `envconfig:"API_KEY"`

	// PaymentURL is the payment provider endpoint.
	PaymentURL string `envconfig:"BILLNOTIFY_PAYMENT_URL" default:"https://api.stripe.com/some-payment-endpoint"`

	// NotificationURL is the email API endpoint.
	NotificationURL string `envconfig:"BILLNOTIFY_NOTIFICATION_URL" default:"https://some-email-api"`

	// HTTPTimeoutMS bounds every outbound call, in milliseconds.
	HTTPTimeoutMS int `envconfig:"BILLNOTIFY_HTTP_TIMEOUT_MS" default:"5000"`

	// CustomerFile is the roster path (.json, .yaml or .yml).
	CustomerFile string `envconfig:"BILLNOTIFY_CUSTOMER_FILE" default:"./customer-list.json"`

	// DataDir is the root data directory. Defaults to ~/.billnotify.
	DataDir string `envconfig:"BILLNOTIFY_DATA_DIR"`

	// Port is the HTTP server port for serve mode. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// LogLevel sets the minimum log level (debug, info, warn, error).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogFile, when set, sends logs to a size-rotated file instead of stdout.
	LogFile string `envconfig:"LOG_FILE"`

	// BestEffortNotify preserves the historical fire-and-forget policy:
	// a failed notification is logged but the customer still counts as
	// notified.
	BestEffortNotify bool `envconfig:"BILLNOTIFY_BEST_EFFORT_NOTIFY" default:"false"`

	// RateLimit caps payment attempts per second. Zero means unlimited.
	RateLimit float64 `envconfig:"BILLNOTIFY_RATE_LIMIT" default:"0"`

	// Cron, when non-empty, schedules recurring billing runs in serve
	// mode (standard five-field cron expression).
	Cron string `envconfig:"BILLNOTIFY_CRON"`

	// Provider selects the notification backend: "http" (email API) or
	// "smtp" (direct delivery).
	Provider string `envconfig:"BILLNOTIFY_PROVIDER" default:"http"`

	SMTPHost       string `envconfig:"BILLNOTIFY_SMTP_HOST"`
	SMTPPort       int    `envconfig:"BILLNOTIFY_SMTP_PORT" default:"587"`
	SMTPUsername   string `envconfig:"BILLNOTIFY_SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"BILLNOTIFY_SMTP_PASSWORD"`
	SMTPEncryption string `envconfig:"BILLNOTIFY_SMTP_ENCRYPTION" default:"starttls"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.billnotify if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".billnotify")
	}
	return &c, nil
}

// HTTPTimeout returns the outbound call deadline as a duration.
func (c *AppConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// DBPath returns the path to the run-report database.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "billnotify.db")
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
