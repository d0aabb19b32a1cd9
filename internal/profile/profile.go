package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the reminder server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the HTTP ingress
	Addr string
	// Port is the binding port for the HTTP ingress
	Port int
	// Data is the data directory
	Data string
	// DSN points to where reminders are stored
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// DefaultTimezone is used when an owner's locale hint is missing or unknown.
	DefaultTimezone string // REMINDER_DEFAULT_TIMEZONE (default: UTC)

	// Delivery configuration
	TelegramBotToken string        // REMINDER_TELEGRAM_BOT_TOKEN
	TelegramBaseURL  string        // REMINDER_TELEGRAM_BASE_URL (default: https://api.telegram.org)
	WebhookURL       string        // REMINDER_WEBHOOK_URL
	WebhookSecret    string        // REMINDER_WEBHOOK_SECRET
	DeliveryTimeout  time.Duration // REMINDER_DELIVERY_TIMEOUT (default: 10s)

	// RateLimit is the number of inbound messages per second allowed per owner.
	RateLimit float64 // REMINDER_RATE_LIMIT (default: 2)
}

const (
	DefaultTimezone        = "UTC"
	DefaultTelegramBaseURL = "https://api.telegram.org"
	DefaultDeliveryTimeout = 10 * time.Second
	DefaultRateLimit       = 2.0
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsTelegramEnabled returns true if a bot token is configured.
func (p *Profile) IsTelegramEnabled() bool {
	return p.TelegramBotToken != ""
}

// IsWebhookEnabled returns true if a webhook URL is configured.
func (p *Profile) IsWebhookEnabled() bool {
	return p.WebhookURL != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads delivery and locale settings from REMINDER_* environment variables.
// Values already set on the profile (for example from command line flags) win.
func (p *Profile) FromEnv() {
	setIfEmpty := func(dst *string, key, defaultValue string) {
		if *dst == "" {
			*dst = getEnvOrDefault(key, defaultValue)
		}
	}

	setIfEmpty(&p.DefaultTimezone, "REMINDER_DEFAULT_TIMEZONE", DefaultTimezone)
	setIfEmpty(&p.TelegramBotToken, "REMINDER_TELEGRAM_BOT_TOKEN", "")
	setIfEmpty(&p.TelegramBaseURL, "REMINDER_TELEGRAM_BASE_URL", DefaultTelegramBaseURL)
	setIfEmpty(&p.WebhookURL, "REMINDER_WEBHOOK_URL", "")
	setIfEmpty(&p.WebhookSecret, "REMINDER_WEBHOOK_SECRET", "")

	if p.DeliveryTimeout <= 0 {
		p.DeliveryTimeout = DefaultDeliveryTimeout
		if v := os.Getenv("REMINDER_DELIVERY_TIMEOUT"); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				p.DeliveryTimeout = d
			}
		}
	}

	if p.RateLimit <= 0 {
		p.RateLimit = DefaultRateLimit
		if v := os.Getenv("REMINDER_RATE_LIMIT"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				p.RateLimit = f
			}
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "reminder-bot")
		} else {
			p.Data = "/var/opt/reminder-bot"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("reminders_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.DefaultTimezone == "" {
		p.DefaultTimezone = DefaultTimezone
	}
	if _, err := time.LoadLocation(p.DefaultTimezone); err != nil {
		return errors.Wrapf(err, "invalid default timezone %q", p.DefaultTimezone)
	}

	return nil
}
