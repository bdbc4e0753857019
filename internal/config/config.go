package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"numrent"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// Telegram bot token for renter notifications. Empty falls back to the
	// logging notifier.
	BotToken string `env:"BOT_TOKEN"`

	// bcrypt hash of the admin API token. Empty disables admin routes.
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`

	// Second factor configured on service-owned platform accounts, if any.
	Platform2FAPassword string `env:"PLATFORM_2FA_PASSWORD"`

	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Payment rails.
	InvoiceTTL        time.Duration `env:"INVOICE_TTL" envDefault:"30m"`
	InvoiceSweepEvery time.Duration `env:"INVOICE_SWEEP_INTERVAL" envDefault:"2m"`
	ChainAddress      string        `env:"CHAIN_ADDRESS"`
	ChainSweepEvery   time.Duration `env:"CHAIN_SWEEP_INTERVAL" envDefault:"1m"`
	ChainFetchLimit   int           `env:"CHAIN_FETCH_LIMIT" envDefault:"30"`
	ChainTolerance    float64       `env:"CHAIN_TOLERANCE" envDefault:"0.01"`
	OrderRetention    time.Duration `env:"ORDER_RETENTION" envDefault:"24h"`
	OrderAgeOutEvery  time.Duration `env:"ORDER_AGEOUT_INTERVAL" envDefault:"1h"`

	// Expiry scheduler.
	ExpirySweepEvery time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"30m"`
	WarningWindow    time.Duration `env:"EXPIRY_WARNING_WINDOW" envDefault:"12h"`
	FinalizeEvery    time.Duration `env:"DELETION_FINALIZE_INTERVAL" envDefault:"24h"`

	PageSize int `env:"LIST_PAGE_SIZE" envDefault:"10"`
}

// Load parses configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.ChainTolerance < 0 || cfg.ChainTolerance >= 1 {
		return Config{}, fmt.Errorf("CHAIN_TOLERANCE must be in [0,1), got %v", cfg.ChainTolerance)
	}
	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("LIST_PAGE_SIZE must be positive")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
