package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron"

	"coachdesk/internal/domain/adherence"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "COACHDESK_"

// Config holds all application configuration loaded from COACHDESK_* environment variables.
type Config struct {
	// Server
	Env  string `env:"ENV" envDefault:"development"`
	Addr string `env:"ADDR" envDefault:":8080"`

	// Storage
	DBPath      string `env:"DB_PATH" envDefault:"coachdesk.db"`
	SlowQueryMs int    `env:"SLOW_QUERY_MS" envDefault:"50"`

	// Seed admin, created only when no accounts exist
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@coachdesk.local"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"change-me-please"`

	// HTTP
	CSRFKey            string   `env:"CSRF_KEY"`
	TrustedOrigins     []string `env:"TRUSTED_ORIGINS" envSeparator:","`
	SlowRequestMs      int      `env:"SLOW_REQUEST_MS" envDefault:"200"`
	RateLimitPerSecond int      `env:"RATE_LIMIT_PER_SECOND" envDefault:"20"`

	// Email
	ResendKey  string `env:"RESEND_KEY"`
	ResendFrom string `env:"RESEND_FROM" envDefault:"Coachdesk <noreply@coachdesk.local>"`

	// Adherence digest. Schedule uses the six-field cron format (seconds first) or a descriptor.
	DigestEnabled  bool   `env:"DIGEST_ENABLED" envDefault:"false"`
	DigestSchedule string `env:"DIGEST_SCHEDULE" envDefault:"0 0 7 * * MON"`

	// Adherence policy
	MaxPeriods              int  `env:"MAX_PERIODS" envDefault:"20"`
	CancelledCountsAsMissed bool `env:"CANCELLED_COUNTS_AS_MISSED" envDefault:"true"`
	MissedUsesStartTime     bool `env:"MISSED_USES_START_TIME" envDefault:"false"`

	// Timezone is the IANA zone session dates and start times are read in.
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
// POST: Returns a parsed, validated Config or an error naming the bad key
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config_dotenv_skipped", "reason", err)
	} else {
		slog.Info("config_dotenv_loaded")
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs range and format checks that struct tags cannot express.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New(EnvPrefix + "DB_PATH is required")
	}
	if c.MaxPeriods < 1 {
		return fmt.Errorf("invalid %sMAX_PERIODS: %d (must be >= 1)", EnvPrefix, c.MaxPeriods)
	}
	if c.RateLimitPerSecond < 1 {
		return fmt.Errorf("invalid %sRATE_LIMIT_PER_SECOND: %d (must be >= 1)", EnvPrefix, c.RateLimitPerSecond)
	}
	if c.SlowQueryMs < 0 || c.SlowRequestMs < 0 {
		return errors.New("slow query and slow request thresholds must be non-negative")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid %sTIMEZONE %q: %w", EnvPrefix, c.Timezone, err)
	}
	if c.DigestEnabled {
		if _, err := cron.Parse(c.DigestSchedule); err != nil {
			return fmt.Errorf("invalid %sDIGEST_SCHEDULE %q: %w", EnvPrefix, c.DigestSchedule, err)
		}
	}
	if c.IsProduction() && len(c.CSRFKey) != 32 {
		return fmt.Errorf("%sCSRF_KEY must be 32 bytes in production", EnvPrefix)
	}
	return nil
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Policy returns the adherence policy the engine runs with.
func (c *Config) Policy() adherence.Policy {
	return adherence.Policy{
		MaxPeriods:              c.MaxPeriods,
		CancelledCountsAsMissed: c.CancelledCountsAsMissed,
		UseStartTime:            c.MissedUsesStartTime,
	}
}
