package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "coachdesk.db", cfg.DBPath)
	assert.Equal(t, 20, cfg.MaxPeriods)
	assert.True(t, cfg.CancelledCountsAsMissed)
	assert.False(t, cfg.DigestEnabled)
	assert.False(t, cfg.IsProduction())

	p := cfg.Policy()
	assert.Equal(t, 20, p.MaxPeriods)
	assert.True(t, p.CancelledCountsAsMissed)
	assert.False(t, p.UseStartTime)
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("COACHDESK_ADDR", ":9090")
	t.Setenv("COACHDESK_MAX_PERIODS", "30")
	t.Setenv("COACHDESK_CANCELLED_COUNTS_AS_MISSED", "false")
	t.Setenv("COACHDESK_MISSED_USES_START_TIME", "true")
	t.Setenv("COACHDESK_TIMEZONE", "Pacific/Auckland")
	t.Setenv("COACHDESK_DIGEST_ENABLED", "true")
	t.Setenv("COACHDESK_DIGEST_SCHEDULE", "@daily")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 30, cfg.Policy().MaxPeriods)
	assert.False(t, cfg.Policy().CancelledCountsAsMissed)
	assert.True(t, cfg.Policy().UseStartTime)
	assert.Equal(t, "Pacific/Auckland", cfg.Location().String())
	assert.True(t, cfg.DigestEnabled)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("COACHDESK_MAX_PERIODS", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DBPath:             "x.db",
			MaxPeriods:         20,
			RateLimitPerSecond: 10,
			Timezone:           "UTC",
			DigestSchedule:     "0 0 7 * * MON",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing db path", func(c *Config) { c.DBPath = "" }, true},
		{"zero max periods", func(c *Config) { c.MaxPeriods = 0 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimitPerSecond = 0 }, true},
		{"negative slow query", func(c *Config) { c.SlowQueryMs = -1 }, true},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"bad schedule ignored when digest off", func(c *Config) { c.DigestSchedule = "whenever" }, false},
		{"bad schedule rejected when digest on", func(c *Config) {
			c.DigestEnabled = true
			c.DigestSchedule = "whenever"
		}, true},
		{"production needs csrf key", func(c *Config) { c.Env = "production" }, true},
		{"production with csrf key", func(c *Config) {
			c.Env = "production"
			c.CSRFKey = "0123456789abcdef0123456789abcdef"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
