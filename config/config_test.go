package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 0.30, cfg.HouseEdge)
	assert.Equal(t, 0.00006, cfg.CrashGrowthRate)
	assert.Equal(t, 10*time.Second, cfg.CrashBettingWindow)
	assert.Equal(t, 3, cfg.PityThreshold)
	assert.Equal(t, 0.95, cfg.PityCheapestChance)
	assert.Equal(t, 30, cfg.LiveFeedSize)
	assert.False(t, cfg.NATSEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HOUSE_EDGE", "0.05")
	t.Setenv("CRASH_BETTING_WINDOW", "7s")
	t.Setenv("PITY_THRESHOLD", "5")
	t.Setenv("NATS_ENABLED", "true")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 0.05, cfg.HouseEdge)
	assert.Equal(t, 7*time.Second, cfg.CrashBettingWindow)
	assert.Equal(t, 5, cfg.PityThreshold)
	assert.True(t, cfg.NATSEnabled)
}

func TestLoad_ValidationSkippedInTest(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENVIRONMENT", "test")

	_, err := load()
	assert.NoError(t, err)

	t.Setenv("ENVIRONMENT", "production")
	_, err = load()
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"house edge of one", func(c *Config) { c.HouseEdge = 1 }, "HOUSE_EDGE"},
		{"negative house edge", func(c *Config) { c.HouseEdge = -0.1 }, "HOUSE_EDGE"},
		{"zero growth rate", func(c *Config) { c.CrashGrowthRate = 0 }, "CRASH_GROWTH_RATE"},
		{"zero betting window", func(c *Config) { c.CrashBettingWindow = 0 }, "CRASH_BETTING_WINDOW"},
		{"negative settle buffer", func(c *Config) { c.CrashSettleBuffer = -time.Second }, "CRASH_SETTLE_BUFFER"},
		{"zero pity threshold", func(c *Config) { c.PityThreshold = 0 }, "PITY_THRESHOLD"},
		{"pity chance above one", func(c *Config) { c.PityCheapestChance = 1.5 }, "PITY_CHEAPEST_CHANCE"},
		{"pool minimum above maximum", func(c *Config) { c.DBMinConns = 50 }, "DB_MIN_CONNS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.DatabaseURL = "postgres://localhost:5432"
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
