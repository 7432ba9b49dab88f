package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME"`
	DBMaxConns   int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns   int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	DBMaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // "text" or "json"

	// Crash game
	HouseEdge          float64       `envconfig:"HOUSE_EDGE" default:"0.30"`
	CrashGrowthRate    float64       `envconfig:"CRASH_GROWTH_RATE" default:"0.00006"` // per millisecond
	CrashBettingWindow time.Duration `envconfig:"CRASH_BETTING_WINDOW" default:"10s"`
	CrashSettleBuffer  time.Duration `envconfig:"CRASH_SETTLE_BUFFER" default:"4s"`
	CrashHistorySize   int           `envconfig:"CRASH_HISTORY_SIZE" default:"15"`
	CrashBetListSize   int           `envconfig:"CRASH_BET_LIST_SIZE" default:"50"`

	// Case opening
	CaseCatalogPath    string  `envconfig:"CASE_CATALOG_PATH" default:"cases.yaml"`
	PityThreshold      int     `envconfig:"PITY_THRESHOLD" default:"3"`
	PityCheapestChance float64 `envconfig:"PITY_CHEAPEST_CHANCE" default:"0.95"`

	// Live feed
	NATSEnabled   bool   `envconfig:"NATS_ENABLED" default:"false"`
	NATSServers   string `envconfig:"NATS_SERVERS" default:"nats://localhost:4222"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	LiveFeedSize  int    `envconfig:"LIVE_FEED_SIZE" default:"30"`

	// Maintenance jobs
	SweepSchedule     string `envconfig:"SWEEP_SCHEDULE" default:"@every 1m"`
	ReconcileSchedule string `envconfig:"RECONCILE_SCHEDULE" default:"0 * * * *"`

	// OpenTelemetry
	OTelEnabled              bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTelServiceName          string `envconfig:"OTEL_SERVICE_NAME" default:"starsgame"`
	OTelExporterType         string `envconfig:"OTEL_EXPORTER_TYPE" default:"console"` // console, otlp, none
	OTelOTLPEndpoint         string `envconfig:"OTEL_OTLP_ENDPOINT" default:"localhost:4317"`
	OTelExportIntervalMillis int    `envconfig:"OTEL_EXPORT_INTERVAL_MS" default:"30000"`

	// Environment
	Environment string `envconfig:"ENVIRONMENT"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from a local .env file (if any) and the environment
func load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// Validate checks the values that would otherwise break the games at runtime
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.HouseEdge < 0 || c.HouseEdge >= 1 {
		return fmt.Errorf("HOUSE_EDGE must be in [0, 1), got %v", c.HouseEdge)
	}
	if c.CrashGrowthRate <= 0 {
		return fmt.Errorf("CRASH_GROWTH_RATE must be positive")
	}
	if c.CrashBettingWindow <= 0 {
		return fmt.Errorf("CRASH_BETTING_WINDOW must be positive")
	}
	if c.CrashSettleBuffer < 0 {
		return fmt.Errorf("CRASH_SETTLE_BUFFER must not be negative")
	}
	if c.PityThreshold < 1 {
		return fmt.Errorf("PITY_THRESHOLD must be at least 1")
	}
	if c.PityCheapestChance < 0 || c.PityCheapestChance > 1 {
		return fmt.Errorf("PITY_CHEAPEST_CHANCE must be in [0, 1]")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

// Default returns a configuration populated with the built-in defaults only.
// Tests use it to build services without touching the process environment.
func Default() *Config {
	return &Config{
		DBMaxConns:               25,
		DBMinConns:               2,
		DBMaxConnLifetime:        30 * time.Minute,
		LogLevel:                 "info",
		LogFormat:                "text",
		HouseEdge:                0.30,
		CrashGrowthRate:          0.00006,
		CrashBettingWindow:       10 * time.Second,
		CrashSettleBuffer:        4 * time.Second,
		CrashHistorySize:         15,
		CrashBetListSize:         50,
		CaseCatalogPath:          "cases.yaml",
		PityThreshold:            3,
		PityCheapestChance:       0.95,
		NATSServers:              "nats://localhost:4222",
		LiveFeedSize:             30,
		SweepSchedule:            "@every 1m",
		ReconcileSchedule:        "0 * * * *",
		OTelServiceName:          "starsgame",
		OTelExporterType:         "console",
		OTelOTLPEndpoint:         "localhost:4317",
		OTelExportIntervalMillis: 30000,
		Environment:              "test",
	}
}
