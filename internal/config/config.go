// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults before layering sources.
// - All functions accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RequestTimeoutMS bounds end-to-end handling of a single HTTP request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// Upstream configures environmental data providers.
	Upstream UpstreamConfig `koanf:"upstream"`

	// Cache configures the shared reading cache in front of providers.
	Cache CacheConfig `koanf:"cache"`

	// Storage selects and configures report persistence.
	Storage StorageConfig `koanf:"storage"`

	// Analytics configures the report archival queue and publisher.
	Analytics AnalyticsConfig `koanf:"analytics"`

	// IdempotencySize sets the size of the duplicate-request index.
	IdempotencySize int `koanf:"idempotency_size"`

	// MaxExportRows caps GET /reports/export.
	MaxExportRows int `koanf:"max_export_rows"`

	// Scoring carries tunable aggregation parameters.
	Scoring ScoringConfig `koanf:"scoring"`
}

// UpstreamConfig groups provider settings for the four reading domains.
type UpstreamConfig struct {
	// OpenWeather holds credentials for live air and weather data.
	// Without an API key the service falls back to synthesized readings.
	OpenWeather OpenWeatherConfig `koanf:"openweather"`

	// TimeoutMS bounds a single provider call.
	TimeoutMS int `koanf:"timeout_ms"`

	// Soil, Water and Weather toggle the optional domains. Air is always on.
	Soil    DomainToggle `koanf:"soil"`
	Water   DomainToggle `koanf:"water"`
	Weather DomainToggle `koanf:"weather"`
}

// OpenWeatherConfig identifies the OpenWeather API endpoint.
type OpenWeatherConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

// DomainToggle enables or disables a single reading domain.
type DomainToggle struct {
	Enabled bool `koanf:"enabled"`
}

// CacheConfig configures the Redis reading cache.
type CacheConfig struct {
	Enabled   bool   `koanf:"enabled"`
	RedisAddr string `koanf:"redis_addr"`

	// TTLMS ages cached readings out; environmental data goes stale fast.
	TTLMS int `koanf:"ttl_ms"`
}

// StorageConfig selects the persistence driver.
type StorageConfig struct {
	// Driver is one of: memory, postgres.
	Driver string `koanf:"driver"`

	Postgres PostgresConfig `koanf:"postgres"`
}

// PostgresConfig carries connection pool settings for the postgres driver.
type PostgresConfig struct {
	DSN               string `koanf:"dsn"`
	MaxOpen           int    `koanf:"max_open"`
	MaxIdle           int    `koanf:"max_idle"`
	ConnMaxLifetimeMS int    `koanf:"conn_max_lifetime_ms"`
}

// AnalyticsConfig sizes the snapshot queue/worker pool and the optional
// Kafka publisher behind it.
type AnalyticsConfig struct {
	QueueSize   int         `koanf:"queue_size"`
	WorkerCount int         `koanf:"worker_count"`
	Kafka       KafkaConfig `koanf:"kafka"`
}

// KafkaConfig configures report event publishing.
type KafkaConfig struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// ScoringConfig carries tunable aggregation parameters.
type ScoringConfig struct {
	// Weights selects the domain weight row for each provision combination.
	Weights WeightTable `koanf:"weights"`
}

// WeightTable maps each combination of provided environmental domains to
// the weights used when blending their scores. Each row must sum to 1.0
// and include the air domain.
type WeightTable struct {
	AirOnly  map[string]float64 `koanf:"air_only"`
	AirSoil  map[string]float64 `koanf:"air_soil"`
	AirWater map[string]float64 `koanf:"air_water"`
	Full     map[string]float64 `koanf:"full"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		RequestTimeoutMS: 15_000,
		Upstream: UpstreamConfig{
			OpenWeather: OpenWeatherConfig{
				BaseURL: "https://api.openweathermap.org/data/2.5",
			},
			TimeoutMS: 5_000,
			Soil:      DomainToggle{Enabled: true},
			Water:     DomainToggle{Enabled: true},
			Weather:   DomainToggle{Enabled: true},
		},
		Cache: CacheConfig{
			Enabled:   false,
			RedisAddr: "localhost:6379",
			TTLMS:     600_000,
		},
		Storage: StorageConfig{
			Driver: "memory",
			Postgres: PostgresConfig{
				MaxOpen:           10,
				MaxIdle:           5,
				ConnMaxLifetimeMS: 300_000,
			},
		},
		Analytics: AnalyticsConfig{
			QueueSize:   10_000,
			WorkerCount: 4,
			Kafka: KafkaConfig{
				Enabled: false,
				Topic:   "envrisk.reports",
			},
		},
		IdempotencySize: 100_000,
		MaxExportRows:   1_000,
		Scoring: ScoringConfig{
			Weights: WeightTable{
				AirOnly:  map[string]float64{"air": 1.0},
				AirSoil:  map[string]float64{"air": 0.7, "soil": 0.3},
				AirWater: map[string]float64{"air": 0.7, "water": 0.3},
				Full:     map[string]float64{"air": 0.5, "water": 0.3, "soil": 0.2},
			},
		},
	}
	return c
}
