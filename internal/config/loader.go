package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if ENVRISK_CONFIG is set
//  3. env (prefix ENVRISK_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ENVRISK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: ENVRISK_ADDR, ENVRISK_CACHE__TTL_MS, ...
	// A double underscore separates nesting levels so single underscores
	// survive inside key names (cache.ttl_ms, upstream.timeout_ms).
	envProvider := env.Provider("ENVRISK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "envrisk_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would only fail later at runtime.
// All violations wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.Upstream.TimeoutMS <= 0 {
		return fmt.Errorf("%w: upstream.timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.Cache.Enabled {
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("%w: cache.redis_addr must be set when cache is enabled", ErrInvalidConfig)
		}
		if c.Cache.TTLMS <= 0 {
			return fmt.Errorf("%w: cache.ttl_ms must be positive when cache is enabled", ErrInvalidConfig)
		}
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("%w: storage.postgres.dsn must be set for the postgres driver", ErrInvalidConfig)
		}
		if c.Storage.Postgres.MaxOpen <= 0 {
			return fmt.Errorf("%w: storage.postgres.max_open must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Analytics.QueueSize <= 0 {
		return fmt.Errorf("%w: analytics.queue_size must be positive", ErrInvalidConfig)
	}
	if c.Analytics.WorkerCount <= 0 {
		return fmt.Errorf("%w: analytics.worker_count must be positive", ErrInvalidConfig)
	}
	if c.Analytics.Kafka.Enabled {
		if len(c.Analytics.Kafka.Brokers) == 0 {
			return fmt.Errorf("%w: analytics.kafka.brokers must be set when kafka is enabled", ErrInvalidConfig)
		}
		if c.Analytics.Kafka.Topic == "" {
			return fmt.Errorf("%w: analytics.kafka.topic must be set when kafka is enabled", ErrInvalidConfig)
		}
	}
	if c.IdempotencySize <= 0 {
		return fmt.Errorf("%w: idempotency_size must be positive", ErrInvalidConfig)
	}
	if c.MaxExportRows <= 0 {
		return fmt.Errorf("%w: max_export_rows must be positive", ErrInvalidConfig)
	}
	return c.Scoring.Weights.validate()
}

func (t WeightTable) validate() error {
	rows := map[string]map[string]float64{
		"air_only":  t.AirOnly,
		"air_soil":  t.AirSoil,
		"air_water": t.AirWater,
		"full":      t.Full,
	}
	for name, row := range rows {
		if len(row) == 0 {
			return fmt.Errorf("%w: scoring.weights.%s must not be empty", ErrInvalidConfig, name)
		}
		var sum float64
		for domain, w := range row {
			if w < 0 {
				return fmt.Errorf("%w: scoring.weights.%s[%s] must not be negative", ErrInvalidConfig, name, domain)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-9 {
			return fmt.Errorf("%w: scoring.weights.%s must sum to 1.0, got %g", ErrInvalidConfig, name, sum)
		}
		if _, ok := row["air"]; !ok {
			return fmt.Errorf("%w: scoring.weights.%s must include the air domain", ErrInvalidConfig, name)
		}
	}
	return nil
}
