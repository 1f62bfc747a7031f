// Package readingcache wraps live providers with a Redis read-through
// cache so repeated assessments for nearby coordinates do not hammer
// the upstream API. Cache failures degrade to a direct fetch.
package readingcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/pkg/logger"
	"github.com/voralis/envrisk/pkg/metrics"
)

// DefaultTTL bounds how long a cached reading stays fresh.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "envrisk:reading"

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock swaps the package clock. Tests use a fake clock to control
// freshness checks.
func SetClock(c clockwork.Clock) {
	if c != nil {
		clock = c
	}
}

// envelope is the stored cache value. CachedAt is checked against the
// TTL on read so a fake clock can expire entries deterministically even
// when the backing store keeps them around.
type envelope struct {
	CachedAt time.Time       `json:"cached_at"`
	Payload  json.RawMessage `json:"payload"`
}

// Cache is a read-through cache keyed by domain and coordinates rounded
// to four decimal places (roughly eleven meters).
type Cache struct {
	rdb redis.UniversalClient
	ttl time.Duration
	log logger.Logger
}

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache degradation warnings.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a cache over the given Redis client.
func New(rdb redis.UniversalClient, opts ...Option) *Cache {
	c := &Cache{
		rdb: rdb,
		ttl: DefaultTTL,
		log: logger.Get().Named("readingcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key for a domain at a location.
func Key(d reading.Domain, loc reading.Location) string {
	return fmt.Sprintf("%s:%s:%.4f:%.4f", keyPrefix, d, loc.Latitude, loc.Longitude)
}

// lookup fetches and decodes a fresh envelope into dst. It reports
// whether dst was populated; every failure path is a miss.
func (c *Cache) lookup(ctx context.Context, d reading.Domain, loc reading.Location, dst any) bool {
	raw, err := c.rdb.Get(ctx, Key(d, loc)).Bytes()
	if err != nil {
		if err != redis.Nil {
			metrics.RecordCacheError()
			c.log.Debug(ctx, "reading cache get failed",
				logger.String("domain", string(d)), logger.Error(err))
		}
		metrics.RecordCacheMiss(string(d))
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.RecordCacheError()
		metrics.RecordCacheMiss(string(d))
		return false
	}
	if clock.Now().Sub(env.CachedAt) > c.ttl {
		metrics.RecordCacheMiss(string(d))
		return false
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		metrics.RecordCacheError()
		metrics.RecordCacheMiss(string(d))
		return false
	}

	metrics.RecordCacheHit(string(d))
	return true
}

// store writes an envelope. Failures are logged and swallowed so a
// broken cache never fails a fetch.
func (c *Cache) store(ctx context.Context, d reading.Domain, loc reading.Location, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		metrics.RecordCacheError()
		return
	}
	raw, err := json.Marshal(envelope{CachedAt: clock.Now(), Payload: payload})
	if err != nil {
		metrics.RecordCacheError()
		return
	}
	if err := c.rdb.Set(ctx, Key(d, loc), raw, c.ttl).Err(); err != nil {
		metrics.RecordCacheError()
		c.log.Debug(ctx, "reading cache set failed",
			logger.String("domain", string(d)), logger.Error(err))
	}
}

// CachedAirProvider decorates an air provider with the cache.
type CachedAirProvider struct {
	cache *Cache
	next  interface {
		FetchAir(context.Context, reading.Location) (*reading.AirReading, error)
	}
}

// Air wraps the given air provider.
func (c *Cache) Air(next interface {
	FetchAir(context.Context, reading.Location) (*reading.AirReading, error)
}) *CachedAirProvider {
	return &CachedAirProvider{cache: c, next: next}
}

// FetchAir serves from the cache when fresh and falls through to the
// wrapped provider otherwise.
func (p *CachedAirProvider) FetchAir(ctx context.Context, loc reading.Location) (*reading.AirReading, error) {
	var cached reading.AirReading
	if p.cache.lookup(ctx, reading.DomainAir, loc, &cached) {
		return &cached, nil
	}
	r, err := p.next.FetchAir(ctx, loc)
	if err != nil {
		return nil, err
	}
	p.cache.store(ctx, reading.DomainAir, loc, r)
	return r, nil
}

// CachedWeatherProvider decorates a weather provider with the cache.
type CachedWeatherProvider struct {
	cache *Cache
	next  interface {
		FetchWeather(context.Context, reading.Location) (*reading.WeatherReading, error)
	}
}

// Weather wraps the given weather provider.
func (c *Cache) Weather(next interface {
	FetchWeather(context.Context, reading.Location) (*reading.WeatherReading, error)
}) *CachedWeatherProvider {
	return &CachedWeatherProvider{cache: c, next: next}
}

// FetchWeather serves from the cache when fresh and falls through to
// the wrapped provider otherwise.
func (p *CachedWeatherProvider) FetchWeather(ctx context.Context, loc reading.Location) (*reading.WeatherReading, error) {
	var cached reading.WeatherReading
	if p.cache.lookup(ctx, reading.DomainWeather, loc, &cached) {
		return &cached, nil
	}
	r, err := p.next.FetchWeather(ctx, loc)
	if err != nil {
		return nil, err
	}
	p.cache.store(ctx, reading.DomainWeather, loc, r)
	return r, nil
}
