package upstream

import (
	"context"
	"sync"
	"time"

	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/pkg/logger"
	"github.com/voralis/envrisk/pkg/metrics"
)

// defaultTimeout bounds a single provider call when no option overrides it.
const defaultTimeout = 5 * time.Second

// Fetcher fans out one goroutine per enabled domain and assembles a
// validated reading.Bundle. A live provider failure never fails the
// request: the domain degrades to the fallback reading, tagged mock.
type Fetcher struct {
	fallback Fallback
	timeout  time.Duration
	log      logger.Logger

	air        AirProvider
	airSrc     reading.Source
	soil       SoilProvider
	soilSrc    reading.Source
	water      WaterProvider
	waterSrc   reading.Source
	weather    WeatherProvider
	weatherSrc reading.Source
}

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds each individual provider call.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the fetcher.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// WithAir sets the air provider and its provenance tag.
func WithAir(p AirProvider, src reading.Source) Option {
	return func(f *Fetcher) {
		f.air, f.airSrc = p, src
	}
}

// WithSoil enables the soil domain with the given provider and provenance.
func WithSoil(p SoilProvider, src reading.Source) Option {
	return func(f *Fetcher) {
		f.soil, f.soilSrc = p, src
	}
}

// WithWater enables the water domain with the given provider and provenance.
func WithWater(p WaterProvider, src reading.Source) Option {
	return func(f *Fetcher) {
		f.water, f.waterSrc = p, src
	}
}

// WithWeather enables the weather domain with the given provider and provenance.
func WithWeather(p WeatherProvider, src reading.Source) Option {
	return func(f *Fetcher) {
		f.weather, f.weatherSrc = p, src
	}
}

// NewFetcher builds a fetcher over the given fallback. Air is always
// fetched: when no air provider is configured the fallback serves it
// directly. Soil, water and weather stay absent until enabled by option.
func NewFetcher(fallback Fallback, opts ...Option) *Fetcher {
	f := &Fetcher{
		fallback: fallback,
		timeout:  defaultTimeout,
		log:      logger.Get().Named("upstream"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.air == nil {
		f.air, f.airSrc = fallback, reading.SourceMock
	}
	return f
}

// Fetch retrieves every enabled domain concurrently and returns a
// validated bundle. Domains fail independently; a failure substitutes
// the fallback reading with Source set to mock.
func (f *Fetcher) Fetch(ctx context.Context, loc reading.Location) (reading.Bundle, error) {
	if err := loc.Validate(); err != nil {
		return reading.Bundle{}, err
	}

	b := reading.Bundle{
		Location:   loc,
		Sources:    make(map[reading.Domain]reading.Source, 4),
		CapturedAt: time.Now().UTC(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	set := func(d reading.Domain, src reading.Source, apply func()) {
		mu.Lock()
		defer mu.Unlock()
		apply()
		b.Sources[d] = src
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		r, src := f.Air(ctx, loc)
		set(reading.DomainAir, src, func() { b.Air = r })
	}()

	if f.soil != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, src := f.Soil(ctx, loc)
			set(reading.DomainSoil, src, func() { b.Soil = r })
		}()
	}
	if f.water != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, src := f.Water(ctx, loc)
			set(reading.DomainWater, src, func() { b.Water = r })
		}()
	}
	if f.weather != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, src := f.Weather(ctx, loc)
			set(reading.DomainWeather, src, func() { b.Weather = r })
		}()
	}

	wg.Wait()

	if err := b.Validate(); err != nil {
		return reading.Bundle{}, err
	}
	return b, nil
}

// Air fetches the air reading, degrading to the fallback on failure.
func (f *Fetcher) Air(ctx context.Context, loc reading.Location) (*reading.AirReading, reading.Source) {
	r, src, err := fetchDomain(ctx, f, reading.DomainAir, f.airSrc,
		func(ctx context.Context) (*reading.AirReading, error) { return f.air.FetchAir(ctx, loc) },
		func(ctx context.Context) (*reading.AirReading, error) { return f.fallback.FetchAir(ctx, loc) },
	)
	if err != nil {
		// The fallback synthesizes locally and cannot fail in practice;
		// surface a zero reading rather than aborting the whole bundle.
		f.log.Error(ctx, "air fallback failed", logger.Error(err))
		return &reading.AirReading{AQI: 100}, reading.SourceMock
	}
	return r, src
}

// Soil fetches the soil reading. Returns nil when the domain is disabled.
func (f *Fetcher) Soil(ctx context.Context, loc reading.Location) (*reading.SoilReading, reading.Source) {
	if f.soil == nil {
		return nil, ""
	}
	r, src, err := fetchDomain(ctx, f, reading.DomainSoil, f.soilSrc,
		func(ctx context.Context) (*reading.SoilReading, error) { return f.soil.FetchSoil(ctx, loc) },
		func(ctx context.Context) (*reading.SoilReading, error) { return f.fallback.FetchSoil(ctx, loc) },
	)
	if err != nil {
		return nil, ""
	}
	return r, src
}

// Water fetches the water reading. Returns nil when the domain is disabled.
func (f *Fetcher) Water(ctx context.Context, loc reading.Location) (*reading.WaterReading, reading.Source) {
	if f.water == nil {
		return nil, ""
	}
	r, src, err := fetchDomain(ctx, f, reading.DomainWater, f.waterSrc,
		func(ctx context.Context) (*reading.WaterReading, error) { return f.water.FetchWater(ctx, loc) },
		func(ctx context.Context) (*reading.WaterReading, error) { return f.fallback.FetchWater(ctx, loc) },
	)
	if err != nil {
		return nil, ""
	}
	return r, src
}

// Weather fetches the weather reading. Returns nil when the domain is disabled.
func (f *Fetcher) Weather(ctx context.Context, loc reading.Location) (*reading.WeatherReading, reading.Source) {
	if f.weather == nil {
		return nil, ""
	}
	r, src, err := fetchDomain(ctx, f, reading.DomainWeather, f.weatherSrc,
		func(ctx context.Context) (*reading.WeatherReading, error) { return f.weather.FetchWeather(ctx, loc) },
		func(ctx context.Context) (*reading.WeatherReading, error) { return f.fallback.FetchWeather(ctx, loc) },
	)
	if err != nil {
		return nil, ""
	}
	return r, src
}

// fetchDomain runs a single provider call with the per-call timeout and
// handles the degrade-to-fallback path for one domain.
func fetchDomain[T any](
	ctx context.Context,
	f *Fetcher,
	d reading.Domain,
	src reading.Source,
	primary func(context.Context) (*T, error),
	fallback func(context.Context) (*T, error),
) (*T, reading.Source, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	r, err := primary(callCtx)
	metrics.RecordUpstreamFetchLatency(string(d), float64(time.Since(start).Milliseconds()))
	if err == nil {
		metrics.RecordUpstreamFetch(string(d), string(src), "ok")
		return r, src, nil
	}

	metrics.RecordUpstreamFetch(string(d), string(src), "error")
	if src == reading.SourceMock {
		// The primary already was the fallback; nothing to degrade to.
		return nil, "", err
	}

	f.log.Warn(ctx, "live fetch failed, substituting mock reading",
		logger.String("domain", string(d)),
		logger.Error(err),
	)
	metrics.RecordUpstreamFallback(string(d))

	fbCtx, fbCancel := context.WithTimeout(ctx, f.timeout)
	defer fbCancel()
	r, err = fallback(fbCtx)
	if err != nil {
		return nil, "", err
	}
	metrics.RecordUpstreamFetch(string(d), string(reading.SourceMock), "ok")
	return r, reading.SourceMock, nil
}
