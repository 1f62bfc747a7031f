// Package upstream defines the provider contracts for environmental
// readings and the fan-out fetcher that assembles a per-request bundle.
package upstream

import (
	"context"

	"github.com/voralis/envrisk/internal/domain/reading"
)

// AirProvider fetches an air quality reading for a location.
type AirProvider interface {
	FetchAir(ctx context.Context, loc reading.Location) (*reading.AirReading, error)
}

// SoilProvider fetches a soil reading for a location.
type SoilProvider interface {
	FetchSoil(ctx context.Context, loc reading.Location) (*reading.SoilReading, error)
}

// WaterProvider fetches a water quality reading for a location.
type WaterProvider interface {
	FetchWater(ctx context.Context, loc reading.Location) (*reading.WaterReading, error)
}

// WeatherProvider fetches an atmospheric conditions reading for a location.
type WeatherProvider interface {
	FetchWeather(ctx context.Context, loc reading.Location) (*reading.WeatherReading, error)
}

// Fallback bundles the four provider contracts. The synth package
// implements it; the fetcher degrades to it when a live call fails.
type Fallback interface {
	AirProvider
	SoilProvider
	WaterProvider
	WeatherProvider
}
