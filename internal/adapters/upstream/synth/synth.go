// Package synth provides deterministic mock reading providers. Values are
// synthesized from a coordinate-derived seed, so the same location always
// yields the same readings. It backs every domain when no live provider
// is configured and serves as the degrade target when a live call fails.
package synth

import (
	"context"
	"math"
	"math/rand"

	"github.com/voralis/envrisk/internal/domain/reading"
)

// Per-domain seed salts keep the four domains from drawing the same
// sequence at one location.
const (
	saltAir int64 = iota
	saltSoil
	saltWater
	saltWeather
)

// Urban proximity threshold: within roughly one degree of New York City
// the synthesized soil skews contaminated.
const urbanProximityDegrees = 1.0

// Provider implements all four upstream provider contracts.
type Provider struct{}

// New returns a synthesizing provider.
func New() *Provider {
	return &Provider{}
}

// seedFor derives the deterministic seed for a location.
func seedFor(loc reading.Location, salt int64) int64 {
	return int64((math.Abs(loc.Latitude)+math.Abs(loc.Longitude))*1000) + salt
}

// FetchAir synthesizes correlated pollutant levels around a base
// pollution draw.
func (p *Provider) FetchAir(_ context.Context, loc reading.Location) (*reading.AirReading, error) {
	r := rand.New(rand.NewSource(seedFor(loc, saltAir)))

	base := 20 + r.Float64()*100
	aqi := int(base + (r.Float64()*40 - 10))
	if aqi < 0 {
		aqi = 0
	}
	if aqi > 500 {
		aqi = 500
	}

	return &reading.AirReading{
		AQI:  aqi,
		PM25: round1(nonNegative(base*0.3 + (r.Float64()*15 - 5))),
		PM10: round1(nonNegative(base*0.5 + (r.Float64()*20 - 5))),
		CO:   round2(0.2 + r.Float64()*1.3),
		NO2:  round1(nonNegative(base*0.4 + (r.Float64()*25 - 10))),
		SO2:  round1(5 + r.Float64()*25),
		O3:   round1(30 + r.Float64()*50),
	}, nil
}

// FetchSoil synthesizes soil properties. Contamination skews medium/high
// near the urban reference point and low/medium elsewhere.
func (p *Provider) FetchSoil(_ context.Context, loc reading.Location) (*reading.SoilReading, error) {
	r := rand.New(rand.NewSource(seedFor(loc, saltSoil)))

	types := []reading.SoilType{reading.SoilClay, reading.SoilSandy, reading.SoilLoam, reading.SoilSilt}
	soilType := types[r.Intn(len(types))]
	ph := round1(5.5 + r.Float64()*2.5)
	organic := round1(1.0 + r.Float64()*5.0)

	urbanProximity := math.Abs(loc.Latitude-40.7) + math.Abs(loc.Longitude+74)
	var contamination reading.Level
	if urbanProximity < urbanProximityDegrees {
		contamination = pick(r, reading.LevelMedium, reading.LevelHigh)
	} else {
		contamination = pick(r, reading.LevelLow, reading.LevelMedium)
	}

	return &reading.SoilReading{
		Type:          soilType,
		PH:            ph,
		OrganicMatter: organic,
		Contamination: contamination,
	}, nil
}

// FetchWater synthesizes a water reading. The contamination draw is
// low-skewed: three low entries against one medium and one high.
func (p *Provider) FetchWater(_ context.Context, loc reading.Location) (*reading.WaterReading, error) {
	r := rand.New(rand.NewSource(seedFor(loc, saltWater)))

	contamination := pick(r,
		reading.LevelLow, reading.LevelLow, reading.LevelLow,
		reading.LevelMedium, reading.LevelHigh,
	)

	return &reading.WaterReading{
		SourceType:    pick(r, reading.WaterMunicipal, reading.WaterGroundwater, reading.WaterSurface),
		PH:            round1(6.5 + r.Float64()*2.0),
		Hardness:      pick(r, reading.HardnessSoft, reading.HardnessModerate, reading.HardnessHard),
		Contamination: contamination,
	}, nil
}

// FetchWeather synthesizes plausible atmospheric conditions.
func (p *Provider) FetchWeather(_ context.Context, loc reading.Location) (*reading.WeatherReading, error) {
	r := rand.New(rand.NewSource(seedFor(loc, saltWeather)))

	temp := round1(-5 + r.Float64()*37)
	conditions := []struct {
		main, description string
	}{
		{"Clear", "clear sky"},
		{"Clouds", "scattered clouds"},
		{"Clouds", "overcast clouds"},
		{"Rain", "light rain"},
		{"Mist", "mist"},
	}
	c := conditions[r.Intn(len(conditions))]

	return &reading.WeatherReading{
		TemperatureC:  temp,
		FeelsLikeC:    round1(temp + (r.Float64()*6 - 3)),
		Humidity:      30 + r.Intn(61),
		PressureHPa:   990 + r.Intn(41),
		WindSpeed:     round1(r.Float64() * 12),
		WindDirection: r.Intn(360),
		Condition:     c.main,
		Description:   c.description,
		CloudCover:    r.Intn(101),
		VisibilityM:   4000 + r.Intn(6001),
	}, nil
}

func pick[T any](r *rand.Rand, choices ...T) T {
	return choices[r.Intn(len(choices))]
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
