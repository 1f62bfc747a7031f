package upstream

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/voralis/envrisk/internal/adapters/upstream/synth"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// failingAir always errors, standing in for a broken live provider.
type failingAir struct{}

func (failingAir) FetchAir(context.Context, reading.Location) (*reading.AirReading, error) {
	return nil, errors.New("upstream unavailable")
}

// fixedAir returns a canned reading and records that it was called.
type fixedAir struct {
	called bool
}

func (p *fixedAir) FetchAir(context.Context, reading.Location) (*reading.AirReading, error) {
	p.called = true
	return &reading.AirReading{AQI: 42, PM25: 5, PM10: 9, CO: 0.3, NO2: 11, SO2: 1.5, O3: 40}, nil
}

func TestFetcherAirOnly(t *testing.T) {
	Convey("Given a fetcher with no optional domains", t, func() {
		f := NewFetcher(synth.New())
		loc := reading.Location{Latitude: 40.7128, Longitude: -74.006}

		Convey("Fetch returns a bundle with only the air domain", func() {
			b, err := f.Fetch(context.Background(), loc)
			So(err, ShouldBeNil)
			So(b.Air, ShouldNotBeNil)
			So(b.Soil, ShouldBeNil)
			So(b.Water, ShouldBeNil)
			So(b.Weather, ShouldBeNil)
			So(b.Sources[reading.DomainAir], ShouldEqual, reading.SourceMock)
			So(b.Sources, ShouldNotContainKey, reading.DomainSoil)
			So(b.CapturedAt.IsZero(), ShouldBeFalse)
		})

		Convey("An invalid location is rejected before any fetch", func() {
			_, err := f.Fetch(context.Background(), reading.Location{Latitude: 91, Longitude: 0})
			So(err, ShouldNotBeNil)
			So(errors.Is(err, reading.ErrOutOfRange), ShouldBeTrue)
		})
	})
}

func TestFetcherAllDomains(t *testing.T) {
	Convey("Given a fetcher with every domain enabled", t, func() {
		mock := synth.New()
		live := &fixedAir{}
		f := NewFetcher(mock,
			WithAir(live, reading.SourceLive),
			WithSoil(mock, reading.SourceMock),
			WithWater(mock, reading.SourceMock),
			WithWeather(mock, reading.SourceMock),
		)
		loc := reading.Location{Latitude: 40.7128, Longitude: -74.006}

		Convey("Fetch populates all four domains with provenance", func() {
			b, err := f.Fetch(context.Background(), loc)
			So(err, ShouldBeNil)
			So(live.called, ShouldBeTrue)
			So(b.Air.AQI, ShouldEqual, 42)
			So(b.Soil, ShouldNotBeNil)
			So(b.Water, ShouldNotBeNil)
			So(b.Weather, ShouldNotBeNil)
			So(b.Sources[reading.DomainAir], ShouldEqual, reading.SourceLive)
			So(b.Sources[reading.DomainSoil], ShouldEqual, reading.SourceMock)
			So(b.Sources[reading.DomainWater], ShouldEqual, reading.SourceMock)
			So(b.Sources[reading.DomainWeather], ShouldEqual, reading.SourceMock)
		})
	})
}

func TestFetcherDegradesToFallback(t *testing.T) {
	Convey("Given a fetcher whose live air provider is broken", t, func() {
		f := NewFetcher(synth.New(), WithAir(failingAir{}, reading.SourceLive))
		loc := reading.Location{Latitude: 40.7128, Longitude: -74.006}

		Convey("Fetch substitutes the mock reading and tags it mock", func() {
			b, err := f.Fetch(context.Background(), loc)
			So(err, ShouldBeNil)
			So(b.Air, ShouldNotBeNil)
			So(b.Sources[reading.DomainAir], ShouldEqual, reading.SourceMock)
		})

		Convey("The per-domain accessor degrades the same way", func() {
			r, src := f.Air(context.Background(), loc)
			So(r, ShouldNotBeNil)
			So(src, ShouldEqual, reading.SourceMock)
		})
	})
}

func TestFetcherDisabledDomainAccessors(t *testing.T) {
	Convey("Given a fetcher with soil and water disabled", t, func() {
		f := NewFetcher(synth.New())
		loc := reading.Location{Latitude: 40.7128, Longitude: -74.006}

		Convey("Disabled accessors return nil and an empty source", func() {
			soil, soilSrc := f.Soil(context.Background(), loc)
			So(soil, ShouldBeNil)
			So(soilSrc, ShouldEqual, reading.Source(""))

			water, waterSrc := f.Water(context.Background(), loc)
			So(water, ShouldBeNil)
			So(waterSrc, ShouldEqual, reading.Source(""))

			weather, weatherSrc := f.Weather(context.Background(), loc)
			So(weather, ShouldBeNil)
			So(weatherSrc, ShouldEqual, reading.Source(""))
		})
	})
}
