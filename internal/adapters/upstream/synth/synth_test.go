package synth_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/voralis/envrisk/internal/adapters/upstream/synth"
	"github.com/voralis/envrisk/internal/domain/reading"
)

func TestDeterminism(t *testing.T) {
	Convey("Given the synthesizing provider", t, func() {
		ctx := context.Background()
		p := synth.New()
		loc := reading.Location{Latitude: 40.7128, Longitude: -74.0060}

		Convey("Then repeated fetches for one location are identical", func() {
			a1, err := p.FetchAir(ctx, loc)
			So(err, ShouldBeNil)
			a2, err := p.FetchAir(ctx, loc)
			So(err, ShouldBeNil)
			So(*a1, ShouldResemble, *a2)

			s1, _ := p.FetchSoil(ctx, loc)
			s2, _ := p.FetchSoil(ctx, loc)
			So(*s1, ShouldResemble, *s2)

			w1, _ := p.FetchWater(ctx, loc)
			w2, _ := p.FetchWater(ctx, loc)
			So(*w1, ShouldResemble, *w2)

			we1, _ := p.FetchWeather(ctx, loc)
			we2, _ := p.FetchWeather(ctx, loc)
			So(*we1, ShouldResemble, *we2)
		})

		Convey("And different locations draw different readings", func() {
			other := reading.Location{Latitude: 51.5074, Longitude: -0.1278}
			a1, _ := p.FetchAir(ctx, loc)
			a2, _ := p.FetchAir(ctx, other)
			So(*a1, ShouldNotResemble, *a2)
		})
	})
}

func TestReadingValidity(t *testing.T) {
	Convey("Given synthesized readings across a coordinate sweep", t, func() {
		ctx := context.Background()
		p := synth.New()

		locations := []reading.Location{
			{Latitude: 0, Longitude: 0},
			{Latitude: 40.7128, Longitude: -74.0060},
			{Latitude: -33.8688, Longitude: 151.2093},
			{Latitude: 89.9, Longitude: 179.9},
			{Latitude: -89.9, Longitude: -179.9},
		}

		Convey("Then every reading validates", func() {
			for _, loc := range locations {
				air, err := p.FetchAir(ctx, loc)
				So(err, ShouldBeNil)
				So(air.Validate(), ShouldBeNil)

				soil, err := p.FetchSoil(ctx, loc)
				So(err, ShouldBeNil)
				So(soil.Validate(), ShouldBeNil)

				water, err := p.FetchWater(ctx, loc)
				So(err, ShouldBeNil)
				So(water.Validate(), ShouldBeNil)

				weather, err := p.FetchWeather(ctx, loc)
				So(err, ShouldBeNil)
				So(weather.Validate(), ShouldBeNil)
			}
		})
	})
}

func TestUrbanSoilContamination(t *testing.T) {
	Convey("Given a location within one degree of the urban reference", t, func() {
		ctx := context.Background()
		p := synth.New()

		soil, err := p.FetchSoil(ctx, reading.Location{Latitude: 40.7, Longitude: -74.0})
		So(err, ShouldBeNil)

		Convey("Then contamination is never low", func() {
			So(soil.Contamination, ShouldBeIn, []reading.Level{reading.LevelMedium, reading.LevelHigh})
		})
	})
}
