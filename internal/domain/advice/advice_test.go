package advice_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/voralis/envrisk/internal/domain/advice"
	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
)

func bundleWithAQI(aqi int) reading.Bundle {
	return reading.Bundle{
		Location: reading.Location{Latitude: 40.7, Longitude: -74.0},
		Air:      &reading.AirReading{AQI: aqi, PM25: 10, PM10: 18, CO: 0.3, NO2: 12, SO2: 2, O3: 40},
		Sources:  map[reading.Domain]reading.Source{reading.DomainAir: reading.SourceLive},
	}
}

func carefulProfile() profile.Profile {
	return profile.Profile{
		AgeRange: profile.Age26to35,
		Smoking:  profile.SmokingNever,
		Activity: profile.ActivityActive,
		Work:     profile.WorkIndoor,
	}
}

func titles(recs []advice.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

func TestGenerate(t *testing.T) {
	Convey("Given clean readings and careful habits", t, func() {
		recs := advice.Generate(bundleWithAQI(30), carefulProfile())

		Convey("Then only the standing checkup advice remains", func() {
			So(recs, ShouldHaveLength, 1)
			So(recs[0].Title, ShouldEqual, "Regular Health Checkups")
			So(recs[0].Category, ShouldEqual, advice.CategoryGeneral)
			So(recs[0].Priority, ShouldEqual, advice.PriorityMedium)
		})
	})

	Convey("Given the air quality bands", t, func() {
		Convey("When the AQI sits at or below 50", func() {
			recs := advice.Generate(bundleWithAQI(50), carefulProfile())
			So(titles(recs), ShouldNotContain, "Air Quality Awareness")
			So(titles(recs), ShouldNotContain, "Monitor Air Quality Daily")
		})

		Convey("When the AQI sits between 51 and 100", func() {
			recs := advice.Generate(bundleWithAQI(75), carefulProfile())
			So(titles(recs), ShouldContain, "Air Quality Awareness")
			So(titles(recs), ShouldNotContain, "Monitor Air Quality Daily")
			So(recs[0].Priority, ShouldEqual, advice.PriorityMedium)
		})

		Convey("When the AQI exceeds 100", func() {
			recs := advice.Generate(bundleWithAQI(101), carefulProfile())
			So(titles(recs), ShouldContain, "Monitor Air Quality Daily")
			So(titles(recs), ShouldNotContain, "Air Quality Awareness")
			So(recs[0].Priority, ShouldEqual, advice.PriorityHigh)
		})

		Convey("When fine particulates are elevated on their own", func() {
			b := bundleWithAQI(40)
			b.Air.PM25 = 30
			recs := advice.Generate(b, carefulProfile())
			So(titles(recs), ShouldContain, "Reduce PM2.5 Exposure")
		})
	})

	Convey("Given soil contamination levels", t, func() {
		b := bundleWithAQI(30)
		b.Soil = &reading.SoilReading{
			Type: reading.SoilLoam, PH: 6.5, OrganicMatter: 4,
			Contamination: reading.LevelLow,
		}
		b.Sources[reading.DomainSoil] = reading.SourceMock

		Convey("When contamination is low", func() {
			recs := advice.Generate(b, carefulProfile())
			So(titles(recs), ShouldNotContain, "Soil Safety Precautions")
		})

		Convey("When contamination is medium", func() {
			b.Soil.Contamination = reading.LevelMedium
			recs := advice.Generate(b, carefulProfile())

			So(recs[0].Title, ShouldEqual, "Soil Safety Precautions")
			So(recs[0].Priority, ShouldEqual, advice.PriorityMedium)
			So(recs[0].Description, ShouldEqual, "Conduct soil testing before starting edible gardens")
		})

		Convey("When contamination is high", func() {
			b.Soil.Contamination = reading.LevelHigh
			recs := advice.Generate(b, carefulProfile())

			So(recs[0].Title, ShouldEqual, "Soil Safety Precautions")
			So(recs[0].Priority, ShouldEqual, advice.PriorityHigh)
			So(recs[0].Description, ShouldEqual, "Avoid direct soil contact without protection")
		})
	})

	Convey("Given water contamination levels", t, func() {
		b := bundleWithAQI(30)
		b.Water = &reading.WaterReading{
			SourceType: reading.WaterMunicipal, PH: 7.2,
			Hardness:      reading.HardnessModerate,
			Contamination: reading.LevelMedium,
		}
		b.Sources[reading.DomainWater] = reading.SourceMock

		Convey("When contamination is medium", func() {
			recs := advice.Generate(b, carefulProfile())
			So(recs[0].Title, ShouldEqual, "Filter Drinking Water")
			So(recs[0].Description, ShouldEqual, "Consider a carbon filter for better taste/safety")
		})

		Convey("When contamination is high", func() {
			b.Water.Contamination = reading.LevelHigh
			recs := advice.Generate(b, carefulProfile())
			So(recs[0].Title, ShouldEqual, "Drinking Water Advisory")
			So(recs[0].Priority, ShouldEqual, advice.PriorityHigh)
			So(recs[0].Description, ShouldEqual, "Boil water or use bottled water for drinking")
		})
	})

	Convey("Given risky questionnaire answers", t, func() {
		p := carefulProfile()
		p.Smoking = profile.SmokingCurrent
		p.Activity = profile.ActivitySedentary
		p.Stress = profile.StressHigh
		p.Diet = profile.DietPoor
		p.Sleep = profile.SleepShort
		p.Home.Cooking = profile.CookingWood

		recs := advice.Generate(bundleWithAQI(30), p)

		Convey("Then each answer surfaces its template, smoking first", func() {
			So(titles(recs), ShouldResemble, []string{
				"Quit Smoking",
				"Increase Physical Activity",
				"Manage Stress",
				"Improve Diet Quality",
				"Improve Sleep Habits",
				"Improve Indoor Air",
				"Regular Health Checkups",
			})
			So(recs[0].Priority, ShouldEqual, advice.PriorityHigh)
			So(recs[0].Description, ShouldEqual, "Consider smoking cessation programs - single most impactful health improvement")
		})
	})

	Convey("Given a wood-free kitchen", t, func() {
		p := carefulProfile()
		p.Home.Cooking = profile.CookingGas
		recs := advice.Generate(bundleWithAQI(30), p)
		So(titles(recs), ShouldNotContain, "Improve Indoor Air")
	})

	Convey("Given a later high-priority trigger", t, func() {
		p := carefulProfile()
		p.Smoking = profile.SmokingCurrent

		recs := advice.Generate(bundleWithAQI(75), p)

		Convey("Then priority outranks trigger order", func() {
			So(titles(recs), ShouldResemble, []string{
				"Quit Smoking",
				"Air Quality Awareness",
				"Regular Health Checkups",
			})
		})
	})

	Convey("Given more triggers than the cap allows", t, func() {
		b := bundleWithAQI(180)
		b.Air.PM25 = 70
		b.Soil = &reading.SoilReading{
			Type: reading.SoilClay, PH: 5.0, OrganicMatter: 2,
			Contamination: reading.LevelHigh,
		}
		b.Water = &reading.WaterReading{
			SourceType: reading.WaterSurface, PH: 6.5,
			Hardness:      reading.HardnessSoft,
			Contamination: reading.LevelHigh,
		}
		b.Sources[reading.DomainSoil] = reading.SourceMock
		b.Sources[reading.DomainWater] = reading.SourceMock

		p := profile.Profile{
			AgeRange: profile.Age36to50,
			Smoking:  profile.SmokingCurrent,
			Activity: profile.ActivitySedentary,
			Work:     profile.WorkOutdoor,
			Diet:     profile.DietPoor,
			Sleep:    profile.SleepShort,
			Stress:   profile.StressHigh,
			Home:     profile.Home{Cooking: profile.CookingWood},
		}

		recs := advice.Generate(b, p)

		Convey("Then exactly the cap survives, highest priority first", func() {
			// 11 candidates; the three latest medium triggers fall off.
			So(recs, ShouldHaveLength, advice.MaxRecommendations)
			So(titles(recs), ShouldResemble, []string{
				"Monitor Air Quality Daily",
				"Reduce PM2.5 Exposure",
				"Soil Safety Precautions",
				"Drinking Water Advisory",
				"Quit Smoking",
				"Increase Physical Activity",
				"Manage Stress",
				"Improve Diet Quality",
			})
			for _, r := range recs[:5] {
				So(r.Priority, ShouldEqual, advice.PriorityHigh)
			}
		})
	})

	Convey("Given identical inputs twice", t, func() {
		b := bundleWithAQI(120)
		p := carefulProfile()
		p.Stress = profile.StressHigh

		first := advice.Generate(b, p)
		second := advice.Generate(b, p)

		Convey("Then the lists match exactly", func() {
			So(second, ShouldResemble, first)
		})
	})
}
