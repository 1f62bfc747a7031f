package report_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/voralis/envrisk/internal/domain/report"
	"github.com/voralis/envrisk/internal/domain/risk"
)

func TestSummarize(t *testing.T) {
	Convey("Given assessments across the tiers", t, func() {
		Convey("When risk is low and lifestyle is the healthy side", func() {
			s := report.Summarize(risk.Assessment{
				Level:                     risk.LevelLow,
				AdjustedEnvironmentalRisk: 20,
				LifestyleRisk:             5,
			})

			So(s, ShouldEqual,
				"Your overall health risk is low. "+
					"Environmental factors are the primary concern. "+
					"Your healthy lifestyle choices help mitigate environmental risks.")
		})

		Convey("When lifestyle dominates over a clean environment", func() {
			s := report.Summarize(risk.Assessment{
				Level:                     risk.LevelMedium,
				AdjustedEnvironmentalRisk: 20,
				LifestyleRisk:             80,
			})

			So(s, ShouldEqual,
				"Your health risk is moderate. "+
					"Lifestyle factors are the primary concern. "+
					"Good environmental conditions support your health despite lifestyle considerations.")
		})

		Convey("When both sides are elevated", func() {
			s := report.Summarize(risk.Assessment{
				Level:                     risk.LevelHigh,
				AdjustedEnvironmentalRisk: 70,
				LifestyleRisk:             60,
			})

			Convey("Then no mitigation note closes the summary", func() {
				So(s, ShouldEqual,
					"Your health risk is elevated and requires attention. "+
						"Both environmental and lifestyle factors contribute to your risk. ")
			})
		})

		Convey("When a side sits exactly at the dominance ratio", func() {
			s := report.Summarize(risk.Assessment{
				Level:                     risk.LevelMedium,
				AdjustedEnvironmentalRisk: 45,
				LifestyleRisk:             30,
			})

			Convey("Then dominance requires strictly more than 1.5x", func() {
				So(s, ShouldContainSubstring, "Both environmental and lifestyle factors")
			})
		})

		Convey("When both sides are comfortably low", func() {
			s := report.Summarize(risk.Assessment{
				Level:                     risk.LevelLow,
				AdjustedEnvironmentalRisk: 10,
				LifestyleRisk:             5,
			})

			Convey("Then the lifestyle note wins", func() {
				So(s, ShouldContainSubstring, "healthy lifestyle choices")
				So(s, ShouldNotContainSubstring, "Good environmental conditions")
			})
		})

		Convey("When the driver comparison uses the adjusted number", func() {
			// Unadjusted 40 vs lifestyle 50 would read as balanced; the
			// amplified 80 tips it to environmental.
			s := report.Summarize(risk.Assessment{
				Level:                     risk.LevelHigh,
				EnvironmentalRisk:         40,
				AdjustedEnvironmentalRisk: 80,
				LifestyleRisk:             50,
			})

			So(s, ShouldContainSubstring, "Environmental factors are the primary concern.")
		})
	})
}
