package risk

import (
	"github.com/voralis/envrisk/internal/domain/profile"
)

// Lifestyle point tables. Exported so the documented defaults stay visible
// to callers and tests.
var (
	SmokingPoints = map[profile.Smoking]float64{
		profile.SmokingNever:   0,
		profile.SmokingFormer:  15,
		profile.SmokingCurrent: 35,
	}
	ActivityPoints = map[profile.Activity]float64{
		profile.ActivityActive:    0,
		profile.ActivityModerate:  10,
		profile.ActivitySedentary: 25,
	}
	WorkPoints = map[profile.WorkEnvironment]float64{
		profile.WorkIndoor:  5,
		profile.WorkMixed:   10,
		profile.WorkOutdoor: 15,
	}
	DietPoints = map[profile.Diet]float64{
		profile.DietGood:    0,
		profile.DietAverage: 10,
		profile.DietPoor:    20,
	}
	SleepPoints = map[profile.Sleep]float64{
		profile.SleepLong:  0,
		profile.SleepMid:   5,
		profile.SleepShort: 15,
	}
	StressPoints = map[profile.Stress]float64{
		profile.StressLow:    0,
		profile.StressMedium: 10,
		profile.StressHigh:   20,
	}
)

// FieldContribution records one questionnaire answer's score impact.
// Description carries the factor prose for the answer; it is empty when
// the answer warrants no mention.
type FieldContribution struct {
	Field       string
	Answer      string
	Points      float64
	MaxPoints   float64
	Description string
	Favorable   bool
}

// LifestyleBreakdown carries the lifestyle sub-score, the per-answer
// contributions, and the headline factor strings surfaced on profile
// submission.
type LifestyleBreakdown struct {
	Lifestyle       float64
	Contributions   []FieldContribution
	RiskFactors     []string
	PositiveFactors []string
}

// LifestyleScore sums the point tables over the questionnaire and clamps
// to [0,100]. Skipped optional answers contribute nothing. Medical history
// is deliberately excluded: it feeds the vulnerability multiplier instead,
// so conditions are never double-counted.
func LifestyleScore(p profile.Profile) (LifestyleBreakdown, error) {
	if err := p.Validate(); err != nil {
		return LifestyleBreakdown{}, err
	}

	var bd LifestyleBreakdown

	smoking := SmokingPoints[p.Smoking]
	c := FieldContribution{
		Field:     "smoking_status",
		Answer:    string(p.Smoking),
		Points:    smoking,
		MaxPoints: SmokingPoints[profile.SmokingCurrent],
		Favorable: p.Smoking == profile.SmokingNever,
	}
	switch p.Smoking {
	case profile.SmokingNever:
		c.Description = "Non-smoker - excellent respiratory health foundation"
		bd.PositiveFactors = append(bd.PositiveFactors, c.Description)
	case profile.SmokingFormer:
		c.Description = "Former smoker - reduced but present health impact"
		bd.RiskFactors = append(bd.RiskFactors, c.Description)
	case profile.SmokingCurrent:
		c.Description = "Current smoker - significant health risk factor"
		bd.RiskFactors = append(bd.RiskFactors, c.Description)
	}
	bd.Contributions = append(bd.Contributions, c)

	activity := ActivityPoints[p.Activity]
	c = FieldContribution{
		Field:     "activity_level",
		Answer:    string(p.Activity),
		Points:    activity,
		MaxPoints: ActivityPoints[profile.ActivitySedentary],
		Favorable: p.Activity == profile.ActivityActive,
	}
	switch p.Activity {
	case profile.ActivityActive:
		c.Description = "Active lifestyle - strong cardiovascular protection"
		bd.PositiveFactors = append(bd.PositiveFactors, c.Description)
	case profile.ActivityModerate:
		c.Description = "Moderate activity level - good health maintenance"
		bd.PositiveFactors = append(bd.PositiveFactors, c.Description)
	case profile.ActivitySedentary:
		c.Description = "Sedentary lifestyle - increases multiple health risks"
		bd.RiskFactors = append(bd.RiskFactors, c.Description)
	}
	bd.Contributions = append(bd.Contributions, c)

	work := WorkPoints[p.Work]
	c = FieldContribution{
		Field:     "work_environment",
		Answer:    string(p.Work),
		Points:    work,
		MaxPoints: WorkPoints[profile.WorkOutdoor],
		Favorable: p.Work == profile.WorkIndoor,
	}
	switch p.Work {
	case profile.WorkIndoor:
		c.Description = "Indoor work environment - limited environmental exposure"
		bd.PositiveFactors = append(bd.PositiveFactors, c.Description)
	case profile.WorkMixed:
		c.Description = "Mixed work environment - increased environmental exposure"
		bd.RiskFactors = append(bd.RiskFactors, c.Description)
	case profile.WorkOutdoor:
		c.Description = "Outdoor work environment - increased environmental exposure"
		bd.RiskFactors = append(bd.RiskFactors, c.Description)
	}
	bd.Contributions = append(bd.Contributions, c)

	total := smoking + activity + work

	if p.Diet != "" {
		diet := DietPoints[p.Diet]
		total += diet
		c = FieldContribution{
			Field:     "diet_quality",
			Answer:    string(p.Diet),
			Points:    diet,
			MaxPoints: DietPoints[profile.DietPoor],
			Favorable: p.Diet == profile.DietGood,
		}
		switch p.Diet {
		case profile.DietGood:
			c.Description = "Good diet quality - supports immune function"
			bd.PositiveFactors = append(bd.PositiveFactors, c.Description)
		case profile.DietPoor:
			c.Description = "Poor diet quality - affects overall health resilience"
			bd.RiskFactors = append(bd.RiskFactors, c.Description)
		}
		bd.Contributions = append(bd.Contributions, c)
	}

	if p.Sleep != "" {
		sleep := SleepPoints[p.Sleep]
		total += sleep
		c = FieldContribution{
			Field:     "sleep_hours",
			Answer:    string(p.Sleep),
			Points:    sleep,
			MaxPoints: SleepPoints[profile.SleepShort],
			Favorable: p.Sleep == profile.SleepLong,
		}
		switch p.Sleep {
		case profile.SleepLong:
			c.Description = "Plentiful sleep - supports recovery and immune function"
			bd.PositiveFactors = append(bd.PositiveFactors, c.Description)
		case profile.SleepMid:
			c.Description = "Adequate sleep - supports recovery and immune function"
			bd.PositiveFactors = append(bd.PositiveFactors, c.Description)
		case profile.SleepShort:
			c.Description = "Insufficient sleep - weakens immune response"
			bd.RiskFactors = append(bd.RiskFactors, c.Description)
		}
		bd.Contributions = append(bd.Contributions, c)
	}

	if p.Stress != "" {
		stress := StressPoints[p.Stress]
		total += stress
		c = FieldContribution{
			Field:     "stress_level",
			Answer:    string(p.Stress),
			Points:    stress,
			MaxPoints: StressPoints[profile.StressHigh],
			Favorable: p.Stress == profile.StressLow,
		}
		switch p.Stress {
		case profile.StressLow:
			c.Description = "Low stress level - protective for long-term health"
			bd.PositiveFactors = append(bd.PositiveFactors, c.Description)
		case profile.StressMedium:
			c.Description = "Moderate stress level - manageable with interventions"
			bd.RiskFactors = append(bd.RiskFactors, c.Description)
		case profile.StressHigh:
			c.Description = "High stress level - impacts immune system and overall health"
			bd.RiskFactors = append(bd.RiskFactors, c.Description)
		}
		bd.Contributions = append(bd.Contributions, c)
	}

	bd.Lifestyle = clamp(total)
	return bd, nil
}
