// Package report assembles immutable health reports by running the full
// scoring pipeline over validated readings and a lifestyle profile.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/voralis/envrisk/internal/domain/advice"
	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/internal/domain/risk"
)

// Report is the immutable outcome of one assessment run. Paid is the only
// field that changes afterwards, and it changes on the persisted row via
// the unlock flow, never on the computed value.
type Report struct {
	ID                        string                            `json:"report_id"`
	GeneratedAt               time.Time                         `json:"generated_at"`
	Location                  reading.Location                  `json:"location"`
	LocationName              string                            `json:"location_name"`
	RiskScore                 float64                           `json:"risk_score"`
	RiskLevel                 risk.RiskLevel                    `json:"risk_level"`
	EnvironmentalRisk         float64                           `json:"environmental_risk"`
	AdjustedEnvironmentalRisk float64                           `json:"adjusted_environmental_risk"`
	LifestyleRisk             float64                           `json:"lifestyle_risk"`
	VulnerabilityMultiplier   float64                           `json:"vulnerability_multiplier"`
	Factors                   []risk.Factor                     `json:"contributing_factors"`
	Recommendations           []advice.Recommendation           `json:"health_recommendations"`
	Summary                   string                            `json:"report_summary"`
	Features                  FeatureVector                     `json:"feature_vector"`
	Sources                   map[reading.Domain]reading.Source `json:"data_sources"`
	ReducedConfidence         bool                              `json:"reduced_confidence"`
	ProfileID                 string                            `json:"profile_id,omitempty"`
	Paid                      bool                              `json:"is_paid"`
}

// BuildInput carries everything one report needs. A zero Weights table
// falls back to the documented defaults.
type BuildInput struct {
	Bundle    reading.Bundle
	Profile   profile.Profile
	ProfileID string
	Weights   risk.DomainWeights
}

// Build runs the pipeline end to end: validation, the environmental and
// lifestyle normalizers, the vulnerability adjuster, aggregation,
// recommendations, summary, features. Any validation failure aborts the
// report with a typed error; nothing is defaulted silently.
func Build(in BuildInput) (Report, error) {
	w := in.Weights
	if w.AirOnly == nil && w.AirSoil == nil && w.AirWater == nil && w.Full == nil {
		w = risk.DefaultWeights()
	}

	env, err := risk.EnvironmentalScore(in.Bundle, w)
	if err != nil {
		return Report{}, err
	}
	life, err := risk.LifestyleScore(in.Profile)
	if err != nil {
		return Report{}, err
	}
	vuln, _ := risk.VulnerabilityMultiplier(in.Profile.MedicalHistory, in.Profile.AgeRange)
	a := risk.Aggregate(in.Bundle, env, life, vuln, in.Profile)

	sources := make(map[reading.Domain]reading.Source, len(in.Bundle.Sources))
	for d, s := range in.Bundle.Sources {
		sources[d] = s
	}

	return Report{
		ID:                        uuid.New().String(),
		GeneratedAt:               clock.Now().UTC(),
		Location:                  in.Bundle.Location,
		LocationName:              LocationName(in.Bundle.Location),
		RiskScore:                 a.Score,
		RiskLevel:                 a.Level,
		EnvironmentalRisk:         a.EnvironmentalRisk,
		AdjustedEnvironmentalRisk: a.AdjustedEnvironmentalRisk,
		LifestyleRisk:             a.LifestyleRisk,
		VulnerabilityMultiplier:   a.VulnerabilityMultiplier,
		Factors:                   a.Factors,
		Recommendations:           advice.Generate(in.Bundle, in.Profile),
		Summary:                   Summarize(a),
		Features:                  Featurize(in.Bundle, in.Profile, vuln),
		Sources:                   sources,
		ReducedConfidence:         in.Bundle.Reduced(),
		ProfileID:                 in.ProfileID,
	}, nil
}
