package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
)

// RiskLevel is the categorical tier derived from a 0-100 score.
type RiskLevel string

const (
	LevelLow    RiskLevel = "low"
	LevelMedium RiskLevel = "medium"
	LevelHigh   RiskLevel = "high"
)

// Tier thresholds. Exact: a score of 35 is medium, a score of 65 is high.
const (
	mediumThreshold = 35
	highThreshold   = 65
)

// LevelFor maps a 0-100 score onto its tier.
func LevelFor(score float64) RiskLevel {
	switch {
	case score < mediumThreshold:
		return LevelLow
	case score < highThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// FactorCategory groups contributing factors by origin.
type FactorCategory string

const (
	CategoryEnvironmental FactorCategory = "environmental"
	CategoryLifestyle     FactorCategory = "lifestyle"
	CategoryInteraction   FactorCategory = "interaction"
)

// Impact marks a factor as raising or lowering concern.
type Impact string

const (
	ImpactNegative Impact = "negative"
	ImpactPositive Impact = "positive"
)

// Factor is one explanatory entry justifying part of the score. Severity
// is the tier banding of the originating component's own 0-100 scale.
type Factor struct {
	Category    FactorCategory `json:"category"`
	Description string         `json:"factor"`
	Impact      Impact         `json:"impact"`
	Severity    RiskLevel      `json:"severity"`

	contribution float64
}

// Aggregation split between adjusted environmental and lifestyle risk.
const (
	environmentalShare = 0.6
	lifestyleShare     = 0.4
)

// Factor emission thresholds on weighted contribution points.
const (
	negativeFactorMinPoints = 15
	positiveFactorMaxPoints = 5
)

// Assessment is the deterministic scoring outcome for one readings bundle
// and profile pair.
type Assessment struct {
	Score                     float64
	Level                     RiskLevel
	EnvironmentalRisk         float64
	AdjustedEnvironmentalRisk float64
	LifestyleRisk             float64
	VulnerabilityMultiplier   float64
	Factors                   []Factor
}

// Aggregate combines the sub-scores into the final risk score, tier, and
// ordered contributing factors. The vulnerability multiplier amplifies the
// environmental component only, capped at 100, before the 60/40 blend.
// Inputs are assumed validated; the normalizers validate on entry.
func Aggregate(b reading.Bundle, env Breakdown, life LifestyleBreakdown, vuln float64, p profile.Profile) Assessment {
	adjusted := math.Min(100, env.Environmental*vuln)
	score := clamp(adjusted*environmentalShare + life.Lifestyle*lifestyleShare)

	a := Assessment{
		Score:                     score,
		Level:                     LevelFor(score),
		EnvironmentalRisk:         env.Environmental,
		AdjustedEnvironmentalRisk: adjusted,
		LifestyleRisk:             life.Lifestyle,
		VulnerabilityMultiplier:   vuln,
	}
	a.Factors = buildFactors(b, env, life, adjusted-env.Environmental, p)
	return a
}

// buildFactors emits one entry per component whose weighted contribution
// crosses a threshold: negatives above negativeFactorMinPoints, positives
// at or below positiveFactorMaxPoints when the underlying answer or
// reading is the favorable one. Factors are ordered by descending
// contribution; ties resolve by category, then insertion order.
func buildFactors(b reading.Bundle, env Breakdown, life LifestyleBreakdown, amplification float64, p profile.Profile) []Factor {
	var factors []Factor

	if env.Air != nil && b.Air != nil {
		sub := *env.Air
		contribution := sub * env.Weights[reading.DomainAir]
		severity := LevelFor(sub)
		switch {
		case contribution > negativeFactorMinPoints:
			factors = append(factors, Factor{
				Category:     CategoryEnvironmental,
				Description:  airFactorText(*b.Air, severity),
				Impact:       ImpactNegative,
				Severity:     severity,
				contribution: contribution,
			})
		case contribution <= positiveFactorMaxPoints:
			factors = append(factors, Factor{
				Category:     CategoryEnvironmental,
				Description:  fmt.Sprintf("Good air quality (AQI %d)", b.Air.AQI),
				Impact:       ImpactPositive,
				Severity:     severity,
				contribution: contribution,
			})
		}
	}
	if env.Soil != nil && b.Soil != nil {
		factors = appendContaminationFactor(factors, "soil",
			*env.Soil, env.Weights[reading.DomainSoil], b.Soil.Contamination)
	}
	if env.Water != nil && b.Water != nil {
		factors = appendContaminationFactor(factors, "water",
			*env.Water, env.Weights[reading.DomainWater], b.Water.Contamination)
	}

	for _, c := range life.Contributions {
		severity := LevelFor(c.Points / c.MaxPoints * 100)
		switch {
		case c.Points > negativeFactorMinPoints:
			factors = append(factors, Factor{
				Category:     CategoryLifestyle,
				Description:  c.Description,
				Impact:       ImpactNegative,
				Severity:     severity,
				contribution: c.Points,
			})
		case c.Points <= positiveFactorMaxPoints && c.Favorable:
			factors = append(factors, Factor{
				Category:     CategoryLifestyle,
				Description:  c.Description,
				Impact:       ImpactPositive,
				Severity:     severity,
				contribution: c.Points,
			})
		}
	}

	// Compounding rule: severe air pollution and a respiratory history
	// amplify each other. The contribution is the amplification itself, so
	// the factor ranks by how much compounding actually occurred.
	if env.Air != nil && LevelFor(*env.Air) == LevelHigh && p.HasRespiratoryCondition() {
		factors = append(factors, Factor{
			Category:     CategoryInteraction,
			Description:  "High air pollution compounds existing respiratory conditions",
			Impact:       ImpactNegative,
			Severity:     LevelHigh,
			contribution: amplification,
		})
	}

	sort.SliceStable(factors, func(i, j int) bool {
		if factors[i].contribution != factors[j].contribution {
			return factors[i].contribution > factors[j].contribution
		}
		return categoryRank(factors[i].Category) < categoryRank(factors[j].Category)
	})
	return factors
}

func appendContaminationFactor(factors []Factor, domain string, sub, weight float64, level reading.Level) []Factor {
	contribution := sub * weight
	severity := LevelFor(sub)
	switch {
	case contribution > negativeFactorMinPoints:
		return append(factors, Factor{
			Category:     CategoryEnvironmental,
			Description:  fmt.Sprintf("%s %s contamination risk", capitalize(string(level)), domain),
			Impact:       ImpactNegative,
			Severity:     severity,
			contribution: contribution,
		})
	case contribution <= positiveFactorMaxPoints && level == reading.LevelLow:
		return append(factors, Factor{
			Category:     CategoryEnvironmental,
			Description:  fmt.Sprintf("Low %s contamination risk", domain),
			Impact:       ImpactPositive,
			Severity:     severity,
			contribution: contribution,
		})
	}
	return factors
}

func airFactorText(air reading.AirReading, severity RiskLevel) string {
	switch severity {
	case LevelHigh:
		return fmt.Sprintf("High AQI (%d) - Primary pollutant: %s", air.AQI, air.PrimaryPollutant())
	case LevelMedium:
		return fmt.Sprintf("Moderate AQI (%d)", air.AQI)
	default:
		return fmt.Sprintf("Mildly elevated AQI (%d)", air.AQI)
	}
}

func categoryRank(c FactorCategory) int {
	switch c {
	case CategoryEnvironmental:
		return 0
	case CategoryLifestyle:
		return 1
	default:
		return 2
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
