package assessgen

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/voralis/envrisk/pkg/logger"
)

// Questionnaire vocabularies mirrored from the profile domain. Kept as
// plain strings so the generator exercises the service's validation
// path instead of bypassing it.
var (
	ageRanges  = []string{"18-25", "26-35", "36-50", "51-65", "65+"}
	smoking    = []string{"never", "never", "former", "current"}
	activity   = []string{"active", "moderate", "moderate", "sedentary"}
	work       = []string{"indoor", "indoor", "mixed", "outdoor"}
	diet       = []string{"good", "average", "average", "poor"}
	sleep      = []string{">8", "6-8", "6-8", "<6"}
	stress     = []string{"low", "medium", "medium", "high"}
	conditions = []string{"asthma", "allergies", "hypertension", "heart_disease", "copd"}
)

// Rough metro clusters so generated coordinates look like population
// centers rather than uniform noise.
var metros = []struct {
	lat, lon float64
}{
	{40.71, -74.01},  // New York
	{34.05, -118.24}, // Los Angeles
	{51.51, -0.13},   // London
	{48.86, 2.35},    // Paris
	{35.68, 139.69},  // Tokyo
	{28.61, 77.21},   // Delhi
	{-23.55, -46.63}, // Sao Paulo
	{30.04, 31.24},   // Cairo
}

const (
	metroJitter     = 0.5 // degrees of scatter around a metro center
	ruralShare      = 8   // one in N assessments lands far from any metro
	conditionChance = 4   // one in N profiles carries medical history
)

// generateAssessments produces deterministic assessment requests from
// the configured seed.
func generateAssessments(ctx context.Context, config *Config, stats *Stats) ([]Assessment, error) {
	logger.Get().Info(ctx, "generating assessments",
		logger.Int("count", config.NumAssessments),
		logger.Int("seed", int(config.Seed)))

	rnd := rand.New(rand.NewSource(config.Seed))
	out := make([]Assessment, 0, config.NumAssessments)
	for i := 0; i < config.NumAssessments; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		default:
		}
		out = append(out, generateSingleAssessment(rnd))
	}

	stats.Generated = len(out)
	logger.Get().Info(ctx, "generated assessments", logger.Int("count", len(out)))
	return out, nil
}

func generateSingleAssessment(rnd *rand.Rand) Assessment {
	var lat, lon float64
	if rnd.Intn(ruralShare) == 0 {
		lat = rnd.Float64()*160 - 80
		lon = rnd.Float64()*360 - 180
	} else {
		m := metros[rnd.Intn(len(metros))]
		lat = m.lat + (rnd.Float64()*2-1)*metroJitter
		lon = m.lon + (rnd.Float64()*2-1)*metroJitter
	}

	lifestyle := map[string]any{
		"age_range":        pick(rnd, ageRanges),
		"smoking_status":   pick(rnd, smoking),
		"activity_level":   pick(rnd, activity),
		"work_environment": pick(rnd, work),
		"diet_quality":     pick(rnd, diet),
		"sleep_hours":      pick(rnd, sleep),
		"stress_level":     pick(rnd, stress),
	}
	if rnd.Intn(conditionChance) == 0 {
		lifestyle["medical_history"] = []string{pick(rnd, conditions)}
	}

	return Assessment{
		Latitude:  lat,
		Longitude: lon,
		RequestID: uuid.New().String(),
		Lifestyle: lifestyle,
	}
}

func pick(rnd *rand.Rand, values []string) string {
	return values[rnd.Intn(len(values))]
}
