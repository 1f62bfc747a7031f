// Package advice maps readings and questionnaire answers onto a fixed
// table of actionable recommendations.
package advice

import (
	"sort"

	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
)

// Category groups recommendations by the concern they address.
type Category string

const (
	CategoryEnvironmental Category = "environmental"
	CategoryLifestyle     Category = "lifestyle"
	CategoryGeneral       Category = "general"
)

// Priority orders recommendations for presentation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// MaxRecommendations caps one report's list. When more templates
// trigger, the lowest priority goes first, latest-triggered within a
// tier.
const MaxRecommendations = 8

// Recommendation is one actionable suggestion attached to a report.
// The template id stays internal; it exists for deduplication only.
type Recommendation struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`

	id string
}

// Air thresholds above which the air templates trigger.
const (
	aqiMonitorAbove   = 100
	aqiAwarenessAbove = 50
	pm25ReduceAbove   = 25.0
)

// Generate evaluates the template table against the readings and the
// questionnaire. Duplicate template ids collapse to the highest priority
// occurrence. The result is ordered highest priority first, stable by
// trigger order within a tier, and capped at MaxRecommendations. Pure:
// identical inputs produce the identical list.
func Generate(b reading.Bundle, p profile.Profile) []Recommendation {
	var recs []Recommendation
	add := func(r Recommendation) {
		for i := range recs {
			if recs[i].id != r.id {
				continue
			}
			if r.Priority.rank() > recs[i].Priority.rank() {
				recs[i].Priority = r.Priority
				recs[i].Description = r.Description
			}
			return
		}
		recs = append(recs, r)
	}

	if b.Air != nil {
		switch {
		case b.Air.AQI > aqiMonitorAbove:
			add(Recommendation{
				id:          "air-monitor",
				Category:    CategoryEnvironmental,
				Title:       "Monitor Air Quality Daily",
				Description: "Check AQI before outdoor activities. Limit exertion when AQI exceeds 100. Consider air purifiers indoors.",
				Priority:    PriorityHigh,
			})
		case b.Air.AQI > aqiAwarenessAbove:
			add(Recommendation{
				id:          "air-awareness",
				Category:    CategoryEnvironmental,
				Title:       "Air Quality Awareness",
				Description: "Monitor daily air quality and adjust outdoor activities accordingly. Sensitive individuals should be cautious.",
				Priority:    PriorityMedium,
			})
		}
		if b.Air.PM25 > pm25ReduceAbove {
			add(Recommendation{
				id:          "pm25-exposure",
				Category:    CategoryEnvironmental,
				Title:       "Reduce PM2.5 Exposure",
				Description: "Wear N95 masks during high pollution days. Keep windows closed when outdoor AQI is elevated.",
				Priority:    PriorityHigh,
			})
		}
	}

	if b.Soil != nil {
		switch b.Soil.Contamination {
		case reading.LevelMedium:
			add(Recommendation{
				id:          "soil-safety",
				Category:    CategoryEnvironmental,
				Title:       "Soil Safety Precautions",
				Description: "Conduct soil testing before starting edible gardens",
				Priority:    PriorityMedium,
			})
		case reading.LevelHigh:
			add(Recommendation{
				id:          "soil-safety",
				Category:    CategoryEnvironmental,
				Title:       "Soil Safety Precautions",
				Description: "Avoid direct soil contact without protection",
				Priority:    PriorityHigh,
			})
		}
	}

	if b.Water != nil {
		switch b.Water.Contamination {
		case reading.LevelMedium:
			add(Recommendation{
				id:          "water-filter",
				Category:    CategoryEnvironmental,
				Title:       "Filter Drinking Water",
				Description: "Consider a carbon filter for better taste/safety",
				Priority:    PriorityMedium,
			})
		case reading.LevelHigh:
			add(Recommendation{
				id:          "water-advisory",
				Category:    CategoryEnvironmental,
				Title:       "Drinking Water Advisory",
				Description: "Boil water or use bottled water for drinking",
				Priority:    PriorityHigh,
			})
		}
	}

	if p.Smoking == profile.SmokingCurrent {
		add(Recommendation{
			id:          "quit-smoking",
			Category:    CategoryLifestyle,
			Title:       "Quit Smoking",
			Description: "Consider smoking cessation programs - single most impactful health improvement",
			Priority:    PriorityHigh,
		})
	}
	if p.Activity == profile.ActivitySedentary {
		add(Recommendation{
			id:          "increase-activity",
			Category:    CategoryLifestyle,
			Title:       "Increase Physical Activity",
			Description: "Increase physical activity to 150+ minutes weekly - reduces environmental health risks",
			Priority:    PriorityMedium,
		})
	}
	if p.Stress == profile.StressHigh {
		add(Recommendation{
			id:          "manage-stress",
			Category:    CategoryLifestyle,
			Title:       "Manage Stress",
			Description: "Practice stress management techniques - meditation, yoga, or counseling",
			Priority:    PriorityMedium,
		})
	}
	if p.Diet == profile.DietPoor {
		add(Recommendation{
			id:          "improve-diet",
			Category:    CategoryLifestyle,
			Title:       "Improve Diet Quality",
			Description: "Improve diet with more fruits, vegetables, and whole grains",
			Priority:    PriorityMedium,
		})
	}
	if p.Sleep == profile.SleepShort {
		add(Recommendation{
			id:          "sleep-hygiene",
			Category:    CategoryLifestyle,
			Title:       "Improve Sleep Habits",
			Description: "Aim for 7-9 hours of sleep nightly for optimal health",
			Priority:    PriorityMedium,
		})
	}
	if p.Home.Cooking == profile.CookingWood {
		add(Recommendation{
			id:          "indoor-air",
			Category:    CategoryLifestyle,
			Title:       "Improve Indoor Air",
			Description: "Ventilate when cooking with solid fuel. Consider an extractor hood or a cleaner cooking fuel.",
			Priority:    PriorityMedium,
		})
	}

	add(Recommendation{
		id:          "checkups",
		Category:    CategoryGeneral,
		Title:       "Regular Health Checkups",
		Description: "Schedule annual checkups to monitor impact of environmental exposures on your health.",
		Priority:    PriorityMedium,
	})

	// Ordering and capping share one rule: keep by priority, earliest
	// trigger first within a tier. Truncating the sorted list drops the
	// lowest priorities, latest-triggered first.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.rank() > recs[j].Priority.rank()
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}
