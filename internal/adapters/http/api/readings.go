// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/voralis/envrisk/internal/app"
	"github.com/voralis/envrisk/internal/domain/reading"
)

// ReadingDependencies defines the interface for single-domain reading
// lookups.
type ReadingDependencies interface {
	Reading(ctx context.Context, d reading.Domain, loc reading.Location) (service.DomainReading, error)
}

// ReadingsHandler handles environmental reading requests.
type ReadingsHandler struct {
	deps ReadingDependencies
}

// NewReadingsHandler creates a new readings handler.
func NewReadingsHandler(deps ReadingDependencies) *ReadingsHandler {
	return &ReadingsHandler{deps: deps}
}

type airReadingResponse struct {
	Domain               string             `json:"domain"`
	Location             reading.Location   `json:"location"`
	Source               reading.Source     `json:"source"`
	Reading              reading.AirReading `json:"reading"`
	RiskLevel            string             `json:"risk_level"`
	PrimaryPollutant     string             `json:"primary_pollutant"`
	HealthInterpretation string             `json:"health_interpretation"`
}

type soilReadingResponse struct {
	Domain          string              `json:"domain"`
	Location        reading.Location    `json:"location"`
	Source          reading.Source      `json:"source"`
	Reading         reading.SoilReading `json:"reading"`
	RiskLevel       string              `json:"risk_level"`
	HealthImpacts   []string            `json:"health_impacts"`
	Recommendations []string            `json:"recommendations"`
}

type waterReadingResponse struct {
	Domain          string               `json:"domain"`
	Location        reading.Location     `json:"location"`
	Source          reading.Source       `json:"source"`
	Reading         reading.WaterReading `json:"reading"`
	Implications    []string             `json:"implications"`
	Recommendations []string             `json:"recommendations"`
}

type weatherReadingResponse struct {
	Domain   string                 `json:"domain"`
	Location reading.Location       `json:"location"`
	Source   reading.Source         `json:"source"`
	Reading  reading.WeatherReading `json:"reading"`
}

// HandleGetReading handles GET /readings/{domain}?lat=&lon= requests.
func (h *ReadingsHandler) HandleGetReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/readings/")
	if name == "" || strings.Contains(name, "/") {
		respondError(w, ErrBadRequest)
		return
	}
	domain := reading.Domain(name)
	loc, err := locationFromQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}

	dr, err := h.deps.Reading(r.Context(), domain, loc)
	if err != nil {
		respondError(w, err)
		return
	}

	switch dr.Domain {
	case reading.DomainAir:
		writeJSON(w, http.StatusOK, airReadingResponse{
			Domain:               string(dr.Domain),
			Location:             loc,
			Source:               dr.Source,
			Reading:              *dr.Air,
			RiskLevel:            airRiskLevel(dr.Air.AQI),
			PrimaryPollutant:     dr.Air.PrimaryPollutant(),
			HealthInterpretation: airInterpretation(dr.Air.AQI),
		})
	case reading.DomainSoil:
		writeJSON(w, http.StatusOK, soilReadingResponse{
			Domain:          string(dr.Domain),
			Location:        loc,
			Source:          dr.Source,
			Reading:         *dr.Soil,
			RiskLevel:       string(dr.Soil.Contamination),
			HealthImpacts:   soilImpacts(dr.Soil.Contamination),
			Recommendations: soilRecommendations(dr.Soil.Contamination),
		})
	case reading.DomainWater:
		writeJSON(w, http.StatusOK, waterReadingResponse{
			Domain:          string(dr.Domain),
			Location:        loc,
			Source:          dr.Source,
			Reading:         *dr.Water,
			Implications:    waterImplications(*dr.Water),
			Recommendations: waterRecommendations(dr.Water.Contamination),
		})
	case reading.DomainWeather:
		writeJSON(w, http.StatusOK, weatherReadingResponse{
			Domain:   string(dr.Domain),
			Location: loc,
			Source:   dr.Source,
			Reading:  *dr.Weather,
		})
	default:
		respondError(w, ErrBadRequest)
	}
}

// airRiskLevel buckets an EPA-style AQI into the report risk vocabulary.
func airRiskLevel(aqi int) string {
	switch {
	case aqi <= 50:
		return "low"
	case aqi <= 100:
		return "medium"
	default:
		return "high"
	}
}

func airInterpretation(aqi int) string {
	switch {
	case aqi <= 50:
		return "Air quality is satisfactory and poses little or no health risk."
	case aqi <= 100:
		return "Air quality is acceptable; unusually sensitive people should consider limiting prolonged outdoor exertion."
	case aqi <= 150:
		return "Members of sensitive groups may experience health effects; the general public is less likely to be affected."
	default:
		return "Everyone may begin to experience health effects; sensitive groups should avoid outdoor exertion."
	}
}

func soilImpacts(c reading.Level) []string {
	switch c {
	case reading.LevelHigh:
		return []string{
			"Heavy metal or chemical exposure through homegrown produce and soil contact",
			"Elevated risk for children playing on bare ground",
		}
	case reading.LevelMedium:
		return []string{
			"Possible contaminant uptake in garden vegetables",
		}
	default:
		return []string{"No significant soil-related health impacts expected"}
	}
}

func soilRecommendations(c reading.Level) []string {
	switch c {
	case reading.LevelHigh:
		return []string{
			"Avoid growing edible plants directly in ground soil; use raised beds with imported soil",
			"Wash hands thoroughly after soil contact and keep children away from bare soil",
			"Consider professional soil testing before landscaping work",
		}
	case reading.LevelMedium:
		return []string{
			"Wash homegrown produce carefully before eating",
			"Maintain ground cover to limit dust from exposed soil",
		}
	default:
		return []string{"Soil conditions are suitable for gardening and outdoor activity"}
	}
}

func waterImplications(wr reading.WaterReading) []string {
	out := make([]string, 0, 3)
	switch wr.Contamination {
	case reading.LevelHigh:
		out = append(out, "Water may contain contaminants above recommended limits for regular consumption")
	case reading.LevelMedium:
		out = append(out, "Occasional contaminant presence possible; vulnerable groups should take precautions")
	default:
		out = append(out, "Water quality is within expected limits for daily use")
	}
	if wr.PH < 6.5 || wr.PH > 8.5 {
		out = append(out, "pH outside the typical potable range can affect taste and plumbing corrosion")
	}
	if wr.Hardness == reading.HardnessHard {
		out = append(out, "Hard water may cause scale buildup; no direct health concern")
	}
	return out
}

func waterRecommendations(c reading.Level) []string {
	switch c {
	case reading.LevelHigh:
		return []string{
			"Use a certified filtration system or bottled water for drinking and cooking",
			"Have tap water tested by an accredited laboratory",
		}
	case reading.LevelMedium:
		return []string{
			"Consider a point-of-use filter for drinking water",
			"Flush taps after periods of stagnation",
		}
	default:
		return []string{"No additional treatment needed beyond standard supply"}
	}
}
