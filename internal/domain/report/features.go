package report

import (
	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
)

// FeatureSchemaVersion identifies the feature vector layout, stored under
// the schema_version key. Key meanings never change within a version;
// additions bump it.
const FeatureSchemaVersion = 1

// FeatureVector is the flat numeric encoding of one assessment's inputs,
// persisted for later model training.
type FeatureVector map[string]float64

var (
	contaminationCodes = map[reading.Level]float64{
		reading.LevelLow:    1,
		reading.LevelMedium: 2,
		reading.LevelHigh:   3,
	}
	smokingCodes = map[profile.Smoking]float64{
		profile.SmokingNever:   0,
		profile.SmokingFormer:  1,
		profile.SmokingCurrent: 2,
	}
	activityCodes = map[profile.Activity]float64{
		profile.ActivitySedentary: 0,
		profile.ActivityModerate:  1,
		profile.ActivityActive:    2,
	}
	workCodes = map[profile.WorkEnvironment]float64{
		profile.WorkIndoor:  0,
		profile.WorkMixed:   1,
		profile.WorkOutdoor: 2,
	}
)

// Featurize encodes readings and questionnaire answers numerically. The
// air reading must be present; optional domains contribute their keys
// only when present.
func Featurize(b reading.Bundle, p profile.Profile, vuln float64) FeatureVector {
	f := FeatureVector{
		"schema_version": FeatureSchemaVersion,

		"aqi":  float64(b.Air.AQI),
		"pm25": b.Air.PM25,
		"pm10": b.Air.PM10,
		"co":   b.Air.CO,
		"no2":  b.Air.NO2,
		"so2":  b.Air.SO2,
		"o3":   b.Air.O3,

		"smoking":               smokingCodes[p.Smoking],
		"activity":              activityCodes[p.Activity],
		"work_outdoor_exposure": workCodes[p.Work],

		"vulnerability_multiplier": vuln,
	}

	if b.Soil != nil {
		f["soil_ph"] = b.Soil.PH
		f["soil_contamination"] = contaminationCodes[b.Soil.Contamination]
	}
	if b.Water != nil {
		f["water_contamination"] = contaminationCodes[b.Water.Contamination]
	}
	if b.Weather != nil {
		f["temperature_c"] = b.Weather.TemperatureC
		f["humidity"] = float64(b.Weather.Humidity)
	}

	return f
}
