// Package reading defines environmental observation types shared across layers.
// Readings are value objects: constructed once by a provider, validated, and
// never mutated afterwards.
package reading

import (
	"fmt"
	"math"
	"time"
)

// Domain identifies one environmental observation family.
type Domain string

// Known reading domains.
const (
	DomainAir     Domain = "air"
	DomainSoil    Domain = "soil"
	DomainWater   Domain = "water"
	DomainWeather Domain = "weather"
)

// Domains returns every domain in canonical order.
func Domains() []Domain {
	return []Domain{DomainAir, DomainSoil, DomainWater, DomainWeather}
}

// Known reports whether d is a recognized domain.
func (d Domain) Known() bool {
	switch d {
	case DomainAir, DomainSoil, DomainWater, DomainWeather:
		return true
	}
	return false
}

// Source records where a reading came from. Every reading in a Bundle
// carries one; mock substitution is visible, never silent.
type Source string

const (
	SourceLive Source = "live"
	SourceMock Source = "mock"
)

// Level grades contamination severity.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Known reports whether l is a recognized contamination level.
func (l Level) Known() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Levels returns the contamination vocabulary in ascending severity.
func Levels() []Level {
	return []Level{LevelLow, LevelMedium, LevelHigh}
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate bounds-checks the coordinates. NaN and infinities are rejected.
func (l Location) Validate() error {
	if !inRange(l.Latitude, -90, 90) {
		return &OutOfRangeError{Field: "latitude", Value: l.Latitude, Min: -90, Max: 90}
	}
	if !inRange(l.Longitude, -180, 180) {
		return &OutOfRangeError{Field: "longitude", Value: l.Longitude, Min: -180, Max: 180}
	}
	return nil
}

// maxAQI is the top of the EPA Air Quality Index scale.
const maxAQI = 500

// AirReading is an air quality observation on the EPA 0-500 AQI scale.
// Concentrations are ug/m3 except CO, which is mg/m3.
type AirReading struct {
	AQI  int     `json:"aqi"`
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	CO   float64 `json:"co"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	O3   float64 `json:"o3"`
}

// Validate bounds-checks the AQI and rejects negative concentrations.
func (a AirReading) Validate() error {
	if a.AQI < 0 || a.AQI > maxAQI {
		return &OutOfRangeError{Field: "aqi", Value: float64(a.AQI), Min: 0, Max: maxAQI}
	}
	concentrations := []struct {
		field string
		value float64
	}{
		{"pm25", a.PM25},
		{"pm10", a.PM10},
		{"co", a.CO},
		{"no2", a.NO2},
		{"so2", a.SO2},
		{"o3", a.O3},
	}
	for _, c := range concentrations {
		if math.IsNaN(c.value) || c.value < 0 {
			return &OutOfRangeError{Field: c.field, Value: c.value, Min: 0, Max: math.Inf(1)}
		}
	}
	return nil
}

// pollutantBreakpoints are the EPA concentration breakpoints used to rank
// pollutants on a common scale. Order doubles as the tie-break order.
var pollutantBreakpoints = []struct {
	name       string
	breakpoint float64
}{
	{"PM2.5", 35.4},
	{"PM10", 154},
	{"CO", 9.4},
	{"NO2", 100},
	{"SO2", 75},
	{"O3", 70},
}

// PrimaryPollutant names the pollutant with the highest concentration
// relative to its EPA breakpoint. Ties resolve to the earlier entry in
// breakpoint order.
func (a AirReading) PrimaryPollutant() string {
	values := []float64{a.PM25, a.PM10, a.CO, a.NO2, a.SO2, a.O3}
	best := 0
	bestRatio := values[0] / pollutantBreakpoints[0].breakpoint
	for i := 1; i < len(values); i++ {
		if ratio := values[i] / pollutantBreakpoints[i].breakpoint; ratio > bestRatio {
			best, bestRatio = i, ratio
		}
	}
	return pollutantBreakpoints[best].name
}

// SoilType classifies soil composition.
type SoilType string

const (
	SoilClay  SoilType = "clay"
	SoilSandy SoilType = "sandy"
	SoilLoam  SoilType = "loam"
	SoilSilt  SoilType = "silt"
)

// Known reports whether t is a recognized soil type.
func (t SoilType) Known() bool {
	switch t {
	case SoilClay, SoilSandy, SoilLoam, SoilSilt:
		return true
	}
	return false
}

// SoilReading is a soil composition and contamination observation.
type SoilReading struct {
	Type          SoilType `json:"soil_type"`
	PH            float64  `json:"ph"`
	OrganicMatter float64  `json:"organic_matter"`
	Contamination Level    `json:"contamination_risk"`
}

// Validate checks the vocabulary fields and numeric bounds.
func (s SoilReading) Validate() error {
	if !s.Type.Known() {
		return &InvalidEnumError{
			Field:   "soil_type",
			Value:   string(s.Type),
			Allowed: []string{string(SoilClay), string(SoilSandy), string(SoilLoam), string(SoilSilt)},
		}
	}
	if !inRange(s.PH, 0, 14) {
		return &OutOfRangeError{Field: "ph", Value: s.PH, Min: 0, Max: 14}
	}
	if math.IsNaN(s.OrganicMatter) || s.OrganicMatter < 0 {
		return &OutOfRangeError{Field: "organic_matter", Value: s.OrganicMatter, Min: 0, Max: math.Inf(1)}
	}
	if !s.Contamination.Known() {
		return &InvalidEnumError{
			Field:   "contamination_risk",
			Value:   string(s.Contamination),
			Allowed: levelStrings(),
		}
	}
	return nil
}

// WaterSource classifies where drinking water originates.
type WaterSource string

const (
	WaterMunicipal   WaterSource = "municipal_supply"
	WaterGroundwater WaterSource = "groundwater"
	WaterSurface     WaterSource = "surface_water"
)

// Known reports whether s is a recognized water source.
func (s WaterSource) Known() bool {
	switch s {
	case WaterMunicipal, WaterGroundwater, WaterSurface:
		return true
	}
	return false
}

// Hardness grades dissolved mineral content.
type Hardness string

const (
	HardnessSoft     Hardness = "soft"
	HardnessModerate Hardness = "moderate"
	HardnessHard     Hardness = "hard"
)

// Known reports whether h is a recognized hardness grade.
func (h Hardness) Known() bool {
	switch h {
	case HardnessSoft, HardnessModerate, HardnessHard:
		return true
	}
	return false
}

// WaterReading is a drinking water quality observation.
type WaterReading struct {
	SourceType    WaterSource `json:"source_type"`
	PH            float64     `json:"ph"`
	Hardness      Hardness    `json:"hardness"`
	Contamination Level       `json:"contamination_risk"`
}

// Validate checks the vocabulary fields and numeric bounds.
func (w WaterReading) Validate() error {
	if !w.SourceType.Known() {
		return &InvalidEnumError{
			Field:   "source_type",
			Value:   string(w.SourceType),
			Allowed: []string{string(WaterMunicipal), string(WaterGroundwater), string(WaterSurface)},
		}
	}
	if !inRange(w.PH, 0, 14) {
		return &OutOfRangeError{Field: "ph", Value: w.PH, Min: 0, Max: 14}
	}
	if !w.Hardness.Known() {
		return &InvalidEnumError{
			Field:   "hardness",
			Value:   string(w.Hardness),
			Allowed: []string{string(HardnessSoft), string(HardnessModerate), string(HardnessHard)},
		}
	}
	if !w.Contamination.Known() {
		return &InvalidEnumError{
			Field:   "contamination_risk",
			Value:   string(w.Contamination),
			Allowed: levelStrings(),
		}
	}
	return nil
}

// WeatherReading is an atmospheric conditions observation. Weather never
// feeds the risk score; it is served as context alongside assessments.
type WeatherReading struct {
	TemperatureC  float64 `json:"temperature"`
	FeelsLikeC    float64 `json:"feels_like"`
	Humidity      int     `json:"humidity"`
	PressureHPa   int     `json:"pressure"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection int     `json:"wind_direction"`
	Condition     string  `json:"weather_condition"`
	Description   string  `json:"weather_description"`
	CloudCover    int     `json:"clouds"`
	VisibilityM   int     `json:"visibility"`
}

// Validate checks percentage and distance bounds.
func (w WeatherReading) Validate() error {
	if w.Humidity < 0 || w.Humidity > 100 {
		return &OutOfRangeError{Field: "humidity", Value: float64(w.Humidity), Min: 0, Max: 100}
	}
	if w.CloudCover < 0 || w.CloudCover > 100 {
		return &OutOfRangeError{Field: "clouds", Value: float64(w.CloudCover), Min: 0, Max: 100}
	}
	if w.VisibilityM < 0 {
		return &OutOfRangeError{Field: "visibility", Value: float64(w.VisibilityM), Min: 0, Max: math.Inf(1)}
	}
	return nil
}

// Bundle is the per-request set of readings for one location. Optional
// domains are nil when absent; Sources records provenance for every
// reading present.
type Bundle struct {
	Location   Location          `json:"location"`
	Air        *AirReading       `json:"air,omitempty"`
	Soil       *SoilReading      `json:"soil,omitempty"`
	Water      *WaterReading     `json:"water,omitempty"`
	Weather    *WeatherReading   `json:"weather,omitempty"`
	Sources    map[Domain]Source `json:"sources"`
	CapturedAt time.Time         `json:"captured_at"`
}

// Present lists the domains with a reading, in canonical order.
func (b Bundle) Present() []Domain {
	var out []Domain
	if b.Air != nil {
		out = append(out, DomainAir)
	}
	if b.Soil != nil {
		out = append(out, DomainSoil)
	}
	if b.Water != nil {
		out = append(out, DomainWater)
	}
	if b.Weather != nil {
		out = append(out, DomainWeather)
	}
	return out
}

// Reduced reports whether any present reading was mock-substituted.
func (b Bundle) Reduced() bool {
	for _, d := range b.Present() {
		if b.Sources[d] == SourceMock {
			return true
		}
	}
	return false
}

// Validate checks the location, every present reading, and that each
// present reading has a provenance entry.
func (b Bundle) Validate() error {
	if err := b.Location.Validate(); err != nil {
		return err
	}
	if b.Air != nil {
		if err := b.Air.Validate(); err != nil {
			return err
		}
	}
	if b.Soil != nil {
		if err := b.Soil.Validate(); err != nil {
			return err
		}
	}
	if b.Water != nil {
		if err := b.Water.Validate(); err != nil {
			return err
		}
	}
	if b.Weather != nil {
		if err := b.Weather.Validate(); err != nil {
			return err
		}
	}
	for _, d := range b.Present() {
		if _, ok := b.Sources[d]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingSource, d)
		}
	}
	return nil
}

func inRange(v, min, max float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= min && v <= max
}

func levelStrings() []string {
	return []string{string(LevelLow), string(LevelMedium), string(LevelHigh)}
}
