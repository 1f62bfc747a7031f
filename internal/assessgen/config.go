package assessgen

import (
	"encoding/json"
	"time"
)

// Config holds configuration for an assessment generation run.
type Config struct {
	BaseURL        string        // Base URL of the service
	NumAssessments int           // Number of assessments to generate
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	Seed           int64         // Seed for deterministic generation
	OutputFile     string        // Output file for generated requests
	LogFile        string        // Log file for run output
	Verbose        bool          // Enable verbose logging
}

// Assessment is one generated report request.
type Assessment struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	RequestID string         `json:"request_id"`
	Lifestyle map[string]any `json:"lifestyle"`
}

// ReportResult is the subset of the report response the verifier needs.
type ReportResult struct {
	ReportID          string             `json:"report_id"`
	RiskScore         float64            `json:"risk_score"`
	RiskLevel         string             `json:"risk_level"`
	EnvironmentalRisk float64            `json:"environmental_risk"`
	LifestyleRisk     float64            `json:"lifestyle_risk"`
	Recommendations   []json.RawMessage  `json:"health_recommendations"`
	Sources           map[string]string  `json:"data_sources"`
	Features          map[string]float64 `json:"feature_vector"`
	ScorePercentile   float64            `json:"score_percentile"`
}

// ServiceStats mirrors the GET /stats body.
type ServiceStats struct {
	Reports          int            `json:"reports"`
	Snapshots        int            `json:"snapshots"`
	ReportsByLevel   map[string]int `json:"reports_by_level"`
	QueueDepth       int            `json:"queue_depth"`
	DroppedSnapshots int64          `json:"dropped_snapshots"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Successful int
	Failed     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
