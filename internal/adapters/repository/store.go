// Package repository defines the persistence contracts for reports,
// profiles and analytics snapshots, plus the in-memory and Postgres
// implementations.
package repository

import (
	"context"
	"time"

	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/internal/domain/report"
	"github.com/voralis/envrisk/internal/domain/risk"
)

// ReportRecord is a stored report plus the columns queries index on.
type ReportRecord struct {
	ID                string
	CreatedAt         time.Time
	Latitude          float64
	Longitude         float64
	RiskScore         float64
	RiskLevel         risk.RiskLevel
	Paid              bool
	ReducedConfidence bool
	ProfileID         string
	Report            report.Report
}

// ProfileRecord is a stored questionnaire plus the lifestyle preview
// computed at submission time.
type ProfileRecord struct {
	ID              string
	CreatedAt       time.Time
	Profile         profile.Profile
	LifestyleRisk   float64
	RiskFactors     []string
	PositiveFactors []string
}

// Snapshot is the analytics row archived for every generated report.
type Snapshot struct {
	ReportID  string                            `json:"report_id"`
	CreatedAt time.Time                         `json:"created_at"`
	RiskScore float64                           `json:"risk_score"`
	RiskLevel risk.RiskLevel                    `json:"risk_level"`
	Features  report.FeatureVector              `json:"features"`
	Sources   map[reading.Domain]reading.Source `json:"sources"`
}

// ReportStore persists generated reports and answers score queries.
type ReportStore interface {
	// SaveReport stores a new report. Returns ErrDuplicateID when the
	// id is already present.
	SaveReport(ctx context.Context, rec ReportRecord) error
	// Report returns the record for an id, or ErrNotFound.
	Report(ctx context.Context, id string) (ReportRecord, error)
	// MarkPaid flips the paid flag. Idempotent; ErrNotFound when the
	// id is unknown.
	MarkPaid(ctx context.Context, id string) error
	// ScorePercentile returns the percentage of stored reports whose
	// risk score is less than or equal to score. Zero when empty.
	ScorePercentile(ctx context.Context, score float64) (float64, error)
	// CountReports returns the number of stored reports.
	CountReports(ctx context.Context) (int, error)
	// ListReports returns up to limit records, newest first.
	ListReports(ctx context.Context, limit, offset int) ([]ReportRecord, error)
}

// ProfileStore persists submitted lifestyle questionnaires.
type ProfileStore interface {
	SaveProfile(ctx context.Context, rec ProfileRecord) error
	// Profile returns the record for an id, or ErrNotFound.
	Profile(ctx context.Context, id string) (ProfileRecord, error)
}

// SnapshotStore archives analytics snapshots written behind report
// generation.
type SnapshotStore interface {
	ArchiveSnapshot(ctx context.Context, s Snapshot) error
	CountSnapshots(ctx context.Context) (int, error)
}
