package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/voralis/envrisk/internal/domain/risk"
	"github.com/voralis/envrisk/pkg/metrics"
)

// pq error code for unique constraint violations.
const pgUniqueViolation = "23505"

// PostgresStore implements the store contracts over database/sql with
// the lib/pq driver. Indexed columns carry the query surface; the full
// report and profile documents live in JSONB payload columns.
type PostgresStore struct {
	db *sql.DB
}

var (
	_ ReportStore   = (*PostgresStore)(nil)
	_ ProfileStore  = (*PostgresStore)(nil)
	_ SnapshotStore = (*PostgresStore)(nil)
)

// NewPostgresStore wraps an already-opened connection pool. Pool sizing
// belongs to the caller, which reads it from configuration.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const op = "repository.EnsureSchema"

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			risk_score DOUBLE PRECISION NOT NULL,
			risk_level TEXT NOT NULL,
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			reduced_confidence BOOLEAN NOT NULL DEFAULT FALSE,
			profile_id TEXT,
			payload JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS reports_risk_score_idx ON reports (risk_score)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			lifestyle_risk DOUBLE PRECISION NOT NULL,
			risk_factors JSONB NOT NULL,
			positive_factors JSONB NOT NULL,
			payload JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS report_snapshots (
			report_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			risk_score DOUBLE PRECISION NOT NULL,
			risk_level TEXT NOT NULL,
			features JSONB NOT NULL,
			sources JSONB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// SaveReport implements ReportStore.
func (s *PostgresStore) SaveReport(ctx context.Context, rec ReportRecord) error {
	const op = "repository.SaveReport"

	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	payload, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports
			(id, created_at, latitude, longitude, risk_score, risk_level, paid, reduced_confidence, profile_id, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.CreatedAt, rec.Latitude, rec.Longitude, rec.RiskScore,
		string(rec.RiskLevel), rec.Paid, rec.ReducedConfidence, nullable(rec.ProfileID), payload,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Report implements ReportStore.
func (s *PostgresStore) Report(ctx context.Context, id string) (ReportRecord, error) {
	const op = "repository.Report"

	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, latitude, longitude, risk_score, risk_level, paid, reduced_confidence, profile_id, payload
		 FROM reports WHERE id = $1`, id)

	rec, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReportRecord{}, ErrNotFound
		}
		return ReportRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// MarkPaid implements ReportStore. The indexed column and the JSONB
// document are updated together so readers of either stay consistent.
func (s *PostgresStore) MarkPaid(ctx context.Context, id string) error {
	const op = "repository.MarkPaid"

	res, err := s.db.ExecContext(ctx,
		`UPDATE reports
		 SET paid = TRUE, payload = jsonb_set(payload, '{is_paid}', 'true')
		 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ScorePercentile implements ReportStore.
func (s *PostgresStore) ScorePercentile(ctx context.Context, score float64) (float64, error) {
	const op = "repository.ScorePercentile"

	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var atOrBelow, total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE risk_score <= $1), COUNT(*) FROM reports`, score,
	).Scan(&atOrBelow, &total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(atOrBelow) / float64(total) * 100, nil
}

// CountReports implements ReportStore.
func (s *PostgresStore) CountReports(ctx context.Context) (int, error) {
	const op = "repository.CountReports"

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ListReports implements ReportStore.
func (s *PostgresStore) ListReports(ctx context.Context, limit, offset int) ([]ReportRecord, error) {
	const op = "repository.ListReports"

	if limit < 1 || offset < 0 {
		return nil, ErrInvalidLimit
	}

	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, latitude, longitude, risk_score, risk_level, paid, reduced_confidence, profile_id, payload
		 FROM reports ORDER BY created_at DESC, id ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]ReportRecord, 0, limit)
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// SaveProfile implements ProfileStore.
func (s *PostgresStore) SaveProfile(ctx context.Context, rec ProfileRecord) error {
	const op = "repository.SaveProfile"

	payload, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", op, err)
	}
	riskFactors, err := json.Marshal(rec.RiskFactors)
	if err != nil {
		return fmt.Errorf("%s: marshal risk factors: %w", op, err)
	}
	positiveFactors, err := json.Marshal(rec.PositiveFactors)
	if err != nil {
		return fmt.Errorf("%s: marshal positive factors: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, created_at, lifestyle_risk, risk_factors, positive_factors, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.CreatedAt, rec.LifestyleRisk, riskFactors, positiveFactors, payload,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Profile implements ProfileStore.
func (s *PostgresStore) Profile(ctx context.Context, id string) (ProfileRecord, error) {
	const op = "repository.Profile"

	var (
		rec             ProfileRecord
		payload         []byte
		riskFactors     []byte
		positiveFactors []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, lifestyle_risk, risk_factors, positive_factors, payload
		 FROM profiles WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.LifestyleRisk, &riskFactors, &positiveFactors, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProfileRecord{}, ErrNotFound
		}
		return ProfileRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(payload, &rec.Profile); err != nil {
		return ProfileRecord{}, fmt.Errorf("%s: unmarshal payload: %w", op, err)
	}
	if err := json.Unmarshal(riskFactors, &rec.RiskFactors); err != nil {
		return ProfileRecord{}, fmt.Errorf("%s: unmarshal risk factors: %w", op, err)
	}
	if err := json.Unmarshal(positiveFactors, &rec.PositiveFactors); err != nil {
		return ProfileRecord{}, fmt.Errorf("%s: unmarshal positive factors: %w", op, err)
	}
	return rec, nil
}

// ArchiveSnapshot implements SnapshotStore.
func (s *PostgresStore) ArchiveSnapshot(ctx context.Context, snap Snapshot) error {
	const op = "repository.ArchiveSnapshot"

	features, err := json.Marshal(snap.Features)
	if err != nil {
		return fmt.Errorf("%s: marshal features: %w", op, err)
	}
	sources, err := json.Marshal(snap.Sources)
	if err != nil {
		return fmt.Errorf("%s: marshal sources: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO report_snapshots (report_id, created_at, risk_score, risk_level, features, sources)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.ReportID, snap.CreatedAt, snap.RiskScore, string(snap.RiskLevel), features, sources,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountSnapshots implements SnapshotStore.
func (s *PostgresStore) CountSnapshots(ctx context.Context) (int, error) {
	const op = "repository.CountSnapshots"

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM report_snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (ReportRecord, error) {
	var (
		rec       ReportRecord
		riskLevel string
		profileID sql.NullString
		payload   []byte
	)
	err := sc.Scan(&rec.ID, &rec.CreatedAt, &rec.Latitude, &rec.Longitude, &rec.RiskScore,
		&riskLevel, &rec.Paid, &rec.ReducedConfidence, &profileID, &payload)
	if err != nil {
		return ReportRecord{}, err
	}
	rec.RiskLevel = risk.RiskLevel(riskLevel)
	if profileID.Valid {
		rec.ProfileID = profileID.String
	}
	if err := json.Unmarshal(payload, &rec.Report); err != nil {
		return ReportRecord{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
