// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	snapqueue "github.com/voralis/envrisk/internal/adapters/mq/queue"
	workerpool "github.com/voralis/envrisk/internal/adapters/mq/worker"
	"github.com/voralis/envrisk/internal/adapters/repository"
	"github.com/voralis/envrisk/internal/config"
	"github.com/voralis/envrisk/internal/domain/idempotency"
	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/internal/domain/report"
	"github.com/voralis/envrisk/internal/domain/risk"
	"github.com/voralis/envrisk/pkg/logger"
	"github.com/voralis/envrisk/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize     = 10_000
	defaultWorkerCount   = 4
	defaultMaxExportRows = 1_000
)

// Fetcher assembles reading bundles from the configured providers.
type Fetcher interface {
	Fetch(ctx context.Context, loc reading.Location) (reading.Bundle, error)
	Air(ctx context.Context, loc reading.Location) (*reading.AirReading, reading.Source)
	Soil(ctx context.Context, loc reading.Location) (*reading.SoilReading, reading.Source)
	Water(ctx context.Context, loc reading.Location) (*reading.WaterReading, reading.Source)
	Weather(ctx context.Context, loc reading.Location) (*reading.WeatherReading, reading.Source)
}

// Publisher forwards snapshots to an external analytics sink.
type Publisher interface {
	Publish(ctx context.Context, s repository.Snapshot) error
	Close() error
}

// GenerateInput carries one report request. Exactly one of Profile and
// ProfileID must be set. RequestKey is optional; when present, repeated
// requests with the same key return the first report unchanged.
type GenerateInput struct {
	Location   reading.Location
	Profile    *profile.Profile
	ProfileID  string
	RequestKey string
}

// DomainReading is a single-domain fetch result for the readings
// endpoints. Exactly one of the reading pointers is set, matching
// Domain.
type DomainReading struct {
	Domain  reading.Domain
	Air     *reading.AirReading
	Soil    *reading.SoilReading
	Water   *reading.WaterReading
	Weather *reading.WeatherReading
	Source  reading.Source
}

// Stats is the monitoring surface behind GET /stats.
type Stats struct {
	Started          bool           `json:"started"`
	Reports          int            `json:"reports"`
	Snapshots        int            `json:"snapshots"`
	ReportsByLevel   map[string]int `json:"reports_by_level"`
	QueueDepth       int            `json:"queue_depth"`
	DroppedSnapshots int64          `json:"dropped_snapshots"`
	Workers          int            `json:"workers"`
	UptimeSeconds    float64        `json:"uptime_seconds"`
}

// Service orchestrates report generation: it owns the fetcher, the
// stores, the idempotency index and the write-behind analytics
// pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	fetcher       Fetcher
	reportStore   repository.ReportStore
	profileStore  repository.ProfileStore
	snapshotStore repository.SnapshotStore
	queue         snapqueue.Queue
	pool          *workerpool.Pool
	publisher     Publisher
	requests      idempotency.Index
	clock         clockwork.Clock

	// Configuration
	weights         risk.DomainWeights
	queueSize       int
	workerCount     int
	idempotencySize int
	maxExportRows   int

	// State
	started   bool
	startedAt time.Time
	dropped   atomic.Int64
	levelMu   sync.Mutex
	byLevel   map[risk.RiskLevel]int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig derives sizing and scoring settings from configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		if cfg.Analytics.QueueSize > 0 {
			s.queueSize = cfg.Analytics.QueueSize
		}
		if cfg.Analytics.WorkerCount > 0 {
			s.workerCount = cfg.Analytics.WorkerCount
		}
		if cfg.IdempotencySize > 0 {
			s.idempotencySize = cfg.IdempotencySize
		}
		if cfg.MaxExportRows > 0 {
			s.maxExportRows = cfg.MaxExportRows
		}
		s.weights = risk.DomainWeights{
			AirOnly:  risk.WeightRow(cfg.Scoring.Weights.AirOnly),
			AirSoil:  risk.WeightRow(cfg.Scoring.Weights.AirSoil),
			AirWater: risk.WeightRow(cfg.Scoring.Weights.AirWater),
			Full:     risk.WeightRow(cfg.Scoring.Weights.Full),
		}
	}
}

// WithFetcher sets the reading fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithReportStore sets the report store.
func WithReportStore(r repository.ReportStore) Option {
	return func(s *Service) {
		if r != nil {
			s.reportStore = r
		}
	}
}

// WithProfileStore sets the profile store.
func WithProfileStore(p repository.ProfileStore) Option {
	return func(s *Service) {
		if p != nil {
			s.profileStore = p
		}
	}
}

// WithSnapshotStore sets the snapshot archive.
func WithSnapshotStore(a repository.SnapshotStore) Option {
	return func(s *Service) {
		if a != nil {
			s.snapshotStore = a
		}
	}
}

// WithQueue sets the snapshot queue.
func WithQueue(q snapqueue.Queue) Option {
	return func(s *Service) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithWorkerPool sets a pre-built worker pool.
func WithWorkerPool(p *workerpool.Pool) Option {
	return func(s *Service) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithPublisher sets the analytics publisher. Nil disables publishing.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock swaps the clock used for record timestamps and uptime.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithWeights overrides the domain weight table.
func WithWeights(w risk.DomainWeights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:       defaultQueueSize,
		workerCount:     defaultWorkerCount,
		idempotencySize: idempotency.DefaultCapacity,
		maxExportRows:   defaultMaxExportRows,
		weights:         risk.DefaultWeights(),
		clock:           clockwork.NewRealClock(),
		byLevel:         make(map[risk.RiskLevel]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires up missing components and starts the worker pool.
// Double-start is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting assessment service")

	if s.fetcher == nil {
		return fmt.Errorf("service.Start: no fetcher configured")
	}
	if s.reportStore == nil || s.profileStore == nil || s.snapshotStore == nil {
		store := repository.NewMemoryStore()
		if s.reportStore == nil {
			s.reportStore = store
		}
		if s.profileStore == nil {
			s.profileStore = store
		}
		if s.snapshotStore == nil {
			s.snapshotStore = store
		}
	}
	if s.queue == nil {
		s.queue = snapqueue.NewInMemoryQueue(snapqueue.WithCapacity(s.queueSize))
	}
	s.requests = idempotency.NewIndex(idempotency.WithCapacity(s.idempotencySize))

	if s.pool == nil {
		s.pool = workerpool.NewPool(s.workerCount, s.queue, s.snapshotStore, s.publisher)
	}
	s.pool.Start(ctx)

	s.started = true
	s.startedAt = s.clock.Now()
	s.logger.Info(ctx, "assessment service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("idempotencySize", s.idempotencySize),
	)
	return nil
}

// Stop drains the analytics pipeline and releases components.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping assessment service")

	// Closing the queue first lets the workers drain the buffer.
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Warn(ctx, "publisher close failed", logger.Error(err))
		}
	}
	if closer, ok := s.reportStore.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "assessment service stopped")
}

// SubmitProfile validates and stores a questionnaire, returning the
// stored record with its lifestyle sub-score preview.
func (s *Service) SubmitProfile(ctx context.Context, p profile.Profile) (repository.ProfileRecord, error) {
	const op = "service.SubmitProfile"

	if !s.isStarted() {
		return repository.ProfileRecord{}, ErrNotReady
	}
	if err := p.Validate(); err != nil {
		metrics.RecordValidationError("profile")
		return repository.ProfileRecord{}, err
	}

	bd, err := risk.LifestyleScore(p)
	if err != nil {
		return repository.ProfileRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	rec := repository.ProfileRecord{
		ID:              uuid.New().String(),
		CreatedAt:       s.clock.Now().UTC(),
		Profile:         p,
		LifestyleRisk:   bd.Lifestyle,
		RiskFactors:     bd.RiskFactors,
		PositiveFactors: bd.PositiveFactors,
	}
	if err := s.profileStore.SaveProfile(ctx, rec); err != nil {
		return repository.ProfileRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordProfileSubmitted()
	s.logger.Debug(ctx, "profile submitted",
		logger.String("profileID", rec.ID),
		logger.Float64("lifestyleRisk", rec.LifestyleRisk),
	)
	return rec, nil
}

// Profile returns a stored questionnaire by id.
func (s *Service) Profile(ctx context.Context, id string) (repository.ProfileRecord, error) {
	if !s.isStarted() {
		return repository.ProfileRecord{}, ErrNotReady
	}
	return s.profileStore.Profile(ctx, id)
}

// GenerateReport runs the full assessment pipeline for one request.
func (s *Service) GenerateReport(ctx context.Context, in GenerateInput) (report.Report, error) {
	const op = "service.GenerateReport"

	start := time.Now()
	defer func() {
		metrics.RecordReportLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !s.isStarted() {
		return report.Report{}, ErrNotReady
	}
	if err := in.Location.Validate(); err != nil {
		metrics.RecordValidationError("location")
		return report.Report{}, err
	}

	p, profileID, err := s.resolveProfile(ctx, in)
	if err != nil {
		return report.Report{}, err
	}

	if in.RequestKey != "" {
		if id, ok := s.requests.Lookup(in.RequestKey); ok {
			metrics.RecordDuplicateRequest()
			rec, err := s.reportStore.Report(ctx, id)
			if err != nil {
				return report.Report{}, fmt.Errorf("%s: replay %s: %w", op, id, err)
			}
			s.logger.Debug(ctx, "duplicate request replayed",
				logger.String("requestKey", in.RequestKey),
				logger.String("reportID", id),
			)
			return rec.Report, nil
		}
	}

	bundle, err := s.fetcher.Fetch(ctx, in.Location)
	if err != nil {
		return report.Report{}, fmt.Errorf("%s: fetch readings: %w", op, err)
	}

	rep, err := report.Build(report.BuildInput{
		Bundle:    bundle,
		Profile:   p,
		ProfileID: profileID,
		Weights:   s.weights,
	})
	if err != nil {
		metrics.RecordValidationError("report")
		return report.Report{}, err
	}

	rec := repository.ReportRecord{
		ID:                rep.ID,
		CreatedAt:         rep.GeneratedAt,
		Latitude:          rep.Location.Latitude,
		Longitude:         rep.Location.Longitude,
		RiskScore:         rep.RiskScore,
		RiskLevel:         rep.RiskLevel,
		Paid:              rep.Paid,
		ReducedConfidence: rep.ReducedConfidence,
		ProfileID:         rep.ProfileID,
		Report:            rep,
	}
	if err := s.reportStore.SaveReport(ctx, rec); err != nil {
		return report.Report{}, fmt.Errorf("%s: persist: %w", op, err)
	}

	if in.RequestKey != "" {
		s.requests.Remember(in.RequestKey, rep.ID)
	}

	snap := repository.Snapshot{
		ReportID:  rep.ID,
		CreatedAt: rep.GeneratedAt,
		RiskScore: rep.RiskScore,
		RiskLevel: rep.RiskLevel,
		Features:  rep.Features,
		Sources:   rep.Sources,
	}
	if !s.queue.Enqueue(ctx, snap) {
		// Analytics are best-effort; a full queue never fails the report.
		s.dropped.Add(1)
		s.logger.Warn(ctx, "snapshot dropped, queue full",
			logger.String("reportID", rep.ID),
		)
	}

	metrics.RecordReportGenerated(string(rep.RiskLevel))
	s.countLevel(rep.RiskLevel)
	s.logger.Info(ctx, "report generated",
		logger.String("reportID", rep.ID),
		logger.Float64("riskScore", rep.RiskScore),
		logger.String("riskLevel", string(rep.RiskLevel)),
		logger.Bool("reducedConfidence", rep.ReducedConfidence),
	)
	return rep, nil
}

// resolveProfile applies the inline-xor-stored rule.
func (s *Service) resolveProfile(ctx context.Context, in GenerateInput) (profile.Profile, string, error) {
	switch {
	case in.Profile != nil && in.ProfileID != "":
		return profile.Profile{}, "", ErrProfileConflict
	case in.Profile != nil:
		if err := in.Profile.Validate(); err != nil {
			metrics.RecordValidationError("profile")
			return profile.Profile{}, "", err
		}
		return *in.Profile, "", nil
	case in.ProfileID != "":
		rec, err := s.profileStore.Profile(ctx, in.ProfileID)
		if err != nil {
			return profile.Profile{}, "", err
		}
		return rec.Profile, rec.ID, nil
	default:
		return profile.Profile{}, "", ErrProfileRequired
	}
}

// Report returns a stored report and its current score percentile.
func (s *Service) Report(ctx context.Context, id string) (repository.ReportRecord, float64, error) {
	if !s.isStarted() {
		return repository.ReportRecord{}, 0, ErrNotReady
	}
	rec, err := s.reportStore.Report(ctx, id)
	if err != nil {
		return repository.ReportRecord{}, 0, err
	}
	pct, err := s.reportStore.ScorePercentile(ctx, rec.RiskScore)
	if err != nil {
		return repository.ReportRecord{}, 0, err
	}
	return rec, pct, nil
}

// Percentile ranks a score against all stored reports.
func (s *Service) Percentile(ctx context.Context, score float64) (float64, error) {
	if !s.isStarted() {
		return 0, ErrNotReady
	}
	return s.reportStore.ScorePercentile(ctx, score)
}

// UnlockReport marks a report paid. Repeat calls are no-ops.
func (s *Service) UnlockReport(ctx context.Context, id string) error {
	if !s.isStarted() {
		return ErrNotReady
	}
	if err := s.reportStore.MarkPaid(ctx, id); err != nil {
		return err
	}
	metrics.RecordReportUnlocked()
	return nil
}

// Reading fetches a single domain for the readings endpoints. Disabled
// domains return ErrDomainDisabled.
func (s *Service) Reading(ctx context.Context, d reading.Domain, loc reading.Location) (DomainReading, error) {
	if !s.isStarted() {
		return DomainReading{}, ErrNotReady
	}
	if err := loc.Validate(); err != nil {
		metrics.RecordValidationError("location")
		return DomainReading{}, err
	}

	out := DomainReading{Domain: d}
	switch d {
	case reading.DomainAir:
		out.Air, out.Source = s.fetcher.Air(ctx, loc)
		if out.Air == nil {
			return DomainReading{}, ErrDomainDisabled
		}
	case reading.DomainSoil:
		out.Soil, out.Source = s.fetcher.Soil(ctx, loc)
		if out.Soil == nil {
			return DomainReading{}, ErrDomainDisabled
		}
	case reading.DomainWater:
		out.Water, out.Source = s.fetcher.Water(ctx, loc)
		if out.Water == nil {
			return DomainReading{}, ErrDomainDisabled
		}
	case reading.DomainWeather:
		out.Weather, out.Source = s.fetcher.Weather(ctx, loc)
		if out.Weather == nil {
			return DomainReading{}, ErrDomainDisabled
		}
	default:
		return DomainReading{}, &reading.InvalidEnumError{Field: "domain", Value: string(d)}
	}
	return out, nil
}

// ExportReports returns up to limit recent reports for the xlsx export,
// clamped by the configured maximum.
func (s *Service) ExportReports(ctx context.Context, limit int) ([]repository.ReportRecord, error) {
	if !s.isStarted() {
		return nil, ErrNotReady
	}
	if limit < 1 || limit > s.maxExportRows {
		limit = s.maxExportRows
	}
	return s.reportStore.ListReports(ctx, limit, 0)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:          s.started,
		Workers:          s.workerCount,
		DroppedSnapshots: s.dropped.Load(),
		ReportsByLevel:   s.levelCounts(),
	}
	if !s.started {
		return st
	}

	st.UptimeSeconds = s.clock.Since(s.startedAt).Seconds()
	st.QueueDepth = s.queue.Len(ctx)
	if n, err := s.reportStore.CountReports(ctx); err == nil {
		st.Reports = n
	}
	if n, err := s.snapshotStore.CountSnapshots(ctx); err == nil {
		st.Snapshots = n
	}

	metrics.UpdateQueueSize(st.QueueDepth)
	metrics.UpdateWorkerCount(s.workerCount)
	metrics.UpdateReportCount(st.Reports)
	metrics.UpdateSnapshotCount(st.Snapshots)
	metrics.UpdateUptime(st.UptimeSeconds)

	return st
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) countLevel(l risk.RiskLevel) {
	s.levelMu.Lock()
	defer s.levelMu.Unlock()
	s.byLevel[l]++
}

func (s *Service) levelCounts() map[string]int {
	s.levelMu.Lock()
	defer s.levelMu.Unlock()
	out := make(map[string]int, len(s.byLevel))
	for l, n := range s.byLevel {
		out[string(l)] = n
	}
	return out
}
