package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/voralis/envrisk/pkg/metrics"
)

// MemoryStore is the default, mutex-guarded implementation of
// ReportStore, ProfileStore and SnapshotStore. Reports additionally
// feed an ordered score index so percentile queries stay O(log n).
type MemoryStore struct {
	mu        sync.RWMutex
	reports   map[string]ReportRecord
	profiles  map[string]ProfileRecord
	snapshots []Snapshot
	scores    *scoreIndex
	closed    bool
}

var (
	_ ReportStore   = (*MemoryStore)(nil)
	_ ProfileStore  = (*MemoryStore)(nil)
	_ SnapshotStore = (*MemoryStore)(nil)
)

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		reports:  make(map[string]ReportRecord),
		profiles: make(map[string]ProfileRecord),
		scores:   newScoreIndex(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close marks the store closed. Subsequent writes fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SaveReport implements ReportStore.
func (s *MemoryStore) SaveReport(ctx context.Context, rec ReportRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.reports[rec.ID]; ok {
		return ErrDuplicateID
	}
	s.reports[rec.ID] = rec
	s.scores.Insert(rec.ID, rec.RiskScore)
	metrics.UpdateReportCount(len(s.reports))
	return nil
}

// Report implements ReportStore.
func (s *MemoryStore) Report(ctx context.Context, id string) (ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.reports[id]
	if !ok {
		return ReportRecord{}, ErrNotFound
	}
	return rec, nil
}

// MarkPaid implements ReportStore. The stored record is replaced with
// an updated copy so callers holding earlier reads never observe the
// mutation.
func (s *MemoryStore) MarkPaid(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	rec, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Paid {
		return nil
	}
	rec.Paid = true
	rec.Report.Paid = true
	s.reports[id] = rec
	return nil
}

// ScorePercentile implements ReportStore.
func (s *MemoryStore) ScorePercentile(ctx context.Context, score float64) (float64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()
	return s.scores.Percentile(score), nil
}

// CountReports implements ReportStore.
func (s *MemoryStore) CountReports(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports), nil
}

// ListReports implements ReportStore, newest first with id as the tie
// breaker so pagination is stable.
func (s *MemoryStore) ListReports(ctx context.Context, limit, offset int) ([]ReportRecord, error) {
	if limit < 1 || offset < 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	all := make([]ReportRecord, 0, len(s.reports))
	for _, rec := range s.reports {
		all = append(all, rec)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []ReportRecord{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// SaveProfile implements ProfileStore.
func (s *MemoryStore) SaveProfile(ctx context.Context, rec ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.profiles[rec.ID]; ok {
		return ErrDuplicateID
	}
	s.profiles[rec.ID] = rec
	return nil
}

// Profile implements ProfileStore.
func (s *MemoryStore) Profile(ctx context.Context, id string) (ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.profiles[id]
	if !ok {
		return ProfileRecord{}, ErrNotFound
	}
	return rec, nil
}

// ArchiveSnapshot implements SnapshotStore.
func (s *MemoryStore) ArchiveSnapshot(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.snapshots = append(s.snapshots, snap)
	metrics.UpdateSnapshotCount(len(s.snapshots))
	return nil
}

// CountSnapshots implements SnapshotStore.
func (s *MemoryStore) CountSnapshots(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots), nil
}
