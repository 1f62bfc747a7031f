package repository

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithIndexSeed seeds the score index's priority source. Tests use a
// fixed seed for reproducible treap shapes.
func WithIndexSeed(seed int64) MemoryOption {
	return func(s *MemoryStore) {
		s.scores = newScoreIndex(seed)
	}
}
