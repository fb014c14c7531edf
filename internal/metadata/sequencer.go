package metadata

import "sync"

// Sequencer issues increasing sequence numbers per client so that a preview
// superseded by a newer request can be recognised and dropped.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewSequencer returns an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Begin records a new request for key and returns its number.
func (s *Sequencer) Begin(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key]++
	return s.latest[key]
}

// IsLatest reports whether n is still the newest number issued for key.
func (s *Sequencer) IsLatest(key string, n uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[key] == n
}
