// Package marketdata holds the latest market snapshot per instrument. Feed
// ingestion is an external collaborator; this package is only the handoff
// point between a feed and the tick scheduler.
package marketdata

import (
	"fmt"
	"sync"
)

// Snapshot is the latest known market state for one instrument.
type Snapshot struct {
	Instrument   string
	Price        float64
	OpenInterest float64
	Features     []float64
	FeatureNames []string
	Timestamp    int64
}

// Source is the scheduler's read-only view. ok is false until the first
// update for the instrument arrives, which is a normal startup condition.
type Source interface {
	Latest(instrument string) (Snapshot, bool)
}

// Store is a concurrency-safe snapshot store with per-instrument monotonic
// timestamps.
type Store struct {
	mu     sync.RWMutex
	latest map[string]Snapshot
}

func NewStore() *Store {
	return &Store{latest: map[string]Snapshot{}}
}

// Update replaces the stored snapshot. Out-of-order updates are rejected:
// tick time is monotonically non-decreasing per instrument.
func (s *Store) Update(snap Snapshot) error {
	if snap.Instrument == "" {
		return fmt.Errorf("snapshot missing instrument")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.latest[snap.Instrument]; ok && snap.Timestamp < prev.Timestamp {
		return fmt.Errorf("out-of-order snapshot for %s: %d < %d", snap.Instrument, snap.Timestamp, prev.Timestamp)
	}
	s.latest[snap.Instrument] = snap
	return nil
}

// Latest returns a copy; the caller may build an immutable frame from it
// without racing later updates.
func (s *Store) Latest(instrument string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.latest[instrument]
	if !ok {
		return Snapshot{}, false
	}
	snap.Features = append([]float64(nil), snap.Features...)
	snap.FeatureNames = append([]string(nil), snap.FeatureNames...)
	return snap, true
}
