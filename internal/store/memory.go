// Package store keeps per-source decision history in memory for the status
// API. It is observability state only: the engine itself is stateless and
// never reads decisions back.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/snowstake/stakecam/internal/capture"
)

// ErrNotFound is returned when no decisions exist for a source.
var ErrNotFound = errors.New("no decisions for source")

// DecisionHistory holds a time-ordered list of decisions for one source.
type DecisionHistory struct {
	Decisions []capture.Decision
}

// MemoryStore is a concurrency-safe in-memory decision store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: source name, value: history
	data map[string]*DecisionHistory

	// retention configuration
	maxHistory int           // max number of decisions per source
	maxAge     time.Duration // optional max age for decisions
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*DecisionHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveDecision appends a decision for its source and enforces retention.
func (s *MemoryStore) SaveDecision(d capture.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[d.Source]
	if !ok {
		history = &DecisionHistory{}
		s.data[d.Source] = history
	}

	history.Decisions = append(history.Decisions, d)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Decisions) > s.maxHistory {
		over := len(history.Decisions) - s.maxHistory
		history.Decisions = history.Decisions[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Decisions); i++ {
			if !history.Decisions[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.Decisions) {
			history.Decisions = history.Decisions[i:]
		}
	}
}

// GetLatest returns the most recent decision for a source.
func (s *MemoryStore) GetLatest(source string) (capture.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[source]
	if !ok || len(history.Decisions) == 0 {
		return capture.Decision{}, ErrNotFound
	}
	return history.Decisions[len(history.Decisions)-1], nil
}

// GetRange returns all decisions for a source between from and to (inclusive).
func (s *MemoryStore) GetRange(source string, from, to time.Time) ([]capture.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[source]
	if !ok || len(history.Decisions) == 0 {
		return nil, ErrNotFound
	}

	var result []capture.Decision
	for _, d := range history.Decisions {
		if !d.Timestamp.Before(from) && !d.Timestamp.After(to) {
			result = append(result, d)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
