package store

import (
	"errors"
	"testing"
	"time"

	"github.com/snowstake/stakecam/internal/capture"
)

func decisionAt(source string, ts time.Time, keep bool) capture.Decision {
	return capture.Decision{
		Source:    source,
		Keep:      keep,
		Timestamp: ts,
		Filename:  capture.Filename(source, ts),
	}
}

func TestMemoryStoreLatest(t *testing.T) {
	s := NewMemoryStore(10, 0)
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	s.SaveDecision(decisionAt("Alta", base, true))
	s.SaveDecision(decisionAt("Alta", base.Add(15*time.Minute), false))

	latest, err := s.GetLatest("Alta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Keep {
		t.Fatal("expected the most recent decision")
	}

	if _, err := s.GetLatest("Brighton"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown source, got %v", err)
	}
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.SaveDecision(decisionAt("Alta", base.Add(time.Duration(i)*time.Minute), true))
	}

	history, err := s.GetRange("Alta", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected retention to keep 2 decisions, got %d", len(history))
	}
	if !history[0].Timestamp.Equal(base.Add(3 * time.Minute)) {
		t.Fatalf("expected oldest entries evicted, got %v", history[0].Timestamp)
	}
}

func TestMemoryStoreRangeBounds(t *testing.T) {
	s := NewMemoryStore(0, 0)
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	s.SaveDecision(decisionAt("Alta", base, true))
	s.SaveDecision(decisionAt("Alta", base.Add(30*time.Minute), true))
	s.SaveDecision(decisionAt("Alta", base.Add(time.Hour), true))

	history, err := s.GetRange("Alta", base.Add(10*time.Minute), base.Add(40*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 decision in range, got %d", len(history))
	}

	if _, err := s.GetRange("Alta", base.Add(2*time.Hour), base.Add(3*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty range, got %v", err)
	}
}
