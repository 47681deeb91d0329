// Package scheduler triggers recurring capture cycles.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/snowstake/stakecam/internal/capture"
)

// Scheduler periodically runs a capture cycle over the configured sources.
// Per-source concurrency is owned by the engine; the scheduler only fires
// cycles.
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    *capture.Engine
	sources   []capture.Source
	interval  time.Duration
}

// New creates a new Scheduler.
func New(sources []capture.Source, interval time.Duration, engine *capture.Engine) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		engine:    engine,
		sources:   sources,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.sources) == 0 {
		log.Println("scheduler: no sources configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running capture cycle")

		decisions := s.engine.RunCycle(context.Background(), s.sources)

		kept := 0
		for _, d := range decisions {
			if d.Keep {
				kept++
			}
		}
		log.Printf("scheduler: capture cycle completed: %d evaluated, %d kept", len(decisions), kept)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
