package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// defaultTickInterval keeps perceived latency under a second per active
// game.
const defaultTickInterval = time.Second

// Scheduler drives the event processor on a fixed interval. Each pass
// ticks every active game in parallel; the processor's per-game locking
// keeps overlapping passes from double-processing a game.
type Scheduler struct {
	processor *EventProcessor
	interval  time.Duration
}

// NewScheduler creates a scheduler. A non-positive interval falls back to
// the default.
func NewScheduler(processor *EventProcessor, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &Scheduler{processor: processor, interval: interval}
}

// Start runs the tick loop until the context is cancelled. Blocking;
// callers run it in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("Game scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Game scheduler stopped")
			return
		case <-ticker.C:
			processed, changed, err := s.processor.ProcessAllGameEvents(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Scheduler pass failed")
				continue
			}
			if changed > 0 {
				log.Debug().Int("processed", processed).Int("changed", changed).
					Msg("Scheduler pass complete")
			}
		}
	}
}
