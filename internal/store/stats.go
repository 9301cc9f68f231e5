package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/galactic-conflict/internal/kv"
	"github.com/freeeve/galactic-conflict/internal/model"
)

// Lifecycle events counted by the stats service.
const (
	StatGamesCreated   = "gamesCreated"
	StatGamesStarted   = "gamesStarted"
	StatGamesCompleted = "gamesCompleted"
)

const statsAttempts = 2

// StatsService keeps append-only daily counters of game lifecycle events.
// It is off the hot path and best-effort: failures warn and move on.
type StatsService struct {
	kv  kv.Store
	now func() time.Time
}

// NewStatsService creates a stats service.
func NewStatsService(store kv.Store) *StatsService {
	return &StatsService{kv: store, now: time.Now}
}

func statsKey(day time.Time) string {
	return "gc_stats:" + day.UTC().Format("2006-01-02")
}

// Record increments today's counter for the event. Concurrent increments
// are reconciled with a short compare-and-swap loop; on persistent
// contention the increment is dropped with a warning.
func (s *StatsService) Record(ctx context.Context, event string) {
	key := statsKey(s.now())
	var lastErr error
	for i := 0; i < statsAttempts; i++ {
		snapshot, err := s.kv.Get(ctx, key)
		if err != nil {
			lastErr = err
			break
		}

		stats := model.DailyStats{}
		if snapshot != nil {
			if err := json.Unmarshal(snapshot, &stats); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Corrupt daily stats, resetting")
				stats = model.DailyStats{}
			}
		}
		stats[event]++

		data, err := json.Marshal(stats)
		if err != nil {
			lastErr = err
			break
		}
		lastErr = s.kv.CheckAndPut(ctx, key, data, func(current []byte) error {
			if !bytes.Equal(current, snapshot) {
				return fmt.Errorf("stats key changed underneath")
			}
			return nil
		})
		if lastErr == nil {
			return
		}
	}
	log.Warn().Err(lastErr).Str("event", event).Msg("Failed to record stat")
}

// ForDay returns the counters recorded on the given day.
func (s *StatsService) ForDay(ctx context.Context, day time.Time) (model.DailyStats, error) {
	data, err := s.kv.Get(ctx, statsKey(day))
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	stats := model.DailyStats{}
	if data == nil {
		return stats, nil
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	return stats, nil
}
