// Package service orchestrates per-game ticks: load the record, advance
// the simulation, persist under the optimistic lock, and broadcast the
// result. Each game is a fault boundary; one failing tick never affects
// the others.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/galactic-conflict/internal/model"
	"github.com/freeeve/galactic-conflict/internal/notifier"
	"github.com/freeeve/galactic-conflict/internal/store"
	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// saveRetries bounds reload-and-retry after a version conflict. After
// exhaustion the tick is abandoned; the next tick picks the game up again.
const saveRetries = 2

// EventProcessor advances games and fans out the resulting updates.
type EventProcessor struct {
	store    *store.GameStore
	rules    galaxy.Rules
	notifier notifier.Notifier
	ai       galaxy.AITurnProcessor
	clock    func() int64 // wall clock in ms, swappable in tests

	// gameLocks serialises processing per game within this process. The
	// scheduler dedupes per game, but a manual admin trigger can overlap
	// a scheduled tick; the optimistic lock covers cross-process races.
	gameLocks sync.Map
}

// NewEventProcessor creates an event processor.
func NewEventProcessor(gs *store.GameStore, rules galaxy.Rules, n notifier.Notifier, ai galaxy.AITurnProcessor) *EventProcessor {
	if n == nil {
		n = notifier.Noop{}
	}
	return &EventProcessor{
		store:    gs,
		rules:    rules,
		notifier: n,
		ai:       ai,
		clock:    func() int64 { return time.Now().UnixMilli() },
	}
}

// stateSnapshot captures the change-detection signals of a state.
type stateSnapshot struct {
	replays        int
	reinforcements int
	conquests      int
	eliminations   int
	armadas        int
	status         galaxy.Status
	endResult      *galaxy.EndResult
	lastUpdateTime int64
}

func snapshotOf(s *galaxy.State) stateSnapshot {
	return stateSnapshot{
		replays:        len(s.RecentBattleReplays),
		reinforcements: len(s.RecentReinforcementEvents),
		conquests:      len(s.RecentConquestEvents),
		eliminations:   len(s.RecentPlayerEliminationEvents),
		armadas:        len(s.Armadas),
		status:         s.Status,
		endResult:      s.EndResult,
		lastUpdateTime: s.LastUpdateTime,
	}
}

// changedSince reports whether the after snapshot differs in any signal:
// grown event buffers, armada count, status, end result (compared by slot,
// draws by identity), or update time.
func (before stateSnapshot) changedSince(after stateSnapshot) bool {
	return after.replays > before.replays ||
		after.reinforcements > before.reinforcements ||
		after.conquests > before.conquests ||
		after.eliminations > before.eliminations ||
		after.armadas != before.armadas ||
		after.status != before.status ||
		!before.endResult.Equal(after.endResult) ||
		after.lastUpdateTime != before.lastUpdateTime
}

// gameLock returns the mutex for a given game id.
func (p *EventProcessor) gameLock(gameID string) *sync.Mutex {
	v, _ := p.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// ProcessGameEvents runs one tick for a game: load, simulate, and if
// anything changed, save under the optimistic lock and broadcast the
// pre-clear state. A version conflict triggers a fresh reload, at most
// saveRetries times. Returns true iff a change was persisted and
// broadcast.
func (p *EventProcessor) ProcessGameEvents(ctx context.Context, gameID string) (bool, error) {
	mu := p.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; attempt <= saveRetries; attempt++ {
		rec, err := p.store.LoadGame(ctx, gameID)
		if err != nil {
			return false, fmt.Errorf("load game: %w", err)
		}
		if rec == nil || rec.Status != galaxy.StatusActive || rec.GameState == nil {
			return false, nil
		}

		expected := rec.LastUpdateAt
		state := rec.GameState
		before := snapshotOf(state)

		// A small buffer past the last update prevents re-processing
		// events minted in the same millisecond as the previous save.
		currentTime := state.LastUpdateTime + p.rules.EventBufferMs
		if now := p.clock(); now > currentTime {
			currentTime = now
		}

		galaxy.ProcessGameState(state, p.rules, currentTime, p.ai)

		if !before.changedSince(snapshotOf(state)) {
			return false, nil
		}

		// The record mirrors the state's lifecycle so the indices and the
		// completion stats stay truthful.
		rec.Status = state.Status

		// Snapshot for broadcast while the buffers are still populated,
		// then clear them so the persisted state never replays an event.
		broadcastState, err := state.Clone()
		if err != nil {
			return false, fmt.Errorf("snapshot state: %w", err)
		}
		state.ClearRecentEvents()

		if err := p.store.SaveGame(ctx, rec, &expected); err != nil {
			if store.IsVersionConflict(err) {
				log.Info().Str("gameId", gameID).Int("attempt", attempt+1).
					Msg("Version conflict, reloading")
				continue
			}
			return false, fmt.Errorf("save game: %w", err)
		}

		// Broadcast strictly after the save succeeded; a cancelled tick
		// must not notify for state it did not persist.
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		p.notifier.GameUpdate(ctx, gameID, broadcastState)

		if rec.Status == galaxy.StatusCompleted {
			log.Info().Str("gameId", gameID).
				Interface("endResult", state.EndResult).Msg("Game completed")
		}
		return true, nil
	}

	log.Warn().Str("gameId", gameID).Int("retries", saveRetries).
		Msg("Version conflicts exhausted retries, dropping tick")
	return false, nil
}

// ProcessAllGameEvents ticks every active game in parallel and returns how
// many were processed and how many changed. Per-game failures are logged
// and do not interrupt the pass.
func (p *EventProcessor) ProcessAllGameEvents(ctx context.Context) (processed, changed int, err error) {
	active, err := p.store.ListGames(ctx, galaxy.StatusActive)
	if err != nil {
		return 0, 0, fmt.Errorf("list active games: %w", err)
	}
	if len(active) == 0 {
		return 0, 0, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, rec := range active {
		wg.Add(1)
		go func(rec model.GameRecord) {
			defer wg.Done()
			didChange, err := p.ProcessGameEvents(ctx, rec.GameID)
			if err != nil {
				log.Error().Err(err).Str("gameId", rec.GameID).Msg("Game tick failed")
				return
			}
			mu.Lock()
			processed++
			if didChange {
				changed++
			}
			mu.Unlock()
		}(rec)
	}
	wg.Wait()
	return processed, changed, nil
}
