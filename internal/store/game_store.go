// Package store implements typed persistence of game records on top of the
// abstract KV contract: optimistic-locked saves, the open/active index
// caches, and the daily stats counters.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/galactic-conflict/internal/kv"
	"github.com/freeeve/galactic-conflict/internal/model"
	"github.com/freeeve/galactic-conflict/internal/notifier"
	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

const gameKeyPrefix = "gc_game:"

func gameKey(gameID string) string { return gameKeyPrefix + gameID }

/// VersionConflictError reports an optimistic-lock failure: the stored
// record's version token no longer matches the one the caller loaded.
type VersionConflictError struct {
	Expected int64
	Actual   int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected lastUpdateAt %d, stored %d", e.Expected, e.Actual)
}

// IsVersionConflict reports whether err is an optimistic-lock failure.
func IsVersionConflict(err error) bool {
	var vc *VersionConflictError
	return errors.As(err, &vc)
}

// SlotRejection is a non-exceptional refusal of a player-slot operation:
// the game was full, already started, and so on.
type SlotRejection struct {
	Reason string
}

// GameStore persists game records with optimistic locking and keeps the
// derived indices and stats in step.
type GameStore struct {
	kv       kv.Store
	rules    galaxy.Rules
	cache    *CacheCoordinator
	stats    *StatsService
	notifier notifier.Notifier
	now      func() time.Time
}

// NewGameStore creates a game store over the given KV adapter.
func NewGameStore(store kv.Store, rules galaxy.Rules, n notifier.Notifier) *GameStore {
	if n == nil {
		n = notifier.Noop{}
	}
	return &GameStore{
		kv:       store,
		rules:    rules,
		cache:    NewCacheCoordinator(store),
		stats:    NewStatsService(store),
		notifier: n,
		now:      time.Now,
	}
}

// Cache exposes the index coordinator, mostly for tests.
func (s *GameStore) Cache() *CacheCoordinator { return s.cache }

// Stats exposes the stats service.
func (s *GameStore) Stats() *StatsService { return s.stats }

// LoadGame returns the record for a game, or nil when absent.
func (s *GameStore) LoadGame(ctx context.Context, gameID string) (*model.GameRecord, error) {
	data, err := s.kv.Get(ctx, gameKey(gameID))
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	if data == nil {
		return nil, nil
	}
	var rec model.GameRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal game %s: %w", gameID, err)
	}
	return &rec, nil
}

// SaveGame persists the record. When expectedLastUpdateAt is non-nil the
// write succeeds only if the stored version token still matches; otherwise
// it fails with a VersionConflictError carrying the stored token. On
// success the record's LastUpdateAt advances (strictly, so the persisted
// sequence of tokens never repeats) and the index caches are updated.
func (s *GameStore) SaveGame(ctx context.Context, rec *model.GameRecord, expectedLastUpdateAt *int64) error {
	next := s.now().UnixMilli()
	if next <= rec.LastUpdateAt {
		next = rec.LastUpdateAt + 1
	}
	previous := rec.LastUpdateAt
	rec.LastUpdateAt = next

	data, err := json.Marshal(rec)
	if err != nil {
		rec.LastUpdateAt = previous
		return fmt.Errorf("marshal game %s: %w", rec.GameID, err)
	}

	var previousStatus galaxy.Status
	err = s.kv.CheckAndPut(ctx, gameKey(rec.GameID), data, func(current []byte) error {
		if current == nil {
			return nil
		}
		var stored struct {
			Status       galaxy.Status `json:"status"`
			LastUpdateAt int64         `json:"lastUpdateAt"`
		}
		if err := json.Unmarshal(current, &stored); err != nil {
			return fmt.Errorf("unmarshal stored game %s: %w", rec.GameID, err)
		}
		previousStatus = stored.Status
		if expectedLastUpdateAt != nil && stored.LastUpdateAt != *expectedLastUpdateAt {
			return &VersionConflictError{Expected: *expectedLastUpdateAt, Actual: stored.LastUpdateAt}
		}
		return nil
	})
	if err != nil {
		rec.LastUpdateAt = previous
		if IsVersionConflict(err) {
			return err
		}
		return fmt.Errorf("save game %s: %w", rec.GameID, err)
	}

	s.cache.OnGameSaved(ctx, rec, previousStatus)
	if rec.Status == galaxy.StatusCompleted && previousStatus != galaxy.StatusCompleted {
		s.stats.Record(ctx, StatGamesCompleted)
	}
	return nil
}

// DeleteGame removes the record and its index entries.
func (s *GameStore) DeleteGame(ctx context.Context, gameID string) error {
	if err := s.kv.Delete(ctx, gameKey(gameID)); err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	s.cache.OnGameDeleted(ctx, gameID)
	return nil
}

// ListGames returns records filtered by status; an empty status lists all.
// PENDING and ACTIVE listings serve from the index caches when present,
// falling back to a full prefix scan that also rebuilds the cache. Stale
// active-index entries are purged lazily here.
func (s *GameStore) ListGames(ctx context.Context, status galaxy.Status) ([]model.GameRecord, error) {
	switch status {
	case galaxy.StatusPending:
		if idx, err := s.cache.OpenIndex(ctx); err == nil && idx != nil {
			return s.loadByStatus(ctx, openIndexIDs(idx), galaxy.StatusPending)
		}
	case galaxy.StatusActive:
		if idx, err := s.cache.ActiveIndex(ctx); err == nil && idx != nil {
			return s.loadByStatus(ctx, idx.GameIDs, galaxy.StatusActive)
		}
	}
	return s.scanGames(ctx, status)
}

func openIndexIDs(idx *model.OpenGamesIndex) []string {
	ids := make([]string, 0, len(idx.Games))
	for _, g := range idx.Games {
		ids = append(ids, g.GameID)
	}
	return ids
}

// loadByStatus loads records by id and drops entries that no longer match
// the status, purging them from the relevant index.
func (s *GameStore) loadByStatus(ctx context.Context, ids []string, status galaxy.Status) ([]model.GameRecord, error) {
	var out []model.GameRecord
	for _, id := range ids {
		rec, err := s.LoadGame(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.Status != status {
			log.Debug().Str("gameId", id).Str("status", string(status)).Msg("Stale index entry, purging")
			if status == galaxy.StatusActive {
				s.cache.RemoveActive(ctx, id)
			} else {
				s.cache.removeOpen(ctx, id)
			}
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// scanGames walks every game key, filters by status, and rebuilds the
// relevant index cache from what it found.
func (s *GameStore) scanGames(ctx context.Context, status galaxy.Status) ([]model.GameRecord, error) {
	keys, err := s.kv.Keys(ctx, gameKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan games: %w", err)
	}

	var out []model.GameRecord
	openIdx := &model.OpenGamesIndex{}
	activeIdx := &model.ActiveGamesIndex{}
	for _, key := range keys {
		data, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("scan games: %w", err)
		}
		if data == nil {
			continue
		}
		var rec model.GameRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Corrupt game record in scan, skipping")
			continue
		}
		switch rec.Status {
		case galaxy.StatusPending:
			openIdx.Games = append(openIdx.Games, model.SummaryOf(&rec))
		case galaxy.StatusActive:
			activeIdx.GameIDs = append(activeIdx.GameIDs, rec.GameID)
		}
		if status == "" || rec.Status == status {
			out = append(out, rec)
		}
	}

	switch status {
	case galaxy.StatusPending:
		s.cache.PutOpenIndex(ctx, openIdx)
	case galaxy.StatusActive:
		s.cache.PutActiveIndex(ctx, activeIdx)
	case "":
		s.cache.PutOpenIndex(ctx, openIdx)
		s.cache.PutActiveIndex(ctx, activeIdx)
	}
	return out, nil
}

// GetOpenGames lists joinable pending games: stale ones (older than the
// configured timeout) are deleted on the way, and only games with at least
// one open slot are returned.
func (s *GameStore) GetOpenGames(ctx context.Context) ([]model.GameRecord, error) {
	pending, err := s.ListGames(ctx, galaxy.StatusPending)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().UnixMilli() - s.rules.StaleGameTimeoutMs
	var out []model.GameRecord
	for _, rec := range pending {
		if rec.CreatedAt < cutoff {
			log.Info().Str("gameId", rec.GameID).Int64("createdAt", rec.CreatedAt).
				Msg("Deleting stale pending game")
			if err := s.DeleteGame(ctx, rec.GameID); err != nil {
				log.Warn().Err(err).Str("gameId", rec.GameID).Msg("Stale game delete failed")
			}
			continue
		}
		if rec.PendingConfig == nil || rec.PendingConfig.OpenSlotCount() == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// CreateGame persists a new PENDING record from a pending configuration.
func (s *GameStore) CreateGame(ctx context.Context, gameType model.GameType, cfg *model.PendingConfiguration) (*model.GameRecord, error) {
	if cfg == nil || len(cfg.PlayerSlots) == 0 {
		return nil, fmt.Errorf("pending configuration needs at least one player slot")
	}
	if len(cfg.PlayerSlots) > s.rules.MaxSlots {
		return nil, fmt.Errorf("at most %d player slots, got %d", s.rules.MaxSlots, len(cfg.PlayerSlots))
	}

	rec := &model.GameRecord{
		GameID:        newGameID(),
		Status:        galaxy.StatusPending,
		GameType:      gameType,
		Players:       claimedPlayers(cfg),
		PendingConfig: cfg,
		CreatedAt:     s.now().UnixMilli(),
	}
	if err := s.SaveGame(ctx, rec, nil); err != nil {
		return nil, err
	}
	s.stats.Record(ctx, StatGamesCreated)
	return rec, nil
}

// AddPlayerToGame claims an open slot in a pending game. slotIndex -1
// means the first open slot. Refusals come back as a SlotRejection, not an
// error; the error return is for storage failures.
func (s *GameStore) AddPlayerToGame(ctx context.Context, gameID string, slotIndex int, name, color string) (*model.GameRecord, *SlotRejection, error) {
	rec, err := s.LoadGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, &SlotRejection{Reason: "game not found"}, nil
	}
	if rec.Status != galaxy.StatusPending {
		return nil, &SlotRejection{Reason: "game already started"}, nil
	}
	if rec.PendingConfig == nil {
		return nil, &SlotRejection{Reason: "game has no pending configuration"}, nil
	}

	expected := rec.LastUpdateAt
	slot := findSlot(rec.PendingConfig, slotIndex)
	if slot == nil {
		return nil, &SlotRejection{Reason: "no open slot"}, nil
	}

	slot.Type = model.SlotHuman
	slot.Name = name
	if color != "" {
		slot.Color = color
	}
	player := galaxy.Player{SlotIndex: slot.Index, Name: name, Color: slot.Color}
	rec.Players = append(rec.Players, player)

	if err := s.SaveGame(ctx, rec, &expected); err != nil {
		return nil, nil, err
	}
	s.notifier.PlayerJoined(ctx, gameID, player)
	return rec, nil, nil
}

// RemovePlayerFromGame frees a claimed slot in a pending game.
func (s *GameStore) RemovePlayerFromGame(ctx context.Context, gameID string, slotIndex int) (*model.GameRecord, *SlotRejection, error) {
	rec, err := s.LoadGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, &SlotRejection{Reason: "game not found"}, nil
	}
	if rec.Status != galaxy.StatusPending {
		return nil, &SlotRejection{Reason: "game already started"}, nil
	}
	if rec.PendingConfig == nil {
		return nil, &SlotRejection{Reason: "game has no pending configuration"}, nil
	}

	expected := rec.LastUpdateAt
	found := false
	for i := range rec.PendingConfig.PlayerSlots {
		slot := &rec.PendingConfig.PlayerSlots[i]
		if slot.Index == slotIndex && slot.Type == model.SlotHuman {
			slot.Type = model.SlotOpen
			slot.Name = ""
			found = true
			break
		}
	}
	if !found {
		return nil, &SlotRejection{Reason: "slot not claimed by a player"}, nil
	}

	kept := rec.Players[:0]
	for _, p := range rec.Players {
		if p.SlotIndex != slotIndex {
			kept = append(kept, p)
		}
	}
	rec.Players = kept

	if err := s.SaveGame(ctx, rec, &expected); err != nil {
		return nil, nil, err
	}
	return rec, nil, nil
}

// CanGameStart reports whether a pending game is ready to start normally:
// every slot claimed and at least two participants.
func (s *GameStore) CanGameStart(ctx context.Context, gameID string) (bool, *SlotRejection, error) {
	rec, err := s.LoadGame(ctx, gameID)
	if err != nil {
		return false, nil, err
	}
	if rec == nil {
		return false, &SlotRejection{Reason: "game not found"}, nil
	}
	if rec.Status != galaxy.StatusPending {
		return false, &SlotRejection{Reason: "game already started"}, nil
	}
	if rec.PendingConfig == nil {
		return false, &SlotRejection{Reason: "game has no pending configuration"}, nil
	}
	if rec.PendingConfig.OpenSlotCount() > 0 {
		return false, &SlotRejection{Reason: "open slots remain"}, nil
	}
	if len(rec.PendingConfig.PlayerSlots) < 2 {
		return false, &SlotRejection{Reason: "needs at least two players"}, nil
	}
	return true, nil, nil
}

// StartGame performs the PENDING to ACTIVE transition: builds the initial
// game state from a random seed, drops the pending configuration,
// persists, and notifies. With startAnyway, unclaimed slots are simply
// dropped as long as two participants remain.
func (s *GameStore) StartGame(ctx context.Context, gameID string, startAnyway bool) (*model.GameRecord, *SlotRejection, error) {
	return s.StartGameWithSeed(ctx, gameID, startAnyway, 0)
}

// StartGameWithSeed is StartGame with a caller-chosen RNG seed, so the
// whole match (map generation included) replays deterministically. A zero
// seed draws a random one.
func (s *GameStore) StartGameWithSeed(ctx context.Context, gameID string, startAnyway bool, seed uint64) (*model.GameRecord, *SlotRejection, error) {
	rec, err := s.LoadGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, &SlotRejection{Reason: "game not found"}, nil
	}
	if rec.Status != galaxy.StatusPending {
		return nil, &SlotRejection{Reason: "game already started"}, nil
	}
	if rec.PendingConfig == nil {
		return nil, &SlotRejection{Reason: "game has no pending configuration"}, nil
	}

	if !startAnyway && rec.PendingConfig.OpenSlotCount() > 0 {
		return nil, &SlotRejection{Reason: "open slots remain"}, nil
	}

	players := claimedPlayers(rec.PendingConfig)
	if len(players) < 2 {
		return nil, &SlotRejection{Reason: "needs at least two players"}, nil
	}

	expected := rec.LastUpdateAt
	now := s.now().UnixMilli()
	if seed == 0 {
		seed = newSeed()
	}
	state := galaxy.NewState(s.rules, players, rec.PendingConfig.Settings, seed, now)

	rec.Status = galaxy.StatusActive
	rec.Players = players
	rec.GameState = state
	rec.PendingConfig = nil

	if err := s.SaveGame(ctx, rec, &expected); err != nil {
		return nil, nil, err
	}
	s.stats.Record(ctx, StatGamesStarted)
	s.notifier.GameStarted(ctx, gameID, state)

	log.Info().Str("gameId", gameID).Int("players", len(players)).
		Uint64("seed", seed).Msg("Game started")
	return rec, nil, nil
}

// claimedPlayers converts the claimed slots of a pending configuration to
// engine players.
func claimedPlayers(cfg *model.PendingConfiguration) []galaxy.Player {
	var players []galaxy.Player
	for _, slot := range cfg.PlayerSlots {
		switch slot.Type {
		case model.SlotHuman:
			players = append(players, galaxy.Player{
				SlotIndex: slot.Index,
				Name:      slot.Name,
				Color:     slot.Color,
			})
		case model.SlotAI:
			players = append(players, galaxy.Player{
				SlotIndex:  slot.Index,
				Name:       slot.Name,
				IsAI:       true,
				Difficulty: slot.Difficulty,
				Color:      slot.Color,
			})
		}
	}
	return players
}

// findSlot locates an open slot: the requested index, or the first open
// one when slotIndex is -1.
func findSlot(cfg *model.PendingConfiguration, slotIndex int) *model.PlayerSlot {
	for i := range cfg.PlayerSlots {
		slot := &cfg.PlayerSlots[i]
		if slot.Type != model.SlotOpen {
			continue
		}
		if slotIndex == -1 || slot.Index == slotIndex {
			return slot
		}
	}
	return nil
}

// newGameID mints an opaque random game id.
func newGameID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("g%d", time.Now().UnixNano())
	}
	return "g" + hex.EncodeToString(b)
}

// newSeed draws a random RNG seed for a new game.
func newSeed() uint64 {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return uint64(time.Now().UnixNano())
	}
	var seed uint64
	for _, v := range b {
		seed = seed<<8 | uint64(v)
	}
	if seed == 0 {
		seed = 1
	}
	return seed
}
