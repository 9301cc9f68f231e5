package store

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/galactic-conflict/internal/kv"
	"github.com/freeeve/galactic-conflict/internal/model"
	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// KV keys for the index caches.
const (
	openGamesKey   = "gc_open_games"
	activeGamesKey = "gc_active_games"
)

// CacheCoordinator maintains the open-games and active-games indices in the
// KV store. The indices are advisory caches: every write tolerates failure
// with a warning, and readers rebuild them from a full scan on a miss.
type CacheCoordinator struct {
	kv kv.Store
}

// NewCacheCoordinator creates a coordinator over the given store.
func NewCacheCoordinator(store kv.Store) *CacheCoordinator {
	return &CacheCoordinator{kv: store}
}

// OnGameSaved updates both indices after a successful record save.
func (c *CacheCoordinator) OnGameSaved(ctx context.Context, rec *model.GameRecord, previousStatus galaxy.Status) {
	if rec.Status == galaxy.StatusPending {
		c.upsertOpen(ctx, rec)
	} else if previousStatus == galaxy.StatusPending || previousStatus == "" {
		c.removeOpen(ctx, rec.GameID)
	}

	if rec.Status == galaxy.StatusActive {
		c.addActive(ctx, rec.GameID)
	} else if previousStatus == galaxy.StatusActive {
		c.RemoveActive(ctx, rec.GameID)
	}
}

// OnGameDeleted removes the game from both indices.
func (c *CacheCoordinator) OnGameDeleted(ctx context.Context, gameID string) {
	c.removeOpen(ctx, gameID)
	c.RemoveActive(ctx, gameID)
}

// OpenIndex returns the cached open-games index, or nil on a cache miss.
func (c *CacheCoordinator) OpenIndex(ctx context.Context) (*model.OpenGamesIndex, error) {
	data, err := c.kv.Get(ctx, openGamesKey)
	if err != nil || data == nil {
		return nil, err
	}
	var idx model.OpenGamesIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		log.Warn().Err(err).Msg("Corrupt open-games index, treating as miss")
		return nil, nil
	}
	return &idx, nil
}

// ActiveIndex returns the cached active-games index, or nil on a cache miss.
func (c *CacheCoordinator) ActiveIndex(ctx context.Context) (*model.ActiveGamesIndex, error) {
	data, err := c.kv.Get(ctx, activeGamesKey)
	if err != nil || data == nil {
		return nil, err
	}
	var idx model.ActiveGamesIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		log.Warn().Err(err).Msg("Corrupt active-games index, treating as miss")
		return nil, nil
	}
	return &idx, nil
}

// PutOpenIndex replaces the open-games index, e.g. after a rebuild.
func (c *CacheCoordinator) PutOpenIndex(ctx context.Context, idx *model.OpenGamesIndex) {
	c.write(ctx, openGamesKey, idx)
}

// PutActiveIndex replaces the active-games index.
func (c *CacheCoordinator) PutActiveIndex(ctx context.Context, idx *model.ActiveGamesIndex) {
	c.write(ctx, activeGamesKey, idx)
}

// RemoveActive drops a game id from the active index. Also used as the
// lazy purge when a reader finds a stale entry.
func (c *CacheCoordinator) RemoveActive(ctx context.Context, gameID string) {
	idx, err := c.ActiveIndex(ctx)
	if err != nil || idx == nil {
		return
	}
	kept := idx.GameIDs[:0]
	for _, id := range idx.GameIDs {
		if id != gameID {
			kept = append(kept, id)
		}
	}
	idx.GameIDs = kept
	c.write(ctx, activeGamesKey, idx)
}

func (c *CacheCoordinator) addActive(ctx context.Context, gameID string) {
	idx, err := c.ActiveIndex(ctx)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Active-games index read failed, skipping add")
		return
	}
	if idx == nil {
		idx = &model.ActiveGamesIndex{}
	}
	for _, id := range idx.GameIDs {
		if id == gameID {
			return
		}
	}
	idx.GameIDs = append(idx.GameIDs, gameID)
	c.write(ctx, activeGamesKey, idx)
}

func (c *CacheCoordinator) upsertOpen(ctx context.Context, rec *model.GameRecord) {
	idx, err := c.OpenIndex(ctx)
	if err != nil {
		log.Warn().Err(err).Str("gameId", rec.GameID).Msg("Open-games index read failed, skipping upsert")
		return
	}
	if idx == nil {
		idx = &model.OpenGamesIndex{}
	}
	sum := model.SummaryOf(rec)
	replaced := false
	for i := range idx.Games {
		if idx.Games[i].GameID == rec.GameID {
			idx.Games[i] = sum
			replaced = true
			break
		}
	}
	if !replaced {
		idx.Games = append(idx.Games, sum)
	}
	c.write(ctx, openGamesKey, idx)
}

func (c *CacheCoordinator) removeOpen(ctx context.Context, gameID string) {
	idx, err := c.OpenIndex(ctx)
	if err != nil || idx == nil {
		return
	}
	kept := idx.Games[:0]
	for _, g := range idx.Games {
		if g.GameID != gameID {
			kept = append(kept, g)
		}
	}
	idx.Games = kept
	c.write(ctx, openGamesKey, idx)
}

// write marshals and stores an index, warning on failure. The caches are
// hints; correctness never depends on them.
func (c *CacheCoordinator) write(ctx context.Context, key string, idx any) {
	data, err := json.Marshal(idx)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Index marshal failed")
		return
	}
	if err := c.kv.Put(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Index write failed, next read rebuilds")
	}
}
