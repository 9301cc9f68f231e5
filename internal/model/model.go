// Package model holds the persisted record types for the game server.
package model

import (
	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// GameType distinguishes matches between humans from matches against AI.
type GameType string

const (
	GameTypeMultiplayer GameType = "MULTIPLAYER"
	GameTypeAI          GameType = "AI"
)

// Slot occupancy in a pending configuration.
const (
	SlotOpen  = "open"
	SlotHuman = "human"
	SlotAI    = "ai"
)

// PlayerSlot describes one seat in a pending game.
type PlayerSlot struct {
	Index      int    `json:"index"`
	Type       string `json:"type"` // open, human, ai
	Name       string `json:"name,omitempty"`
	Difficulty string `json:"difficulty,omitempty"` // ai only
	Color      string `json:"color,omitempty"`
}

// PendingConfiguration enumerates the seats and settings of a game that has
// not started yet.
type PendingConfiguration struct {
	PlayerSlots []PlayerSlot    `json:"playerSlots"`
	Settings    galaxy.Settings `json:"settings"`
}

// OpenSlotCount returns how many seats are still unclaimed.
func (c *PendingConfiguration) OpenSlotCount() int {
	n := 0
	for _, s := range c.PlayerSlots {
		if s.Type == SlotOpen {
			n++
		}
	}
	return n
}

// GameRecord is the persisted unit for one game. LastUpdateAt doubles as
// the optimistic-lock version token: a save carrying a stale value is
// rejected by the store.
type GameRecord struct {
	GameID        string                `json:"gameId"`
	Status        galaxy.Status         `json:"status"`
	GameType      GameType              `json:"gameType"`
	Players       []galaxy.Player       `json:"players"`
	GameState     *galaxy.State         `json:"gameState,omitempty"`            // absent iff PENDING
	PendingConfig *PendingConfiguration `json:"pendingConfiguration,omitempty"` // present iff PENDING
	CreatedAt     int64                 `json:"createdAt"`
	LastUpdateAt  int64                 `json:"lastUpdateAt"`
}

// OpenGameSummary is one entry in the open-games index.
type OpenGameSummary struct {
	GameID        string                `json:"gameId"`
	CreatedAt     int64                 `json:"createdAt"`
	PlayerCount   int                   `json:"playerCount"`
	MaxPlayers    int                   `json:"maxPlayers"`
	GameType      GameType              `json:"gameType"`
	Players       []galaxy.Player       `json:"players,omitempty"`
	PendingConfig *PendingConfiguration `json:"pendingConfiguration,omitempty"`
}

// OpenGamesIndex is the KV-persisted cache of pending games.
type OpenGamesIndex struct {
	Games []OpenGameSummary `json:"games"`
}

// ActiveGamesIndex is the KV-persisted cache of active game ids.
type ActiveGamesIndex struct {
	GameIDs []string `json:"gameIds"`
}

// DailyStats counts game lifecycle events for one day.
type DailyStats map[string]int

// SummaryOf builds the open-games index entry for a pending record.
func SummaryOf(rec *GameRecord) OpenGameSummary {
	sum := OpenGameSummary{
		GameID:    rec.GameID,
		CreatedAt: rec.CreatedAt,
		GameType:  rec.GameType,
		Players:   rec.Players,
	}
	if rec.PendingConfig != nil {
		sum.PendingConfig = rec.PendingConfig
		sum.MaxPlayers = len(rec.PendingConfig.PlayerSlots)
		sum.PlayerCount = sum.MaxPlayers - rec.PendingConfig.OpenSlotCount()
	}
	return sum
}
