package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// requestTimeout bounds every notifier POST independently of the caller's
// deadline; a slow transport must not stall game ticks.
const requestTimeout = 3 * time.Second

// Client POSTs notifications to the external realtime notifier.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a notifier client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// envelope is the wire format: {gameId, message:{type, ...payload}}.
type envelope struct {
	GameID  string         `json:"gameId"`
	Message map[string]any `json:"message"`
}

// GameUpdate notifies subscribers of an updated game state.
func (c *Client) GameUpdate(ctx context.Context, gameID string, state *galaxy.State) {
	c.post(ctx, gameID, map[string]any{
		"type":      TypeGameUpdate,
		"gameId":    gameID,
		"gameState": state,
	})
}

// PlayerJoined notifies subscribers of a player claiming a slot.
func (c *Client) PlayerJoined(ctx context.Context, gameID string, player galaxy.Player) {
	c.post(ctx, gameID, map[string]any{
		"type":   TypePlayerJoined,
		"gameId": gameID,
		"player": player,
	})
}

// GameStarted notifies subscribers that the game left the waiting room.
func (c *Client) GameStarted(ctx context.Context, gameID string, state *galaxy.State) {
	c.post(ctx, gameID, map[string]any{
		"type":      TypeGameStarted,
		"gameId":    gameID,
		"gameState": state,
	})
}

// post delivers one message. All failures are logged and swallowed; the
// caller's state is already persisted.
func (c *Client) post(ctx context.Context, gameID string, message map[string]any) {
	body, err := json.Marshal(envelope{GameID: gameID, Message: message})
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to marshal notification")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notify", bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to build notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Notifier POST failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Str("gameId", gameID).Msg("Notifier rejected notification")
		return
	}

	var ack struct {
		SentCount int `json:"sentCount"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&ack); err == nil {
		log.Debug().Str("gameId", gameID).Int("sentCount", ack.SentCount).
			Str("type", fmt.Sprint(message["type"])).Msg("Notification delivered")
	}
}
