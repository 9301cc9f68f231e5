// Package notifier delivers state-change messages to the external realtime
// transport. The core never terminates client connections itself; it POSTs
// notifications to the notifier endpoint and the transport fans them out.
package notifier

import (
	"context"

	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// Message types on the notifier wire.
const (
	TypeGameUpdate   = "gameUpdate"
	TypePlayerJoined = "playerJoined"
	TypeGameStarted  = "gameStarted"
)

// Notifier sends real-time events to subscribed clients. Failures are
// logged by implementations and never surfaced to the caller: by the time
// a notification goes out the state is already persisted, and clients
// reconcile on the next update.
type Notifier interface {
	GameUpdate(ctx context.Context, gameID string, state *galaxy.State)
	PlayerJoined(ctx context.Context, gameID string, player galaxy.Player)
	GameStarted(ctx context.Context, gameID string, state *galaxy.State)
}

// Noop is a no-op implementation for tests or when the notifier endpoint
// is not configured.
type Noop struct{}

func (Noop) GameUpdate(context.Context, string, *galaxy.State)   {}
func (Noop) PlayerJoined(context.Context, string, galaxy.Player) {}
func (Noop) GameStarted(context.Context, string, *galaxy.State)  {}
