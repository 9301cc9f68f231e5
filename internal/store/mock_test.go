package store

import (
	"context"
	"sync"
	"time"

	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	updates []string
	joins   []string
	starts  []string
	players []galaxy.Player
}

func (n *recordingNotifier) GameUpdate(_ context.Context, gameID string, _ *galaxy.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, gameID)
}

func (n *recordingNotifier) PlayerJoined(_ context.Context, gameID string, player galaxy.Player) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joins = append(n.joins, gameID)
	n.players = append(n.players, player)
}

func (n *recordingNotifier) GameStarted(_ context.Context, gameID string, _ *galaxy.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.starts = append(n.starts, gameID)
}

// fixedClock is a controllable time source.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(ms int64) *fixedClock {
	return &fixedClock{now: time.UnixMilli(ms)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
