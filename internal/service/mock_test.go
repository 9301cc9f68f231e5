package service

import (
	"context"
	"sync"

	"github.com/freeeve/galactic-conflict/internal/kv"
	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// recordingNotifier captures broadcast payloads for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	updates []*galaxy.State
	starts  int
}

func (n *recordingNotifier) GameUpdate(_ context.Context, _ string, state *galaxy.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, state)
}

func (n *recordingNotifier) PlayerJoined(context.Context, string, galaxy.Player) {}

func (n *recordingNotifier) GameStarted(_ context.Context, _ string, _ *galaxy.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.starts++
}

func (n *recordingNotifier) updateCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.updates)
}

// hookedStore wraps a kv.Store and runs a hook before each CheckAndPut,
// simulating a concurrent writer racing the save.
type hookedStore struct {
	kv.Store
	mu             sync.Mutex
	beforeCheckPut func()
}

func (h *hookedStore) CheckAndPut(ctx context.Context, key string, value []byte, check func([]byte) error) error {
	h.mu.Lock()
	hook := h.beforeCheckPut
	h.beforeCheckPut = nil
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	return h.Store.CheckAndPut(ctx, key, value, check)
}
