// Package kv defines the abstract key-value contract the game server
// persists through. Values are opaque JSON blobs; the redis adapter backs
// production and the memory adapter backs tests and the simulator.
package kv

import "context"

// Store is the key-value contract. Get returns nil for a missing key, not
// an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Keys lists the stored keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// CheckAndPut writes value only if check approves the bytes
	// currently stored under key (nil when absent). The read-check-write
	// sequence is atomic with respect to other CheckAndPut calls on the
	// same key; an error returned by check aborts the write and is
	// returned unchanged.
	CheckAndPut(ctx context.Context, key string, value []byte, check func(current []byte) error) error
}
