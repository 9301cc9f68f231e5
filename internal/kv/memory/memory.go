// Package memory is an in-memory kv.Store for tests and the offline
// simulator.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store keeps all values in a map under one mutex, which also makes
// CheckAndPut trivially atomic.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) CheckAndPut(_ context.Context, key string, value []byte, check func(current []byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := check(s.data[key]); err != nil {
		return err
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}
