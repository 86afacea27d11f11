// Package storage provides the key-value collaborator the suggestion
// pipeline reads and writes through. The contract mirrors the browser's
// extension storage: partial snapshots on read, merged updates on write.
package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"replyassist/internal/types"
)

// Store is the storage collaborator contract. Get returns the currently
// stored values for the requested keys (nil or empty keys returns the
// full snapshot); absent keys are simply missing from the result. Set
// merges the given keys into storage. Each call is atomic on its own;
// there is no cross-call isolation.
type Store interface {
	Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, values map[string]interface{}) error
}

// GetInto fetches a single key and unmarshals it into out. It reports
// whether the key was present. Decode failures surface as StorageError
// since they indicate a corrupt record, not bad user input.
func GetInto(ctx context.Context, s Store, key string, out interface{}) (bool, error) {
	snapshot, err := s.Get(ctx, []string{key})
	if err != nil {
		return false, err
	}
	raw, ok := snapshot[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, &types.StorageError{Op: "decode " + key, Err: err}
	}
	return true, nil
}

// MemStore is a map-backed Store used in tests and as an in-process
// fallback when no database path is configured.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]json.RawMessage)}
}

// Get implements Store.
func (m *MemStore) Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(keys) == 0 {
		keys = make([]string, 0, len(m.values))
		for k := range m.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			cp := make(json.RawMessage, len(v))
			copy(cp, v)
			out[k] = cp
		}
	}
	return out, nil
}

// Set implements Store.
func (m *MemStore) Set(ctx context.Context, values map[string]interface{}) error {
	encoded := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return &types.StorageError{Op: "encode " + k, Err: err}
		}
		encoded[k] = data
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range encoded {
		m.values[k] = v
	}
	return nil
}
