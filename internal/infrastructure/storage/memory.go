package storage

import (
	"context"
	"sync"

	"LinkedLens/internal/ports"
)

// MemoryStore keeps settings in process memory; nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ ports.SettingsStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

// Get returns the stored values for keys; unknown keys are absent from the map.
func (m *MemoryStore) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

// Set stores every value.
func (m *MemoryStore) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.values[k] = v
	}
	return nil
}
