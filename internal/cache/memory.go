package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Cache. It JSON round-trips values so behavior
// matches the persistent implementation exactly.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func memKey(kind int, key string) string { return fmt.Sprintf("%d:%s", kind, key) }

// Get implements Cache.
func (m *Memory) Get(_ context.Context, kind int, key string, dest any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.entries[memKey(kind, key)]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Put implements Cache.
func (m *Memory) Put(_ context.Context, kind int, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[memKey(kind, key)] = raw
	m.mu.Unlock()
	return nil
}

// Close implements Cache.
func (m *Memory) Close() error { return nil }
