package store

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, kind, scope string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[kind+"/"+scope] = append([]byte(nil), payload...)
	return nil
}

func (m *Memory) Get(_ context.Context, kind, scope string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[kind+"/"+scope]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Delete(_ context.Context, kind, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, kind+"/"+scope)
	return nil
}

func (m *Memory) Close() error { return nil }
