package store

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("entry not found")

// Store keeps one plain text object per key.
type Store interface {
	Put(ctx context.Context, key string, body string) error
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) (string, error)
	// Exists reports false, not ErrNotFound, for a missing key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Memory is a Store backed by a map.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Put(_ context.Context, key string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = body

	return nil
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}

	return body, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[key]

	return ok, nil
}
