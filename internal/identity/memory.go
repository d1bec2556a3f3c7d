package identity

import (
	"context"
	"sync"

	"storefront/internal/notify"
)

// Memory is a process-local Store. Every component holding the same *Memory
// shares the value and its change notifications.
type Memory struct {
	mu    sync.Mutex
	value string
	subs  *notify.Broadcaster[string]
}

var _ Store = (*Memory)(nil)

func NewMemory(initial string) *Memory {
	return &Memory{value: initial, subs: notify.New[string]()}
}

func (m *Memory) Get(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *Memory) Set(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == id {
		return nil
	}
	m.value = id
	m.subs.Publish(id)
	return nil
}

func (m *Memory) Subscribe(fn func(id string)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.value
	return m.subs.Subscribe(fn, &current)
}

func (m *Memory) Close() error {
	m.subs.Close()
	return nil
}
