package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/bytedance/sonic"
)

// ErrInjected is returned by a Memory adapter whose failure hooks are
// armed.
var ErrInjected = errors.New("injected storage failure")

// Memory implements KV in process memory. It backs local mode and
// tests; FailGets/FailSets let tests drive the store's failure and
// resync paths without a real backend.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte

	FailGets bool
	FailSets bool
}

// NewMemory creates an empty in-memory KV adapter.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGets {
		return false, ErrInjected
	}
	data, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, val any) error {
	data, err := sonic.Marshal(val)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSets {
		return ErrInjected
	}
	m.data[key] = data
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSets {
		return ErrInjected
	}
	delete(m.data, key)
	return nil
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Raw returns the stored bytes for key, for tests asserting on the
// durable copy.
func (m *Memory) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}
