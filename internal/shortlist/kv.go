package shortlist

import (
	"context"
	"sync"
)

// UpdateFunc computes the next value of a key from its current value. current is
// nil when the key does not exist. Returning ErrSkipWrite aborts without writing;
// any other error aborts and is returned from Update unchanged. The function may
// be invoked more than once when a backend retries after a conflict.
type UpdateFunc func(current []byte) ([]byte, error)

// KV is the string key-value storage the shortlist is persisted in.
type KV interface {
	// Get returns the raw value, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Update applies fn atomically with respect to other writers of key.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
}

// MemoryKV keeps values in process memory. It backs the "memory" backend and tests.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current []byte
	if v, ok := m.data[key]; ok {
		current = append([]byte(nil), v...)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.data[key] = append([]byte(nil), next...)
	return nil
}

// Set overwrites key. Used to seed state, including values that do not decode.
func (m *MemoryKV) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
}

func (m *MemoryKV) Ping(context.Context) error {
	return nil
}
