package storage

import (
	"bytes"
	"context"
	"sync"
)

// MemoryBackend keeps values in process memory. Used by tests and by
// surfaces started without a database.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string][]byte
	fail   error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (backend *MemoryBackend) Get(_ context.Context, keys []string) (map[string][]byte, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	if backend.fail != nil {
		return nil, backend.fail
	}
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := backend.values[key]; ok {
			result[key] = append([]byte(nil), value...)
		}
	}
	return result, nil
}

func (backend *MemoryBackend) Put(_ context.Context, key string, value []byte) ([]byte, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	if backend.fail != nil {
		return nil, backend.fail
	}
	old := backend.values[key]
	backend.values[key] = append([]byte(nil), value...)
	return old, nil
}

func (backend *MemoryBackend) Claim(_ context.Context, key string, value []byte) (bool, []byte, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	if backend.fail != nil {
		return false, nil, backend.fail
	}
	old, ok := backend.values[key]
	if ok && bytes.Equal(old, value) {
		return false, old, nil
	}
	backend.values[key] = append([]byte(nil), value...)
	return true, old, nil
}

func (backend *MemoryBackend) Close() error {
	return nil
}

// SetFailure makes every subsequent operation fail with err (nil restores).
func (backend *MemoryBackend) SetFailure(err error) {
	backend.mu.Lock()
	backend.fail = err
	backend.mu.Unlock()
}
