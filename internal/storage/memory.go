package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps the document in process memory. Nothing survives a
// restart; it backs dry runs and tests.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Load(_ context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemoryBackend) Save(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	return nil
}

func (b *MemoryBackend) Ping(_ context.Context) error { return nil }

func (b *MemoryBackend) Close() error { return nil }
