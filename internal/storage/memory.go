package storage

import (
	"context"
	"sync"
)

// MemoryGateway is an in-process gateway for development and tests.
type MemoryGateway struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{slots: make(map[string][]byte)}
}

func (g *MemoryGateway) Load(_ context.Context, key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	blob, ok := g.slots[key]
	if !ok {
		return nil, nil
	}
	out := append([]byte(nil), blob...)
	return out, nil
}

func (g *MemoryGateway) Save(_ context.Context, key string, blob []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.slots[key] = append([]byte(nil), blob...)
	return nil
}

func (g *MemoryGateway) Close() error { return nil }
