package cache

import (
	"context"
	"sync"
	"time"

	"civicfix/internal/domain/service"
)

// MemoryGuard is the per-process in-progress set. Entries outlive a crashed holder only
// until their ttl passes.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if until, ok := g.held[key]; ok && now.Before(until) {
		return false, nil
	}
	g.held[key] = now.Add(ttl)
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	delete(g.held, key)
	g.mu.Unlock()
}

// LayeredGuard takes the local guard first, then the shared one.
type LayeredGuard struct {
	local  service.TransitionGuard
	shared service.TransitionGuard
}

func NewLayeredGuard(local, shared service.TransitionGuard) service.TransitionGuard {
	if shared == nil {
		return local
	}
	return &LayeredGuard{local: local, shared: shared}
}

func (g *LayeredGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.local.Acquire(ctx, key, ttl)
	if err != nil || !ok {
		return ok, err
	}
	ok, err = g.shared.Acquire(ctx, key, ttl)
	if err != nil || !ok {
		g.local.Release(ctx, key)
		return false, err
	}
	return true, nil
}

func (g *LayeredGuard) Release(ctx context.Context, key string) {
	g.shared.Release(ctx, key)
	g.local.Release(ctx, key)
}
