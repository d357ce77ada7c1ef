// Package memory is the in-process fallback idempotency.Keeper, mirroring
// the retrieval pack's map-plus-mutex fallback that backs its Redis-backed
// code/state stores when Redis is unavailable. Used by unit tests and by
// cmd/worker's single-node dev mode.
package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	expiresAt time.Time
}

// Keeper is a goroutine-safe in-memory idempotency.Keeper.
type Keeper struct {
	mu      sync.Mutex
	entries map[string]entry
}

// New creates an empty Keeper.
func New() *Keeper {
	return &Keeper{entries: make(map[string]entry)}
}

func (k *Keeper) sweepExpired(now time.Time) {
	for key, e := range k.entries {
		if now.After(e.expiresAt) {
			delete(k.entries, key)
		}
	}
}

func (k *Keeper) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := time.Now()
	k.sweepExpired(now)
	if _, exists := k.entries[key]; exists {
		return false, nil
	}
	k.entries[key] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}

func (k *Keeper) Release(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, key)
	return nil
}

func (k *Keeper) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return k.MarkProcessed(ctx, name, ttl)
}

func (k *Keeper) Unlock(ctx context.Context, name string) error {
	return k.Release(ctx, name)
}
