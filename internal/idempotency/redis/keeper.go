// Package redis implements the Idempotency Keeper on top of go-redis's
// SETNX-with-expiry, the same primitive the retrieval pack's chat-backend
// repo uses for one-shot verification codes and OAuth state tokens.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AccelByte/mission-progression-service/internal/dberr"
)

// Keeper is the go-redis-backed idempotency.Keeper implementation.
type Keeper struct {
	client *redis.Client
}

// New wraps an existing client. Connection lifecycle (dial timeouts,
// address, auth) is configured by the caller via NewClient.
func New(client *redis.Client) *Keeper {
	return &Keeper{client: client}
}

// NewClient builds a client with the same conservative timeouts the
// retrieval pack's Redis singleton uses.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func (k *Keeper) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := k.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, dberr.Transient("mark processed", err)
	}
	return ok, nil
}

func (k *Keeper) Release(ctx context.Context, key string) error {
	if err := k.client.Del(ctx, key).Err(); err != nil {
		return dberr.Transient("release dedup key", err)
	}
	return nil
}

func (k *Keeper) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := k.client.SetNX(ctx, name, "1", ttl).Result()
	if err != nil {
		return false, dberr.Transient("try lock", err)
	}
	return ok, nil
}

func (k *Keeper) Unlock(ctx context.Context, name string) error {
	if err := k.client.Del(ctx, name).Err(); err != nil {
		return dberr.Transient("unlock", err)
	}
	return nil
}
