// Package idempotency provides the Idempotency Keeper (C2): dedup markers
// for at-least-once event delivery and a distributed mutual-exclusion lock
// for mission initialization, both built on the same SETNX-with-TTL
// primitive.
package idempotency

import (
	"context"
	"time"
)

// Keeper is the capability set the Event Router and Mission Initializer
// depend on.
type Keeper interface {
	// MarkProcessed sets a dedup marker for key if absent, with the given
	// TTL. It reports whether this call was the one that set it — a false
	// result means the event was already processed (or is being processed
	// concurrently) and the caller should treat it as a duplicate.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (first bool, err error)
	// Release removes a dedup marker, used to undo MarkProcessed when
	// downstream processing fails transiently and the event must be
	// eligible for redelivery.
	Release(ctx context.Context, key string) error

	// TryLock attempts to acquire a named mutual-exclusion lock for ttl.
	// Returns true if acquired.
	TryLock(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)
	// Unlock releases a lock previously acquired with TryLock.
	Unlock(ctx context.Context, name string) error
}

// DedupKey builds the namespaced dedup marker key for an ingress topic and
// event ID.
func DedupKey(prefix, eventID string) string {
	return "processed:" + prefix + ":" + eventID
}

// InitLockKey builds the mission-init lock key for a user.
func InitLockKey(userID string) string {
	return "lock:mission-init:" + userID
}
