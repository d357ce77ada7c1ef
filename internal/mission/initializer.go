// Package mission implements the Mission Initializer (C5), Mission
// Evaluator (C6) and Completion Engine (C7): opening a fresh 30-day cycle,
// recomputing progress from the Event Store, and the CAS transition that
// completes a mission exactly once.
package mission

import (
	"context"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/dberr"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	"github.com/AccelByte/mission-progression-service/internal/idempotency"
	"github.com/AccelByte/mission-progression-service/internal/store"
)

// InitConfig bounds how long the initializer waits on a concurrent
// initializer before giving up and asking for redelivery.
type InitConfig struct {
	LockTTL      time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// EnsureActiveCycle guarantees the user has three missions for an active
// cycle, opening a fresh cycle if the previous one is exhausted (all three
// completed) or absent. A fresh cycle starts today and the cycle start is
// part of each mission's unique key, so a cycle exhausted on the day it
// opened is not replaced until the next day; until then its completed
// missions stay the active ones. If a cycle is already active with any
// mission still in progress, it returns immediately without taking the
// lock — the common case on every ingress event.
//
// Mirrors the double-checked-locking + commit-before-unlock pattern: lock,
// re-check, insert inside the same transaction, commit, then release the
// lock, so a racing consumer either sees the committed rows or fails to
// acquire the lock and polls for them instead of reinitializing.
func EnsureActiveCycle(ctx context.Context, s store.EventStore, keeper idempotency.Keeper, userID string, cfg InitConfig) error {
	active, err := activeAndIncomplete(ctx, s, userID)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	lockKey := idempotency.InitLockKey(userID)
	acquired, err := keeper.TryLock(ctx, lockKey, cfg.LockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return waitForActiveCycle(ctx, s, userID, cfg)
	}
	defer func() { _ = keeper.Unlock(ctx, lockKey) }()

	active, err = activeAndIncomplete(ctx, s, userID)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}

	cycleStart := clock.Today()
	if _, err := tx.InsertMissionsIfAbsent(ctx, userID, domain.AllMissionTypes(), cycleStart); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// activeAndIncomplete reports whether the user already has a cycle that is
// both within the rolling window and has at least one mission still in
// progress — the state that means no initialization is needed at all.
func activeAndIncomplete(ctx context.Context, s store.MissionStore, userID string) (bool, error) {
	missions, err := s.ActiveMissions(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(missions) < len(domain.AllMissionTypes()) {
		return false, nil
	}
	for _, m := range missions {
		if !m.IsCompleted() {
			return true, nil
		}
	}
	return false, nil
}

// waitForActiveCycle polls for the lock holder to finish, the way the
// original implementation polls the database every 100ms for up to 5s
// rather than retrying the lock itself.
func waitForActiveCycle(ctx context.Context, s store.MissionStore, userID string, cfg InitConfig) error {
	deadline := time.Now().Add(cfg.WaitTimeout)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		missions, err := s.ActiveMissions(ctx, userID)
		if err != nil {
			return err
		}
		if len(missions) >= len(domain.AllMissionTypes()) {
			return nil
		}
		if time.Now().After(deadline) {
			return dberr.LockTimeout(userID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
