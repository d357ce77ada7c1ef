// Package store abstracts the Event Store (C1): durable, idempotent
// recording of raw facts (logins, launches, play sessions), mission rows,
// rewards and outbox entries. Two implementations ship: Postgres
// (internal/store/postgres) and an in-memory one (internal/store/memory).
// Every caller depends on these interfaces so the mission/reward/outbox
// packages are testable without a database.
package store

import (
	"context"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/domain"
)

// EventStore is the full capability set C5-C9 depend on. It composes the
// narrower per-entity interfaces below so call sites can depend on just the
// slice they need.
type EventStore interface {
	UserStore
	GameStore
	FactStore
	MissionStore
	RewardStore
	OutboxStore
	Tx
}

// UserStore manages the User entity.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// GameStore lazily registers games by name.
type GameStore interface {
	// EnsureGame inserts the game if absent and returns the persisted row
	// either way (insert-if-absent, not upsert: an existing row's fields
	// are never overwritten).
	EnsureGame(ctx context.Context, name string) (*domain.Game, error)
}

// FactStore records the three raw, idempotent per-event facts the Mission
// Evaluator reads to recompute progress. Each Record* call is insert-if-
// absent on the entity's natural key and reports whether a new row was
// actually inserted, so callers can distinguish a fresh fact from a
// harmless redelivery without a separate lookup.
type FactStore interface {
	RecordLogin(ctx context.Context, userID string, loginDate time.Time, eventID string) (inserted bool, err error)
	RecordLaunch(ctx context.Context, userID, gameID, eventID string, at time.Time) (inserted bool, err error)
	RecordPlaySession(ctx context.Context, userID, gameID, eventID string, score int, playedAt time.Time) (inserted bool, err error)

	LoginDaysSince(ctx context.Context, userID string, since time.Time) ([]domain.LoginDay, error)
	DistinctGamesSince(ctx context.Context, userID string, since time.Time) (int, error)
	// PlaySessionStatsSince returns how many play sessions userID has
	// logged since since, and the sum of their scores, for the
	// count-and-sum score-over mission predicate.
	PlaySessionStatsSince(ctx context.Context, userID string, since time.Time) (count int, sumScore int, err error)
}

// MissionStore manages the Mission entity, including the CAS completion
// transition that guarantees exactly one winner when two consumers race to
// complete the same mission.
type MissionStore interface {
	// ActiveMissions returns the user's missions for whichever cycle is
	// currently open, or an empty slice if no cycle is open.
	ActiveMissions(ctx context.Context, userID string) ([]domain.Mission, error)
	// InsertMissionsIfAbsent inserts the fixed three-mission set for a new
	// cycle, skipping any row that already exists for (user, type, cycle
	// start). It reports how many rows exist for that cycle after the
	// insert, which is the same whether this call or a racing one inserted
	// them.
	InsertMissionsIfAbsent(ctx context.Context, userID string, types []domain.MissionType, cycleStart time.Time) (count int, err error)
	// CompleteMission performs the CAS UPDATE: in_progress -> completed,
	// only when the row is still in_progress. Returns true only if this
	// call was the one that flipped it.
	CompleteMission(ctx context.Context, userID string, t domain.MissionType, cycleStart time.Time, completedAt time.Time) (won bool, err error)
	UpdateProgress(ctx context.Context, userID string, t domain.MissionType, cycleStart time.Time, progress int) error
}

// RewardStore manages exactly-once-per-period reward distribution.
type RewardStore interface {
	// InsertRewardIfAbsent is insert-if-absent on (user_id, period).
	// Returns false if a reward for this period already exists.
	InsertRewardIfAbsent(ctx context.Context, userID, period string, points int, distributedAt time.Time) (inserted bool, err error)
	AddPoints(ctx context.Context, userID string, points int) (rowsAffected int64, err error)
	// RewardsForUser returns every reward ever distributed to userID, newest
	// first, for the api.Service read path.
	RewardsForUser(ctx context.Context, userID string) ([]domain.Reward, error)
}

// OutboxStore manages the transactional outbox (C3).
type OutboxStore interface {
	// EnqueueOutbox records a publish-failure entry for later retry.
	EnqueueOutbox(ctx context.Context, entry domain.OutboxEntry) error
	// DueOutboxEntries returns PENDING entries whose next retry time has
	// arrived, oldest first.
	DueOutboxEntries(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error)
	// DeleteOutboxEntry removes an entry after it publishes successfully.
	DeleteOutboxEntry(ctx context.Context, id int64) error
	// MarkOutboxRetry increments the retry count and sets the next retry
	// time, or marks the entry FAILED if maxRetries has been reached.
	MarkOutboxRetry(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error
	// FailOutboxEntry marks the entry FAILED immediately, bypassing the
	// retry budget, for a publish failure classified as non-retryable.
	FailOutboxEntry(ctx context.Context, id int64, errMsg string) error
}

// Tx exposes transactional boundaries for operations that must be atomic,
// mirroring the teacher's BeginTx/Commit/Rollback pattern.
type Tx interface {
	BeginTx(ctx context.Context) (EventStoreTx, error)
}

// EventStoreTx is an EventStore bound to a single transaction.
type EventStoreTx interface {
	EventStore
	Commit() error
	Rollback() error
}
