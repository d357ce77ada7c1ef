// Package domain holds the core entities of the mission-progression pipeline:
// users, games, the raw event-derived facts (logins, launches, play sessions),
// missions, rewards and the transactional outbox.
package domain

import "time"

// MissionType identifies one of the three fixed mission templates. The set
// is closed: every active cycle has exactly one Mission row per type.
type MissionType string

const (
	MissionLoginConsecutive MissionType = "LOGIN-3-CONSECUTIVE"
	MissionLaunchDistinct   MissionType = "LAUNCH-3-DISTINCT"
	MissionPlayScoreOver    MissionType = "PLAY-3-SESSIONS-SCORE-OVER-1000"
)

// IsValid reports whether t is one of the three fixed mission types.
func (t MissionType) IsValid() bool {
	switch t {
	case MissionLoginConsecutive, MissionLaunchDistinct, MissionPlayScoreOver:
		return true
	default:
		return false
	}
}

// AllMissionTypes returns the fixed three-element set, in a stable order.
func AllMissionTypes() []MissionType {
	return []MissionType{MissionLoginConsecutive, MissionLaunchDistinct, MissionPlayScoreOver}
}

// MissionStatus is the lifecycle state of a Mission row within a cycle.
type MissionStatus string

const (
	MissionStatusInProgress MissionStatus = "in_progress"
	MissionStatusCompleted  MissionStatus = "completed"
)

// IsValid reports whether s is a known mission status.
func (s MissionStatus) IsValid() bool {
	switch s {
	case MissionStatusInProgress, MissionStatusCompleted:
		return true
	default:
		return false
	}
}

// User is the subject of every mission cycle. Password is compared for
// equality only; hashing and auth flows are out of scope for this service.
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password"`
	Points    int       `json:"points" db:"points"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Game is lazily registered the first time a launch event references it.
type Game struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LoginDay records one calendar day (UTC midnight) on which a user logged
// in. Uniqueness is enforced on (user_id, login_date).
type LoginDay struct {
	UserID    string    `json:"user_id" db:"user_id"`
	LoginDate time.Time `json:"login_date" db:"login_date"`
	EventID   string    `json:"event_id" db:"event_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GameLaunch records one game launch by a user on one calendar day.
// Uniqueness is enforced on (user_id, game_id, launch_date): repeated
// launches of the same game on the same day collapse to one row, but the
// same game launched again on a later day is a new row.
type GameLaunch struct {
	UserID     string    `json:"user_id" db:"user_id"`
	GameID     string    `json:"game_id" db:"game_id"`
	EventID    string    `json:"event_id" db:"event_id"`
	LaunchDate time.Time `json:"launch_date" db:"launch_date"`
	FirstSeen  time.Time `json:"first_seen" db:"first_seen"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// PlaySession records one scored play session. Uniqueness is enforced on
// event_id alone: every session is distinct regardless of score.
type PlaySession struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	GameID    string    `json:"game_id" db:"game_id"`
	EventID   string    `json:"event_id" db:"event_id"`
	Score     int       `json:"score" db:"score"`
	PlayedAt  time.Time `json:"played_at" db:"played_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Mission is one row per (user, type, cycle_start). CycleStart is the date
// the 30-day cycle was opened and is part of the uniqueness key, so a fresh
// cycle never collides with an exhausted one.
type Mission struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	Type        MissionType   `json:"type" db:"type"`
	CycleStart  time.Time     `json:"cycle_start" db:"cycle_start"`
	Status      MissionStatus `json:"status" db:"status"`
	Progress    int           `json:"progress" db:"progress"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether the mission has reached its terminal state.
func (m *Mission) IsCompleted() bool {
	return m.Status == MissionStatusCompleted
}

// Reward is the exactly-once-per-period payout record. Uniqueness is
// enforced on (user_id, period), where period is the calendar month of the
// distribution time, formatted as "2006-01".
type Reward struct {
	ID            int64     `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Period        string    `json:"period" db:"period"`
	Points        int       `json:"points" db:"points"`
	DistributedAt time.Time `json:"distributed_at" db:"distributed_at"`
}

// OutboxStatus is the lifecycle state of an OutboxEntry.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusFailed  OutboxStatus = "FAILED"
)

// OutboxEntry records a mission-completed event that failed to publish at
// least once, so the sweeper can retry it with backoff.
type OutboxEntry struct {
	ID           int64        `json:"id" db:"id"`
	EventID      string       `json:"event_id" db:"event_id"`
	Topic        string       `json:"topic" db:"topic"`
	Payload      []byte       `json:"payload" db:"payload"`
	Status       OutboxStatus `json:"status" db:"status"`
	RetryCount   int          `json:"retry_count" db:"retry_count"`
	MaxRetries   int          `json:"max_retries" db:"max_retries"`
	NextRetryAt  time.Time    `json:"next_retry_at" db:"next_retry_at"`
	ErrorMessage string       `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// Exhausted reports whether the entry has used up its retry budget.
func (o *OutboxEntry) Exhausted() bool {
	return o.RetryCount >= o.MaxRetries
}
