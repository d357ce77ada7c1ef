// Package reward implements the Reward Distributor (C8): exactly-once
// payout of the fixed point reward once every mission in a cycle is
// completed.
package reward

import (
	"context"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/dberr"
	"github.com/AccelByte/mission-progression-service/internal/mission"
	"github.com/AccelByte/mission-progression-service/internal/store"
)

// Distribute grants the cycle's reward to userID if every mission in the
// active cycle is completed and no reward has been distributed for the
// current calendar-month period yet. It is safe to call repeatedly (e.g.
// once per mission-completed event, since any of the three completions
// could be the one that finishes the cycle): InsertRewardIfAbsent makes the
// grant idempotent. The insert and the points increment run inside one
// transaction so a crash between them never leaves an orphaned Reward row
// blocking every future re-grant for the period.
func Distribute(ctx context.Context, s store.EventStore, userID string, points int) (granted bool, err error) {
	allCompleted, _, err := mission.AllCompleted(ctx, s, userID)
	if err != nil {
		return false, err
	}
	if !allCompleted {
		return false, nil
	}

	now := time.Now().UTC()
	period := clock.Period(now)

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return false, err
	}

	inserted, err := tx.InsertRewardIfAbsent(ctx, userID, period, points, now)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if !inserted {
		_ = tx.Rollback()
		return false, nil
	}

	rowsAffected, err := tx.AddPoints(ctx, userID, points)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if rowsAffected == 0 {
		_ = tx.Rollback()
		return false, dberr.RewardOrphaned(userID, period, nil)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}
