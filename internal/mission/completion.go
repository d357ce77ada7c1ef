package mission

import (
	"context"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/dberr"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	"github.com/AccelByte/mission-progression-service/internal/store"
)

// CheckAndComplete re-evaluates one mission type for a user against the
// currently active cycle and, if its condition now holds, performs the CAS
// completion transition. won is true only for the call that actually
// flipped the mission from in_progress to completed — the signal the
// caller uses to decide whether to publish a mission-completed event.
func CheckAndComplete(ctx context.Context, s store.EventStore, userID string, t domain.MissionType) (won bool, err error) {
	missions, err := s.ActiveMissions(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(missions) == 0 {
		return false, dberr.CycleNotActive(userID)
	}

	var target *domain.Mission
	for i := range missions {
		if missions[i].Type == t {
			target = &missions[i]
			break
		}
	}
	if target == nil {
		return false, dberr.MissionNotFound(userID, string(t))
	}
	if target.IsCompleted() {
		return false, nil
	}

	satisfied, progress, err := Satisfied(ctx, s, userID, t, target.CycleStart)
	if err != nil {
		return false, err
	}

	if err := s.UpdateProgress(ctx, userID, t, target.CycleStart, progress); err != nil {
		return false, err
	}

	if !satisfied {
		return false, nil
	}

	return s.CompleteMission(ctx, userID, t, target.CycleStart, clock.Now())
}

// AllCompleted reports whether every mission in the user's active cycle is
// completed, the precondition the Reward Distributor checks before
// granting the cycle's payout.
func AllCompleted(ctx context.Context, s store.MissionStore, userID string) (bool, time.Time, error) {
	missions, err := s.ActiveMissions(ctx, userID)
	if err != nil {
		return false, time.Time{}, err
	}
	if len(missions) < len(domain.AllMissionTypes()) {
		return false, time.Time{}, nil
	}
	for _, m := range missions {
		if !m.IsCompleted() {
			return false, time.Time{}, nil
		}
	}
	return true, missions[0].CycleStart, nil
}
