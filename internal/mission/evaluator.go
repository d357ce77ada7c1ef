package mission

import (
	"context"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	"github.com/AccelByte/mission-progression-service/internal/store"
)

// MinScoreSum is the strict lower bound the summed score of qualifying play
// sessions must exceed for the score-over-1000 mission.
const MinScoreSum = 1000

// RequiredCount is how many qualifying facts each mission type needs to be
// satisfied: 3 consecutive login days, 3 distinct games, 3 scoring sessions.
const RequiredCount = 3

// Satisfied re-derives whether a mission's completion condition currently
// holds, always recomputing from the Event Store rather than trusting the
// mission row's cached progress value. Facts are read from the rolling
// CycleWindowDays window ending now; cycleStart does not narrow it, so facts
// recorded in the days before the cycle opened still count.
func Satisfied(ctx context.Context, s store.FactStore, userID string, t domain.MissionType, cycleStart time.Time) (bool, int, error) {
	since := clock.CycleWindowStart(clock.Now())

	switch t {
	case domain.MissionLoginConsecutive:
		days, err := s.LoginDaysSince(ctx, userID, since)
		if err != nil {
			return false, 0, err
		}
		streak := consecutiveStreak(days)
		return streak >= RequiredCount, streak, nil

	case domain.MissionLaunchDistinct:
		count, err := s.DistinctGamesSince(ctx, userID, since)
		if err != nil {
			return false, 0, err
		}
		return count >= RequiredCount, count, nil

	case domain.MissionPlayScoreOver:
		count, sum, err := s.PlaySessionStatsSince(ctx, userID, since)
		if err != nil {
			return false, 0, err
		}
		return count >= RequiredCount && sum > MinScoreSum, count, nil

	default:
		return false, 0, nil
	}
}

// consecutiveStreak counts how many days in a row, anchored on the most
// recent login, the user logged in with no gap. days may be in any order:
// a copy is sorted most recent first below. Duplicate dates are already
// impossible (insert-if-absent on the date).
func consecutiveStreak(days []domain.LoginDay) int {
	if len(days) == 0 {
		return 0
	}
	sorted := append([]domain.LoginDay(nil), days...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].LoginDate.After(sorted[j-1].LoginDate); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	streak := 1
	expected := sorted[0].LoginDate.AddDate(0, 0, -1)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].LoginDate.Equal(expected) {
			streak++
			expected = expected.AddDate(0, 0, -1)
			continue
		}
		break
	}
	return streak
}
