package mission

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	idmem "github.com/AccelByte/mission-progression-service/internal/idempotency/memory"
	"github.com/AccelByte/mission-progression-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultInitConfig() InitConfig {
	return InitConfig{LockTTL: time.Second, WaitTimeout: 200 * time.Millisecond, PollInterval: 10 * time.Millisecond}
}

func TestEnsureActiveCycle_CreatesFixedMissionSet(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()

	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))

	missions, err := s.ActiveMissions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, missions, 3)
}

func TestEnsureActiveCycle_IsNoOpWhenCycleAlreadyActive(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()

	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))
	before, _ := s.ActiveMissions(ctx, "u1")

	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))
	after, _ := s.ActiveMissions(ctx, "u1")

	assert.Equal(t, before, after)
}

func TestEnsureActiveCycle_OpensFreshCycleOnceAllCompleted(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()

	// The exhausted cycle opened yesterday: the cycle start is a date and part
	// of each mission's unique key, so a second cycle cannot open on the same
	// day as the first.
	_, err := s.InsertMissionsIfAbsent(ctx, "u1", domain.AllMissionTypes(), clock.Today().AddDate(0, 0, -1))
	require.NoError(t, err)
	missions, _ := s.ActiveMissions(ctx, "u1")
	cycleStart := missions[0].CycleStart
	for _, m := range missions {
		_, err := s.CompleteMission(ctx, "u1", m.Type, cycleStart, clock.Now())
		require.NoError(t, err)
	}

	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))

	fresh, err := s.ActiveMissions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
	for _, m := range fresh {
		assert.False(t, m.IsCompleted(), "the fresh cycle's missions must start in progress")
	}
}

func TestCheckAndComplete_LoginStreak(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()
	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))

	today := clock.Today()
	for i := 0; i < 3; i++ {
		_, err := s.RecordLogin(ctx, "u1", today.AddDate(0, 0, -i), fmt.Sprintf("evt-login-%d", i))
		require.NoError(t, err)
	}

	won, err := CheckAndComplete(ctx, s, "u1", domain.MissionLoginConsecutive)
	require.NoError(t, err)
	assert.True(t, won)

	wonAgain, err := CheckAndComplete(ctx, s, "u1", domain.MissionLoginConsecutive)
	require.NoError(t, err)
	assert.False(t, wonAgain, "a mission already completed must not win twice")
}

func TestCheckAndComplete_BrokenStreakNeverCompletes(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()
	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))

	today := clock.Today()
	_, err := s.RecordLogin(ctx, "u1", today, "evt-1")
	require.NoError(t, err)
	_, err = s.RecordLogin(ctx, "u1", today.AddDate(0, 0, -3), "evt-2")
	require.NoError(t, err)

	won, err := CheckAndComplete(ctx, s, "u1", domain.MissionLoginConsecutive)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestCheckAndComplete_PlayScoreCompletesOnSumNotIndividualScore(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()
	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))

	now := clock.Now()
	for i, score := range []int{400, 400, 200} {
		_, err := s.RecordPlaySession(ctx, "u1", "g1", fmt.Sprintf("evt-play-%d", i), score, now)
		require.NoError(t, err)
	}

	won, err := CheckAndComplete(ctx, s, "u1", domain.MissionPlayScoreOver)
	require.NoError(t, err)
	assert.False(t, won, "3 sessions summing to exactly 1000 must not complete the mission (strict inequality)")

	_, err = s.RecordPlaySession(ctx, "u1", "g1", "evt-play-3", 1, now)
	require.NoError(t, err)

	won, err = CheckAndComplete(ctx, s, "u1", domain.MissionPlayScoreOver)
	require.NoError(t, err)
	assert.True(t, won, "sum of 1001 across 4 low-score sessions must complete the mission")
}

func TestCheckAndComplete_PlayScoreNeedsThreeSessionsRegardlessOfSum(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()
	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))

	now := clock.Now()
	_, err := s.RecordPlaySession(ctx, "u1", "g1", "evt-play-0", 5000, now)
	require.NoError(t, err)

	won, err := CheckAndComplete(ctx, s, "u1", domain.MissionPlayScoreOver)
	require.NoError(t, err)
	assert.False(t, won, "a single high-score session must not complete the mission; count >= 3 is required too")
}

func TestAllCompleted(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()
	require.NoError(t, EnsureActiveCycle(ctx, s, k, "u1", defaultInitConfig()))

	done, _, err := AllCompleted(ctx, s, "u1")
	require.NoError(t, err)
	assert.False(t, done)

	missions, _ := s.ActiveMissions(ctx, "u1")
	cycleStart := missions[0].CycleStart
	for _, m := range missions {
		_, err := s.CompleteMission(ctx, "u1", m.Type, cycleStart, clock.Now())
		require.NoError(t, err)
	}

	done, gotCycleStart, err := AllCompleted(ctx, s, "u1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, cycleStart, gotCycleStart)
}
