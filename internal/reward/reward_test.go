package reward

import (
	"context"
	"testing"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	idmem "github.com/AccelByte/mission-progression-service/internal/idempotency/memory"
	"github.com/AccelByte/mission-progression-service/internal/mission"
	"github.com/AccelByte/mission-progression-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initConfig() mission.InitConfig {
	return mission.InitConfig{LockTTL: time.Second, WaitTimeout: 200 * time.Millisecond, PollInterval: 10 * time.Millisecond}
}

func completeAllMissions(t *testing.T, s *memory.Store, userID string) {
	ctx := context.Background()
	missions, err := s.ActiveMissions(ctx, userID)
	require.NoError(t, err)
	for _, m := range missions {
		_, err := s.CompleteMission(ctx, userID, m.Type, m.CycleStart, clock.Now())
		require.NoError(t, err)
	}
}

func TestDistribute_GrantsExactlyOnce(t *testing.T) {
	s := memory.New()
	k := idmem.New()
	ctx := context.Background()
	s.SeedUser(&domain.User{ID: "u1", Username: "player-one"})
	require.NoError(t, mission.EnsureActiveCycle(ctx, s, k, "u1", initConfig()))

	granted, err := Distribute(ctx, s, "u1", 777)
	require.NoError(t, err)
	assert.False(t, granted, "reward must not be granted before every mission is completed")

	completeAllMissions(t, s, "u1")

	granted, err = Distribute(ctx, s, "u1", 777)
	require.NoError(t, err)
	assert.True(t, granted)

	grantedAgain, err := Distribute(ctx, s, "u1", 777)
	require.NoError(t, err)
	assert.False(t, grantedAgain, "a second distribution attempt for the same cycle must be a no-op")
}
