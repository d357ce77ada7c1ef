package api

import (
	"context"
	"log/slog"
	"os"
	"testing"

	busmem "github.com/AccelByte/mission-progression-service/internal/bus/memory"
	storemem "github.com/AccelByte/mission-progression-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestPublishLogin_DispatchesOntoTheBus(t *testing.T) {
	b := busmem.New()
	svc := New(storemem.New(), b, testLogger())
	ctx := context.Background()

	received := make(chan struct{})
	_, err := b.Subscribe(ctx, "mission-login-event", "test", func(ctx context.Context, eventID string, payload []byte) error {
		close(received)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, svc.PublishLogin(ctx, "u1"))
	<-received
}

func TestGetMissions_EmptySliceWhenNoCycleOpened(t *testing.T) {
	svc := New(storemem.New(), busmem.New(), testLogger())
	missions, err := svc.GetMissions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, missions)
	assert.NotNil(t, missions, "the HTTP layer must see an empty slice, not a null JSON field")
}

func TestEnsureUser_ReturnsNilForUnknownUser(t *testing.T) {
	svc := New(storemem.New(), busmem.New(), testLogger())
	u, err := svc.EnsureUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestEnsureGame_IsInsertIfAbsent(t *testing.T) {
	svc := New(storemem.New(), busmem.New(), testLogger())
	ctx := context.Background()

	g1, err := svc.EnsureGame(ctx, "Valorant")
	require.NoError(t, err)
	g2, err := svc.EnsureGame(ctx, "Valorant")
	require.NoError(t, err)
	assert.Equal(t, g1.ID, g2.ID)
}
