package memory

import (
	"context"
	"testing"

	"github.com/AccelByte/mission-progression-service/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSync_DeliversToSubscriber(t *testing.T) {
	b := New()
	ctx := context.Background()

	var received []byte
	_, err := b.Subscribe(ctx, bus.TopicMissionLogin, "mission-service", func(ctx context.Context, eventID string, payload []byte) error {
		received = payload
		return nil
	})
	require.NoError(t, err)

	err = b.PublishSync(ctx, bus.TopicMissionLogin, "u1", "evt-1", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), received)
}

func TestPublishSync_FailNextPublish(t *testing.T) {
	b := New()
	ctx := context.Background()
	b.FailNextPublish(bus.TopicMissionCompleted)

	err := b.PublishSync(ctx, bus.TopicMissionCompleted, "u1", "evt-1", []byte("x"))
	assert.Error(t, err)

	err = b.PublishSync(ctx, bus.TopicMissionCompleted, "u1", "evt-2", []byte("x"))
	assert.NoError(t, err, "the simulated failure should only affect the next publish")
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	b := New()
	ctx := context.Background()
	calls := 0
	unsubscribe, err := b.Subscribe(ctx, bus.TopicMissionLogin, "g", func(ctx context.Context, eventID string, payload []byte) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	unsubscribe()

	require.NoError(t, b.PublishSync(ctx, bus.TopicMissionLogin, "u1", "evt-1", []byte("x")))
	assert.Equal(t, 0, calls)
}
