package outbox

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/bus"
	busmem "github.com/AccelByte/mission-progression-service/internal/bus/memory"
	storemem "github.com/AccelByte/mission-progression-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestEnqueue_IsIdempotentOnEventID(t *testing.T) {
	s := storemem.New()
	ctx := context.Background()

	err := Enqueue(ctx, s, "evt-1", bus.TopicMissionCompleted, []byte("payload"), 10, 30*time.Second, assertErr("boom"))
	require.NoError(t, err)
	err = Enqueue(ctx, s, "evt-1", bus.TopicMissionCompleted, []byte("payload"), 10, 30*time.Second, assertErr("boom again"))
	require.NoError(t, err)

	due, err := s.DueOutboxEntries(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
}

func TestSweep_DeletesEntryOnSuccessfulRetry(t *testing.T) {
	s := storemem.New()
	b := busmem.New()
	ctx := context.Background()

	require.NoError(t, Enqueue(ctx, s, "evt-1", bus.TopicMissionCompleted, []byte("payload"), 10, 0, assertErr("boom")))

	sweeper := NewSweeper(s, b, 30*time.Second, 10, testLogger())
	require.NoError(t, sweeper.Sweep(ctx))

	due, err := s.DueOutboxEntries(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "a successful retry must remove the outbox entry")
}

func TestSweep_ReschedulesOnFailure(t *testing.T) {
	s := storemem.New()
	b := busmem.New()
	ctx := context.Background()
	b.FailNextPublish(bus.TopicMissionCompleted)

	require.NoError(t, Enqueue(ctx, s, "evt-1", bus.TopicMissionCompleted, []byte("payload"), 10, 0, assertErr("boom")))

	sweeper := NewSweeper(s, b, 30*time.Second, 10, testLogger())
	require.NoError(t, sweeper.Sweep(ctx))

	due, err := s.DueOutboxEntries(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "the entry must not be due again until its new backoff elapses")

	due, err = s.DueOutboxEntries(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].RetryCount)
}

type assertErrType string

func assertErr(msg string) error { return assertErrType(msg) }

func (e assertErrType) Error() string { return string(e) }
