package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkProcessed_OnlyFirstCallerWins(t *testing.T) {
	k := New()
	ctx := context.Background()

	first, err := k.MarkProcessed(ctx, "processed:login:evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := k.MarkProcessed(ctx, "processed:login:evt-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second, "a redelivered event must be reported as a duplicate")
}

func TestMarkProcessed_ExpiresAfterTTL(t *testing.T) {
	k := New()
	ctx := context.Background()

	_, err := k.MarkProcessed(ctx, "k1", time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	again, err := k.MarkProcessed(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, again, "an expired marker must allow reprocessing")
}

func TestTryLock_MutualExclusion(t *testing.T) {
	k := New()
	ctx := context.Background()

	acquired, err := k.TryLock(ctx, "lock:mission-init:u1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	blocked, err := k.TryLock(ctx, "lock:mission-init:u1", time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, k.Unlock(ctx, "lock:mission-init:u1"))

	reacquired, err := k.TryLock(ctx, "lock:mission-init:u1", time.Minute)
	require.NoError(t, err)
	assert.True(t, reacquired)
}
