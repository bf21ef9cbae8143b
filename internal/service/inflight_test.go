package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflight_OneHolderPerKey(t *testing.T) {
	var f inflight

	require.True(t, f.acquire("r1"))
	assert.False(t, f.acquire("r1"), "r1 is already held")
	assert.True(t, f.acquire("r2"))
	f.release("r1")
	f.release("r2")

	assert.True(t, f.acquire("r1"), "released keys can be claimed again")
	f.release("r1")
}

func TestInflight_DrainWaitsForRelease(t *testing.T) {
	var f inflight
	require.True(t, f.acquire("r1"))

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.release("r1")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, f.drain(ctx))
}

func TestInflight_DrainHonoursDeadline(t *testing.T) {
	var f inflight
	require.True(t, f.acquire("stuck"))
	defer f.release("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.drain(ctx), context.DeadlineExceeded)
}
