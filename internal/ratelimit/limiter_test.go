// SPDX-License-Identifier: MIT

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/shotplan/internal/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func TestLimiter_UnthrottledProfile(t *testing.T) {
	l := New([]payload.Profile{{Name: "free"}})
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(shortCtx(t), "free"))
	}
	require.NoError(t, l.Wait(shortCtx(t), "unknown"))
}

func TestLimiter_BurstThenBlock(t *testing.T) {
	l := New([]payload.Profile{{Name: "slow", RatePerSecond: 0.001, Burst: 2}})
	require.NoError(t, l.Wait(shortCtx(t), "slow"))
	require.NoError(t, l.Wait(shortCtx(t), "slow"))
	assert.Error(t, l.Wait(shortCtx(t), "slow"))
}

func TestLimiter_WaitHonoursCanceledContext(t *testing.T) {
	l := New([]payload.Profile{{Name: "slow", RatePerSecond: 0.001}})
	require.NoError(t, l.Wait(shortCtx(t), "slow"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, "slow"))
}

func TestLimiter_SetReplaces(t *testing.T) {
	l := New([]payload.Profile{{Name: "p", RatePerSecond: 0.001}})
	require.NoError(t, l.Wait(shortCtx(t), "p"))
	require.Error(t, l.Wait(shortCtx(t), "p"))

	l.Set(payload.Profile{Name: "p"})
	assert.NoError(t, l.Wait(shortCtx(t), "p"))
}
