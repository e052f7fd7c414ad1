package main

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHashFrom(t *testing.T) {
	hash, err := hashFrom(strings.NewReader("s3cret-passw0rd\n"))

	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("s3cret-passw0rd", hash))
}

func TestHashFrom_TooShort(t *testing.T) {
	_, err := hashFrom(strings.NewReader("short"))

	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

type countingSweeper struct {
	sweeps atomic.Int32
}

func (c *countingSweeper) Sweep(time.Duration) int {
	c.sweeps.Add(1)
	return 1
}

func (c *countingSweeper) Len() int { return 0 }

func TestSweepSessions_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	counter := &countingSweeper{}
	done := make(chan struct{})

	go func() {
		defer close(done)
		sweepSessions(ctx, time.Millisecond, time.Hour, zap.NewNop(), counter)
	}()

	require.Eventually(t, func() bool { return counter.sweeps.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestSweepSessions_Disabled(t *testing.T) {
	carts := session.NewRegistry(func(id string) *struct{} { return &struct{}{} })
	carts.Get("a")

	sweepSessions(context.Background(), 0, time.Hour, zap.NewNop(), carts)

	assert.Equal(t, 1, carts.Len())
}
