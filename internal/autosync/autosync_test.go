package autosync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsRepeatedly(t *testing.T) {
	var runs atomic.Int32
	s, err := New(20*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}, discard())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerKeepsRunningAfterErrors(t *testing.T) {
	var runs atomic.Int32
	s, err := New(20*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("remote unavailable")
	}, discard())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestStopCancelsJobContext(t *testing.T) {
	started := make(chan struct{})
	var once atomic.Bool
	var cancelled atomic.Bool
	s, err := New(time.Hour, func(ctx context.Context) error {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}, discard())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	<-started
	s.Stop()

	assert.Eventually(t, cancelled.Load, time.Second, 10*time.Millisecond)
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := New(0, func(context.Context) error { return nil }, discard())
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
