package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDispatcherRunsTask(t *testing.T) {
	d := New(2)
	var got atomic.Int32
	d.Register("record", func(ctx context.Context, conversationID int32) error {
		got.Store(conversationID)
		return nil
	}, DefaultRetryPolicy)
	d.Start(context.Background())

	require.NoError(t, d.Enqueue("record", 42))
	waitFor(t, func() bool { return got.Load() == 42 })
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	d := New(2)
	var attempts atomic.Int32
	d.Register("flaky", func(ctx context.Context, conversationID int32) error {
		if attempts.Add(1) < 3 {
			return errors.New("model timeout")
		}
		return nil
	}, RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond})
	d.Start(context.Background())

	require.NoError(t, d.Enqueue("flaky", 1))
	waitFor(t, func() bool { return attempts.Load() == 3 })
	// Settled after success; no further attempts.
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestDispatcherDoesNotRetryPermanentFailure(t *testing.T) {
	d := New(2)
	var attempts atomic.Int32
	d.Register("gone", func(ctx context.Context, conversationID int32) error {
		attempts.Add(1)
		return Permanent(errors.New("conversation deleted"))
	}, RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Millisecond})
	d.Start(context.Background())

	require.NoError(t, d.Enqueue("gone", 1))
	waitFor(t, func() bool { return attempts.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	d := New(2)
	var attempts atomic.Int32
	d.Register("explosive", func(ctx context.Context, conversationID int32) error {
		attempts.Add(1)
		panic("boom")
	}, RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond})
	d.Start(context.Background())

	require.NoError(t, d.Enqueue("explosive", 1))
	// A panic counts as a transient failure and is retried up to the bound.
	waitFor(t, func() bool { return attempts.Load() == 2 })
}

func TestEnqueueUnknownTask(t *testing.T) {
	d := New(1)
	err := d.Enqueue("nonexistent", 1)
	require.Error(t, err)
}

func TestShutdownDrainsInFlightTasks(t *testing.T) {
	d := New(2)
	started := make(chan struct{})
	var finished atomic.Bool
	d.Register("slow", func(ctx context.Context, conversationID int32) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	}, DefaultRetryPolicy)
	d.Start(context.Background())

	require.NoError(t, d.Enqueue("slow", 1))
	<-started

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(shutdownCtx))
	assert.True(t, finished.Load())

	require.Error(t, d.Enqueue("slow", 2))
}

func TestPermanentWrapping(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	err := Permanent(errors.New("missing"))
	assert.ErrorIs(t, err, ErrPermanent)
}
