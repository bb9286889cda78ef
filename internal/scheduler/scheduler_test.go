package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyRejectsBadSpec(t *testing.T) {
	var runs atomic.Int32
	err := Daily(context.Background(), "at nine", "jobs", func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)
	require.Error(t, err)
	assert.Zero(t, runs.Load())
}

func TestDailyRunsImmediatelyAndOnSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Daily(ctx, "@every 1s", "jobs", func(context.Context) error {
			if runs.Add(1) == 1 {
				return errors.New("first run fails")
			}
			return nil
		}, nil)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestDailyStopsWhenCancelledDuringInitialRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	err := Daily(ctx, "0 9 * * *", "jobs", func(context.Context) error {
		runs.Add(1)
		cancel()
		return context.Canceled
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), runs.Load())
}
