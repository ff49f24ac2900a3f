package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipico/palette-api/internal/testutil/mockstore"
)

func TestNewSchedulerCron(t *testing.T) {
	s := NewSweeper(&mockstore.MockStorage{}, 0, nil)

	sched, err := NewScheduler(s, "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCron, sched.cron)

	_, err = NewScheduler(s, "not a cron", nil)
	assert.Error(t, err)
}

func TestSchedulerNext(t *testing.T) {
	sched, err := NewScheduler(NewSweeper(&mockstore.MockStorage{}, 0, nil), "0 3 * * *", nil)
	require.NoError(t, err)

	next, err := sched.Next(time.Date(2026, 6, 1, 2, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC), next)

	next, err = sched.Next(time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 2, 3, 0, 0, 0, time.UTC), next, "a tick at t itself is skipped")
}

// TestSchedulerRunsSweepOnTick drives the scheduler with a fake timer and
// checks one sweep runs per tick.
func TestSchedulerRunsSweepOnTick(t *testing.T) {
	mock := &mockstore.MockStorage{}
	sched, err := NewScheduler(NewSweeper(mock, 0, nil), "0 3 * * *", nil)
	require.NoError(t, err)

	sched.now = func() time.Time { return time.Date(2026, 6, 1, 2, 0, 0, 0, time.UTC) }
	waits := make(chan time.Duration, 4)
	ticks := make(chan time.Time)
	sched.after = func(d time.Duration) <-chan time.Time {
		waits <- d
		return ticks
	}

	stop, err := sched.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Hour, <-waits)
	ticks <- time.Time{}
	assert.Equal(t, time.Hour, <-waits, "scheduler waits for the next tick after sweeping")
	assert.Equal(t, 1, mock.Calls("DeleteSessionsIdleSince"))

	stop()
	assert.Equal(t, 1, mock.Calls("DeleteSessionsIdleSince"))
}

func TestSchedulerSingleInstance(t *testing.T) {
	sched, err := NewScheduler(NewSweeper(&mockstore.MockStorage{}, 0, nil), "", nil)
	require.NoError(t, err)
	sched.after = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	stop, err := sched.Start(context.Background())
	require.NoError(t, err)

	_, err = sched.Start(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerRunning)

	stop()

	stop, err = sched.Start(context.Background())
	require.NoError(t, err, "scheduler can restart after stopping")
	stop()
}

func TestSchedulerStopsWithContext(t *testing.T) {
	sched, err := NewScheduler(NewSweeper(&mockstore.MockStorage{}, 0, nil), "", nil)
	require.NoError(t, err)
	sched.after = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	ctx, cancel := context.WithCancel(context.Background())
	stop, err := sched.Start(ctx)
	require.NoError(t, err)

	cancel()
	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
