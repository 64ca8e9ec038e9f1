package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunOnce_ContinuesAfterFailure(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var seen []time.Time
	boom := errors.New("boom")

	s := New(time.Minute, zap.NewNop(),
		Task{Name: "units", Run: func(_ context.Context, now time.Time) (int, error) {
			seen = append(seen, now)
			return 0, boom
		}},
		Task{Name: "requests", Run: func(_ context.Context, now time.Time) (int, error) {
			seen = append(seen, now)
			return 3, nil
		}},
	)
	s.now = func() time.Time { return at }

	counts, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, counts["requests"])
	assert.Equal(t, []time.Time{at, at}, seen)
}

func TestStart_StopsOnCancel(t *testing.T) {
	var runs atomic.Int32
	s := New(5*time.Millisecond, zap.NewNop(), Task{Name: "tick", Run: func(context.Context, time.Time) (int, error) {
		runs.Add(1)
		return 0, nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestStart_RejectsZeroInterval(t *testing.T) {
	assert.Error(t, New(0, zap.NewNop()).Start(context.Background()))
}
