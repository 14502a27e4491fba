package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harrison/binmeta/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_SucceedsOnLaterAttempt(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0

	got, err := Poll(context.Background(), clk, Options{Attempts: 10, Interval: time.Millisecond, Timeout: time.Second}, func() (string, bool) {
		calls++
		return "ready", calls == 3
	})

	require.NoError(t, err)
	assert.Equal(t, "ready", got)
	assert.Equal(t, 3, calls)
}

func TestPoll_AttemptCap(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0

	_, err := Poll(context.Background(), clk, Options{Attempts: 5, Interval: time.Millisecond, Timeout: time.Hour}, func() (int, bool) {
		calls++
		return 0, false
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 5, calls)
}

func TestPoll_TimeoutBeforeAttemptCap(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0

	_, err := Poll(context.Background(), clk, Options{Attempts: 1000, Interval: 10 * time.Millisecond, Timeout: 50 * time.Millisecond}, func() (int, bool) {
		calls++
		return 0, false
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 5, calls)
}

func TestPoll_ZeroAttempts(t *testing.T) {
	called := false
	_, err := Poll(context.Background(), clock.NewFake(time.Unix(0, 0)), Options{Attempts: 0}, func() (int, bool) {
		called = true
		return 1, true
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.False(t, called)
}

func TestPoll_InvalidOptionsFailFast(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative attempts", Options{Attempts: -1}},
		{"negative interval", Options{Attempts: 1, Interval: -time.Second}},
		{"negative timeout", Options{Attempts: 1, Timeout: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			_, err := Poll(context.Background(), clock.NewFake(time.Unix(0, 0)), tt.opts, func() (int, bool) {
				called = true
				return 0, true
			})
			assert.ErrorIs(t, err, ErrInvalidOptions)
			assert.False(t, called, "probe must not run with invalid options")
		})
	}
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Poll(ctx, clock.NewFake(time.Unix(0, 0)), Options{Attempts: 3, Interval: time.Millisecond}, func() (int, bool) {
		return 0, false
	})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPoll_RealClock(t *testing.T) {
	calls := 0
	got, err := Poll(context.Background(), nil, DefaultOptions(), func() (int, bool) {
		calls++
		return calls, calls >= 2
	})

	require.NoError(t, err)
	assert.Equal(t, 2, got)
}
