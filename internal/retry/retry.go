// Package retry provides a bounded polling combinator used to wait for
// collaborators that may appear late, such as a template file that is still
// being synced or an expansion service that is still starting.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrison/binmeta/internal/clock"
)

var (
	// ErrInvalidOptions is returned when Options carries a negative value.
	ErrInvalidOptions = errors.New("invalid retry options")

	// ErrExhausted is returned when every attempt was made without success.
	ErrExhausted = errors.New("retry attempts exhausted")

	// ErrTimeout is returned when the overall timeout elapsed first.
	ErrTimeout = errors.New("retry timed out")
)

// Options bounds a polling loop. Polling stops at whichever limit comes first.
type Options struct {
	// Attempts is the maximum number of probe calls.
	Attempts int
	// Interval is the pause between two probe calls.
	Interval time.Duration
	// Timeout caps the whole loop (0 = no overall timeout).
	Timeout time.Duration
}

// DefaultOptions mirrors the limits used when waiting for vault collaborators.
func DefaultOptions() Options {
	return Options{
		Attempts: 1000,
		Interval: time.Millisecond,
		Timeout:  time.Second,
	}
}

// Validate rejects option values that indicate a programming error.
func (o Options) Validate() error {
	if o.Attempts < 0 {
		return fmt.Errorf("%w: attempts must be >= 0, got %d", ErrInvalidOptions, o.Attempts)
	}
	if o.Interval < 0 {
		return fmt.Errorf("%w: interval must be >= 0, got %v", ErrInvalidOptions, o.Interval)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be >= 0, got %v", ErrInvalidOptions, o.Timeout)
	}
	return nil
}

// Poll calls probe until it reports ok, the attempt cap is reached, the
// timeout elapses or ctx is cancelled. Invalid options fail before probe is
// ever called.
func Poll[T any](ctx context.Context, clk clock.Clock, opts Options, probe func() (T, bool)) (T, error) {
	var zero T

	if err := opts.Validate(); err != nil {
		return zero, err
	}
	if clk == nil {
		clk = clock.Real{}
	}

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		deadline = clk.After(opts.Timeout)
	}

	for i := 0; i < opts.Attempts; i++ {
		if v, ok := probe(); ok {
			return v, nil
		}

		if err := stopped(ctx, deadline); err != nil {
			return zero, err
		}
		clk.Sleep(opts.Interval)
		if err := stopped(ctx, deadline); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts", ErrExhausted, opts.Attempts)
}

func stopped(ctx context.Context, deadline <-chan time.Time) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline:
		return ErrTimeout
	default:
		return nil
	}
}
