package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "conflict", err: ErrConflict, want: true},
		{name: "wrapped conflict", err: fmt.Errorf("assign: %w", ErrConflict), want: true},
		{name: "not found", err: ErrNotFound, want: false},
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, want: true},
		{name: "deadlock", err: &pq.Error{Code: "40P01"}, want: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: false},
		{name: "sqlite busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: true},
		{name: "sqlite locked", err: sqlite3.Error{Code: sqlite3.ErrLocked}, want: true},
		{name: "sqlite constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, want: false},
		{name: "plain", err: errors.New("disk on fire"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "40001"}))
	assert.False(t, isUniqueViolation(errors.New("nope")))
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, "pick", func() error {
			calls++
			if calls < 3 {
				return ErrConflict
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		permanent := errors.New("not your turn")
		calls := 0
		err := Retry(context.Background(), cfg, "pick", func() error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausted attempts stay transient", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), cfg, "pick", func() error {
			calls++
			return ErrConflict
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, IsTransient(err))
		assert.Contains(t, err.Error(), "pick failed after 3 attempts")
	})

	t.Run("context cancelled between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Retry(ctx, RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour}, "pick", func() error {
			calls++
			cancel()
			return ErrConflict
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), RetryConfig{}, "pick", func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("backoff waits on the configured clock", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var calls atomic.Int32
		done := make(chan error, 1)
		go func() {
			done <- Retry(ctx, RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, Clock: clock}, "pick", func() error {
				if calls.Add(1) < 3 {
					return ErrConflict
				}
				return nil
			})
		}()

		// linear backoff: one hour, then two
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		assert.Equal(t, int32(1), calls.Load())
		clock.Advance(time.Hour)

		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		assert.Equal(t, int32(2), calls.Load())
		clock.Advance(2 * time.Hour)

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-ctx.Done():
			t.Fatal("retry did not finish")
		}
		assert.Equal(t, int32(3), calls.Load())
	})
}
