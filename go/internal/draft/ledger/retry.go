package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// RetryConfig bounds how often a transient failure is retried
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`

	// Clock times the backoff; nil uses the real clock
	Clock clockwork.Clock `yaml:"-"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   25 * time.Millisecond,
	}
}

// Retry runs fn until it succeeds, returns a non-transient error, or
// MaxAttempts is reached. The delay grows linearly with the attempt number.
func Retry(ctx context.Context, cfg RetryConfig, op string, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := cfg.BaseDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-clock.After(delay):
			}
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				log.Info().
					Str("op", op).
					Int("attempt", attempt+1).
					Msg("succeeded after retry")
			}
			return nil
		}
		if !IsTransient(err) {
			return err
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt+1).
			Msg("transient storage failure, retrying")
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}
