package download

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ytget/yt-audio-bot/internal/logging"
	"github.com/ytget/yt-audio-bot/internal/model"
)

// RetryConfig controls whole-job retries
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig retries transient failures twice
var DefaultRetryConfig = RetryConfig{
	MaxRetries:  2,
	InitialWait: 2 * time.Second,
	MaxWait:     20 * time.Second,
	Multiplier:  2.0,
}

// RetryDo runs fn until it succeeds, fails with a non-transient error, or
// MaxRetries retries are spent. Waits grow exponentially between attempts.
func RetryDo[T any](ctx context.Context, rc RetryConfig, log logrus.FieldLogger, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= rc.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, ctx.Err()
		}

		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !model.IsTransient(err) {
			return zero, err
		}

		if attempt < rc.MaxRetries {
			wait := backoff(rc, attempt)
			log.WithFields(logrus.Fields{
				logging.FieldAttempt: attempt + 1,
				"wait":               wait,
			}).Warnf("Transient failure, retrying: %v", err)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return zero, lastErr
			}
		}
	}
	return zero, lastErr
}

// backoff returns the wait before the retry following attempt
func backoff(rc RetryConfig, attempt int) time.Duration {
	multiplier := rc.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	wait := time.Duration(float64(rc.InitialWait) * math.Pow(multiplier, float64(attempt)))
	if rc.MaxWait > 0 && wait > rc.MaxWait {
		wait = rc.MaxWait
	}
	return wait
}
