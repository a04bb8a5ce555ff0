// internal/llm/retry.go
package llm

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// transientPhrases are provider error fragments worth retrying. Anything
// else (auth failures, bad requests, quota exhaustion) fails immediately.
var transientPhrases = []string{
	"rate limit",
	"429",
	"timeout",
	"timed out",
	"503",
	"overloaded",
	"connection reset",
	"connection refused",
	"service unavailable",
	"temporarily unavailable",
}

// isTransient reports whether the provider error looks like a passing
// condition.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// callWithRetry runs fn up to maxRetries+1 times, backing off exponentially
// with jitter between transient failures.
func callWithRetry[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == maxRetries {
			return zero, err
		}

		delay := baseDelay * time.Duration(1<<attempt)
		delay += time.Duration(rand.Int63n(int64(baseDelay)))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}
