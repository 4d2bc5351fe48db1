package llm

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

const maxClassifyAttempts = 3

// isThrottlingOrTransient matches spec §4.4 step 5's retry predicate:
// only errors whose code or message contains a throttling/timeout/
// service-unavailable marker are retried; everything else propagates
// immediately.
func isThrottlingOrTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"throttl", "timeout", "timed out", "service unavailable", "too many requests", "rate limit"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// classifyBackoff implements the "attempt·500 + rand(250) ms" schedule
// for the n-th (1-indexed) retry attempt.
func classifyBackoff(attempt int) time.Duration {
	return time.Duration(attempt*500+rand.Intn(250)) * time.Millisecond
}

// withRetry runs invoke up to maxClassifyAttempts times, retrying only
// on isThrottlingOrTransient errors.
func withRetry(ctx context.Context, invoke func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxClassifyAttempts; attempt++ {
		text, err := invoke(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isThrottlingOrTransient(err) || attempt == maxClassifyAttempts {
			return "", lastErr
		}

		select {
		case <-time.After(classifyBackoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
