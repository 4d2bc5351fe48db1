package providers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_WithinExpectedBounds(t *testing.T) {
	for attempt := 1; attempt <= 3; attempt++ {
		d := backoff(attempt)
		min := time.Duration(400*(1<<(attempt-1))) * time.Millisecond
		max := min + 250*time.Millisecond
		assert.GreaterOrEqual(t, d, min)
		assert.Less(t, d, max+time.Millisecond)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	assert.Equal(t, ErrorTypeRateLimit, classifyHTTPStatus(http.StatusTooManyRequests))
	assert.Equal(t, ErrorTypeAuth, classifyHTTPStatus(http.StatusUnauthorized))
	assert.Equal(t, ErrorTypeAuth, classifyHTTPStatus(http.StatusForbidden))
	assert.Equal(t, ErrorTypeUpstream5xx, classifyHTTPStatus(http.StatusBadGateway))
	assert.Equal(t, ErrorTypeUnknown, classifyHTTPStatus(http.StatusBadRequest))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(ErrorTypeRateLimit))
	assert.True(t, isRetryable(ErrorTypeUpstream5xx))
	assert.False(t, isRetryable(ErrorTypeAuth))
	assert.False(t, isRetryable(ErrorTypeSchema))
}

func TestDoWithRetry_StopsAfterMaxAttemptsOnRetryableError(t *testing.T) {
	attempts := 0
	_, errType, err := doWithRetry(context.Background(), func(ctx context.Context) (*http.Response, ErrorType, error) {
		attempts++
		return nil, ErrorTypeUpstream5xx, assert.AnError
	})

	assert.Equal(t, maxAttempts, attempts)
	assert.Equal(t, ErrorTypeUpstream5xx, errType)
	assert.Error(t, err)
}

func TestDoWithRetry_DoesNotRetryNonRetryableError(t *testing.T) {
	attempts := 0
	_, errType, err := doWithRetry(context.Background(), func(ctx context.Context) (*http.Response, ErrorType, error) {
		attempts++
		return nil, ErrorTypeAuth, assert.AnError
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, ErrorTypeAuth, errType)
	assert.Error(t, err)
}

func TestDoWithRetry_SucceedsOnSecondAttempt(t *testing.T) {
	attempts := 0
	resp, errType, err := doWithRetry(context.Background(), func(ctx context.Context) (*http.Response, ErrorType, error) {
		attempts++
		if attempts == 1 {
			return nil, ErrorTypeRateLimit, assert.AnError
		}
		return &http.Response{StatusCode: http.StatusOK}, "", nil
	})

	assert.Equal(t, 2, attempts)
	assert.NoError(t, err)
	assert.Empty(t, errType)
	assert.NotNil(t, resp)
}
