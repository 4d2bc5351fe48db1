package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNotifier_DisabledWithoutTokenOrChannel(t *testing.T) {
	assert.False(t, New("", "", zap.NewNop()).Enabled())
	assert.False(t, New("xoxb-token", "", zap.NewNop()).Enabled())
	assert.False(t, New("", "#reports", zap.NewNop()).Enabled())
}

func TestNotifier_EnabledWithBothConfigured(t *testing.T) {
	assert.True(t, New("xoxb-token", "#reports", zap.NewNop()).Enabled())
}

func TestNotifier_NotifyPendingReviewNoopWhenDisabled(t *testing.T) {
	n := New("", "", zap.NewNop())
	n.NotifyPendingReview(context.Background(), "run-1", "daily", 0.5, 0.65)
}
