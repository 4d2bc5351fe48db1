package awsconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithRegion(t *testing.T) {
	cfg, err := Load(context.Background(), "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestLoad_NoRegionOverride(t *testing.T) {
	_, err := Load(context.Background(), "")
	require.NoError(t, err)
}

func TestSecretCache_InvalidateSingle(t *testing.T) {
	c := NewSecretCache(nil)
	c.values["arn:a"] = "secret-a"
	c.values["arn:b"] = "secret-b"

	c.Invalidate("arn:a")

	_, hasA := c.values["arn:a"]
	_, hasB := c.values["arn:b"]
	assert.False(t, hasA)
	assert.True(t, hasB)
}

func TestSecretCache_InvalidateAll(t *testing.T) {
	c := NewSecretCache(nil)
	c.values["arn:a"] = "secret-a"
	c.values["arn:b"] = "secret-b"

	c.Invalidate("")

	assert.Empty(t, c.values)
}
