// Package awsconfig loads the shared aws-sdk-go-v2 config used to build
// every AWS client in the core (S3, SQS, SES, RDS Data API, Bedrock),
// and memoizes Secrets Manager reads so a hot path never re-fetches a
// secret it already resolved.
package awsconfig

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfigsdk "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Load builds the default aws-sdk-go-v2 config for the given region,
// using the standard credential chain (env vars, shared config, IAM
// role) the way every AWS-backed adapter in this core expects.
func Load(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfigsdk.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfigsdk.WithRegion(region))
	}

	cfg, err := awsconfigsdk.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// SecretCache memoizes Secrets Manager GetSecretValue calls so workers
// that resolve the same secret ARN repeatedly (e.g. the DB_SECRET_ARN
// used by every RDS Data API call) don't round-trip to Secrets Manager
// on every request.
type SecretCache struct {
	client *secretsmanager.Client
	mu     sync.RWMutex
	values map[string]string
}

// NewSecretCache builds a cache backed by the given Secrets Manager client.
func NewSecretCache(client *secretsmanager.Client) *SecretCache {
	return &SecretCache{client: client, values: make(map[string]string)}
}

// Get resolves a secret's string value, consulting the cache first.
func (c *SecretCache) Get(ctx context.Context, secretARN string) (string, error) {
	c.mu.RLock()
	if v, ok := c.values[secretARN]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	out, err := c.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret %s: %w", secretARN, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretARN)
	}

	c.mu.Lock()
	c.values[secretARN] = *out.SecretString
	c.mu.Unlock()

	return *out.SecretString, nil
}

// clearCache drops every memoized secret, forcing the next Get to
// re-fetch from Secrets Manager. Used after a rotation notification.
func (c *SecretCache) clearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]string)
}

// Invalidate drops a single memoized secret, or the whole cache when
// secretARN is empty.
func (c *SecretCache) Invalidate(secretARN string) {
	if secretARN == "" {
		c.clearCache()
		return
	}
	c.mu.Lock()
	delete(c.values, secretARN)
	c.mu.Unlock()
}
