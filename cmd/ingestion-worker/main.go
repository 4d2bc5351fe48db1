// cmd/ingestion-worker consumes the ingestion dispatch queue of spec
// §4.3: one message per ingestion run, fanned out across the
// configured news-provider adapters and persisted through
// internal/store/rdsdata.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/platform"
	"github.com/claro-ops/media-intel/pkg/ingestion"
	"github.com/claro-ops/media-intel/pkg/metrics"
	"github.com/claro-ops/media-intel/pkg/providers"
)

// visibilityTimeoutSeconds bounds how long one ingestion dispatch may
// run (fan-out across every provider adapter, one target at a time)
// before SQS considers it abandoned and redelivers it.
const visibilityTimeoutSeconds = 300

const shutdownGrace = 10 * time.Second

func main() {
	logger, err := platform.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	aws, err := platform.NewAWS(ctx, cfg.AWS)
	if err != nil {
		logger.Fatal("build aws clients", zap.Error(err))
	}

	creds, err := resolveProviderCredentials(ctx, aws.Secrets, cfg.Providers)
	if err != nil {
		logger.Fatal("resolve provider credentials", zap.Error(err))
	}

	worker := ingestion.NewWorker(
		platform.Store(aws, cfg.Database),
		providers.NewRegistry(creds),
		platform.ObjectStore(aws),
		cfg.Storage.RawBucketName,
		cfg.Ingestion,
		logger,
	)
	q := platform.Queue(aws, cfg.Queues.IngestionQueueURL)

	inst, err := platform.NewInstrumentation("ingestion-worker")
	if err != nil {
		logger.Fatal("build instrumentation", zap.Error(err))
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
	metricsServer.StartAsync()

	logger.Info("ingestion worker started", zap.String("queue", cfg.Queues.IngestionQueueURL))

	platform.RunQueueLoop(ctx, q, visibilityTimeoutSeconds, logger, inst, func(ctx context.Context, body string) error {
		var msg ingestion.DispatchMessage
		if err := json.Unmarshal([]byte(body), &msg); err != nil {
			return fmt.Errorf("unmarshal dispatch message: %w", err)
		}
		result, err := worker.Run(ctx, msg)
		if err != nil {
			return err
		}
		logger.Info("ingestion run complete",
			zap.String("run_id", result.RunID.String()),
			zap.String("status", string(result.Status)),
			zap.Int("items_persisted", result.PersistedTotal))
		return nil
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", zap.Error(err))
	}
}

// resolveProviderCredentials fetches each configured provider's API key
// from Secrets Manager; an empty ARN resolves to an empty key (the
// adapter still registers, per pkg/providers.NewRegistry's doc comment,
// it just fails auth on every fetch).
func resolveProviderCredentials(ctx context.Context, secrets secretGetter, cfg config.ProvidersConfig) (providers.Credentials, error) {
	var creds providers.Credentials
	var err error

	if creds.NewsAPIKey, err = secretOrEmpty(ctx, secrets, cfg.NewsAPIKeySecretARN); err != nil {
		return creds, err
	}
	if creds.BingNewsKey, err = secretOrEmpty(ctx, secrets, cfg.BingNewsKeySecretARN); err != nil {
		return creds, err
	}
	if creds.MediastackKey, err = secretOrEmpty(ctx, secrets, cfg.MediastackKeySecretARN); err != nil {
		return creds, err
	}
	if creds.NewsdataKey, err = secretOrEmpty(ctx, secrets, cfg.NewsdataKeySecretARN); err != nil {
		return creds, err
	}
	if creds.GNewsKey, err = secretOrEmpty(ctx, secrets, cfg.GNewsKeySecretARN); err != nil {
		return creds, err
	}
	return creds, nil
}

type secretGetter interface {
	Get(ctx context.Context, secretARN string) (string, error)
}

func secretOrEmpty(ctx context.Context, secrets secretGetter, arn string) (string, error) {
	if arn == "" {
		return "", nil
	}
	return secrets.Get(ctx, arn)
}
