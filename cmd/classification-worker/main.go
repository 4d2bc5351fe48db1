// cmd/classification-worker consumes the classification dispatch queue
// of spec §4.4: render the prompt, invoke the configured model backend,
// validate the result, and upsert it.
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
	"github.com/claro-ops/media-intel/pkg/classification"
	"github.com/claro-ops/media-intel/pkg/llm"
	"github.com/claro-ops/media-intel/pkg/metrics"
)

// visibilityTimeoutSeconds bounds one classification dispatch's model
// round trip, including its internal throttling/timeout retries.
const visibilityTimeoutSeconds = 120

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

	classifier, err := buildClassifier(ctx, aws, cfg.Classification)
	if err != nil {
		logger.Fatal("build classifier", zap.Error(err))
	}

	worker := classification.NewWorker(platform.Store(aws, cfg.Database), classifier)
	q := platform.Queue(aws, cfg.Queues.ClassificationQueueURL)

	inst, err := platform.NewInstrumentation("classification-worker")
	if err != nil {
		logger.Fatal("build instrumentation", zap.Error(err))
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
	metricsServer.StartAsync()

	logger.Info("classification worker started",
		zap.String("queue", cfg.Queues.ClassificationQueueURL),
		zap.String("model_backend", cfg.Classification.ModelBackend))

	platform.RunQueueLoop(ctx, q, visibilityTimeoutSeconds, logger, inst, func(ctx context.Context, body string) error {
		var msg classification.DispatchMessage
		if err := json.Unmarshal([]byte(body), &msg); err != nil {
			return fmt.Errorf("unmarshal dispatch message: %w", err)
		}
		outcome, err := worker.Run(ctx, msg)
		if err != nil {
			return err
		}
		logger.Info("classification complete",
			zap.String("content_item_id", msg.ContentItemID.String()),
			zap.String("outcome", string(outcome)))
		return nil
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", zap.Error(err))
	}
}

// buildClassifier resolves cfg.ModelBackend into one of pkg/llm's two
// Classifier implementations.
func buildClassifier(ctx context.Context, aws *platform.AWS, cfg config.ClassificationConfig) (llm.Classifier, error) {
	if cfg.ModelBackend == "bedrock" {
		return llm.NewBedrockClassifier(aws.Bedrock, cfg.BedrockModelID), nil
	}

	apiKey, err := aws.Secrets.Get(ctx, cfg.AnthropicAPIKeySecretARN)
	if err != nil {
		return nil, fmt.Errorf("resolve anthropic api key: %w", err)
	}
	return llm.NewAnthropicClassifier(apiKey, cfg.AnthropicModelID), nil
}
