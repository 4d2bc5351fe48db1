// cmd/social-ingestion-worker consumes the social dispatch queue of
// spec §4.7: fetch one channel's (or, when the dispatch names no
// channel, every active channel's) recent posts, persist them, and run
// the incident-raising heuristics over channel-reported outage signals.
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
	"github.com/claro-ops/media-intel/pkg/metrics"
	"github.com/claro-ops/media-intel/pkg/social"
)

// visibilityTimeoutSeconds bounds one dispatch's fetch-and-persist pass;
// a sweep-all dispatch (no channel named) walks every active channel,
// so this runs considerably longer than a single-channel dispatch.
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

	worker := social.NewWorker(
		platform.Store(aws, cfg.Database),
		platform.ObjectStore(aws),
		cfg.Storage.SocialBucketName,
		cfg.Social,
		cfg.Alert,
		logger,
	)
	q := platform.Queue(aws, cfg.Queues.SocialQueueURL)

	inst, err := platform.NewInstrumentation("social-ingestion-worker")
	if err != nil {
		logger.Fatal("build instrumentation", zap.Error(err))
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
	metricsServer.StartAsync()

	logger.Info("social ingestion worker started", zap.String("queue", cfg.Queues.SocialQueueURL))

	platform.RunQueueLoop(ctx, q, visibilityTimeoutSeconds, logger, inst, func(ctx context.Context, body string) error {
		var msg social.DispatchMessage
		if err := json.Unmarshal([]byte(body), &msg); err != nil {
			return fmt.Errorf("unmarshal dispatch message: %w", err)
		}
		results, err := worker.Run(ctx, msg)
		if err != nil {
			return err
		}
		logger.Info("social ingestion dispatch complete", zap.Int("channels_processed", len(results)))
		return nil
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", zap.Error(err))
	}
}
