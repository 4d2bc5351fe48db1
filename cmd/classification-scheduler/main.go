// cmd/classification-scheduler periodically sweeps content items due
// for (re-)classification under the current prompt/model pair and
// enqueues one dispatch per item onto the classification queue, per
// spec §4.4.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/platform"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/classification"
	"github.com/claro-ops/media-intel/pkg/metrics"
)

// sweepInterval is how often the scheduler checks for newly-due
// content; classification is not latency-critical the way ingestion
// dispatch is, so this runs far less often than the queue workers poll.
const sweepInterval = 5 * time.Minute

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

	sched := classification.NewScheduler(
		platform.Store(aws, cfg.Database),
		platform.Queue(aws, cfg.Queues.ClassificationQueueURL),
		cfg.Classification.WindowDays,
		cfg.Classification.SchedulerLimit,
		cfg.Classification.PromptVersion,
		modelIDFor(cfg.Classification),
	)

	inst, err := platform.NewInstrumentation("classification-scheduler")
	if err != nil {
		logger.Fatal("build instrumentation", zap.Error(err))
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
	metricsServer.StartAsync()

	logger.Info("classification scheduler started", zap.Duration("interval", sweepInterval))

	platform.RunTicker(ctx, sweepInterval, logger, inst, func(ctx context.Context) error {
		enqueued, err := sched.Run(ctx, classification.SchedulerTrigger{TriggerType: store.TriggerScheduled})
		if err != nil {
			return err
		}
		logger.Info("classification sweep complete", zap.Int("enqueued", enqueued))
		return nil
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", zap.Error(err))
	}
}

// modelIDFor names the model id the scheduler stamps onto each
// dispatch, matching whichever backend cmd/classification-worker will
// invoke for it (see internal/config.ClassificationConfig.ModelBackend).
func modelIDFor(cfg config.ClassificationConfig) string {
	if cfg.ModelBackend == "bedrock" {
		return cfg.BedrockModelID
	}
	return cfg.AnthropicModelID
}
