// cmd/incident-evaluator periodically recomputes each taxonomy scope's
// signal and drives incident state transitions (open, escalate, dedupe,
// cooldown), per spec §4.5.
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
	"github.com/claro-ops/media-intel/pkg/incident"
	"github.com/claro-ops/media-intel/pkg/metrics"
)

// evaluationInterval is how often every taxonomy scope's signal is
// recomputed; incidents must surface promptly, so this runs far more
// often than the classification or report sweeps.
const evaluationInterval = 2 * time.Minute

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

	evaluator := incident.NewEvaluator(platform.Store(aws, cfg.Database), cfg.Alert, logger)

	inst, err := platform.NewInstrumentation("incident-evaluator")
	if err != nil {
		logger.Fatal("build instrumentation", zap.Error(err))
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
	metricsServer.StartAsync()

	logger.Info("incident evaluator started", zap.Duration("interval", evaluationInterval))

	platform.RunTicker(ctx, evaluationInterval, logger, inst, func(ctx context.Context) error {
		result, err := evaluator.Run(ctx, store.TriggerScheduled)
		if err != nil {
			return err
		}
		logger.Info("incident evaluation complete",
			zap.Int("created", result.CreatedCount),
			zap.Int("escalated", result.EscalatedCount),
			zap.Int("deduped", result.DedupedCount),
			zap.Int("skipped_sev4", result.SkippedSEV4Count))
		return nil
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", zap.Error(err))
	}
}
