// cmd/api serves spec §4.8's trigger endpoints: ingestion, classification,
// report, and social-ingest triggers plus the active-incidents read
// endpoint and incident note annotation, all behind JWT role gating.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/httpapi"
	"github.com/claro-ops/media-intel/internal/platform"
	"github.com/claro-ops/media-intel/pkg/classification"
	"github.com/claro-ops/media-intel/pkg/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownGrace     = 10 * time.Second
)

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

	s := platform.Store(aws, cfg.Database)

	sched := classification.NewScheduler(
		s,
		platform.Queue(aws, cfg.Queues.ClassificationQueueURL),
		cfg.Classification.WindowDays,
		cfg.Classification.SchedulerLimit,
		cfg.Classification.PromptVersion,
		modelIDFor(cfg.Classification),
	)

	server := httpapi.NewServer(cfg.HTTP, httpapi.Deps{
		Store:               s,
		IngestionQueue:      platform.Queue(aws, cfg.Queues.IngestionQueueURL),
		ClassificationSched: sched,
		ReportQueue:         platform.Queue(aws, cfg.Queues.ReportQueueURL),
		SocialQueue:         platform.Queue(aws, cfg.Queues.SocialQueueURL),
		Logger:              logger,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           server,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
	metricsServer.StartAsync()

	go func() {
		logger.Info("api server started", zap.String("port", cfg.HTTP.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown", zap.Error(err))
	}
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", zap.Error(err))
	}
}

// modelIDFor names the model id the scheduler stamps onto dispatches it
// enqueues directly (the manual-trigger endpoint), matching whichever
// backend cmd/classification-worker will invoke for it.
func modelIDFor(cfg config.ClassificationConfig) string {
	if cfg.ModelBackend == "bedrock" {
		return cfg.BedrockModelID
	}
	return cfg.AnthropicModelID
}
