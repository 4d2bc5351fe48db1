// cmd/report-worker runs report generation per spec §4.6: it consumes
// the report dispatch queue (render template, score confidence, email
// or route to pending review) and, concurrently, sweeps report
// schedules for runs that have come due and dispatches them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/platform"
	"github.com/claro-ops/media-intel/pkg/metrics"
	"github.com/claro-ops/media-intel/pkg/report"
	"github.com/claro-ops/media-intel/pkg/report/email"
	"github.com/claro-ops/media-intel/pkg/report/notify"
)

// visibilityTimeoutSeconds bounds one report run's render/score/deliver
// pass.
const visibilityTimeoutSeconds = 180

// scheduleSweepInterval is how often due report schedules are checked;
// report cadences are daily/weekly at the coarsest, so a short interval
// just keeps dispatch latency well under the coarsest cadence.
const scheduleSweepInterval = 1 * time.Minute

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

	s := platform.Store(aws, cfg.Database)
	exportQueue := platform.Queue(aws, cfg.Queues.ExportQueueURL)
	reportQueue := platform.Queue(aws, cfg.Queues.ReportQueueURL)

	emailer := email.NewSender(aws.SES, cfg.Report.EmailSender, logger)
	notifier := notify.New(cfg.Slack.BotToken, cfg.Slack.Channel, logger)

	worker := report.NewWorker(s, exportQueue, emailer, notifier, cfg.Report.ConfidenceThreshold, logger)
	sched := report.NewScheduler(s, reportQueue, logger)

	workerInst, err := platform.NewInstrumentation("report-worker")
	if err != nil {
		logger.Fatal("build instrumentation", zap.Error(err))
	}
	schedulerInst, err := platform.NewInstrumentation("report-scheduler-sweep")
	if err != nil {
		logger.Fatal("build instrumentation", zap.Error(err))
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
	metricsServer.StartAsync()

	logger.Info("report worker started", zap.String("queue", cfg.Queues.ReportQueueURL))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		platform.RunQueueLoop(ctx, reportQueue, visibilityTimeoutSeconds, logger, workerInst, func(ctx context.Context, body string) error {
			var msg report.DispatchMessage
			if err := json.Unmarshal([]byte(body), &msg); err != nil {
				return fmt.Errorf("unmarshal dispatch message: %w", err)
			}
			if err := worker.Run(ctx, msg); err != nil {
				return err
			}
			logger.Info("report run complete", zap.String("report_run_id", msg.ReportRunID.String()))
			return nil
		})
	}()

	go func() {
		defer wg.Done()
		platform.RunTicker(ctx, scheduleSweepInterval, logger, schedulerInst, func(ctx context.Context) error {
			enqueued, err := sched.Sweep(ctx, time.Now())
			if err != nil {
				return err
			}
			if enqueued > 0 {
				logger.Info("report schedule sweep complete", zap.Int("enqueued", enqueued))
			}
			return nil
		})
	}()

	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", zap.Error(err))
	}
}
