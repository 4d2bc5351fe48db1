package report

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/metrics"
	"github.com/claro-ops/media-intel/pkg/report/email"
	"github.com/claro-ops/media-intel/pkg/report/notify"
	"github.com/claro-ops/media-intel/pkg/shared/logging"
)

// exportEnqueuer is the narrow slice of internal/queue.Queue the report
// worker needs to fan the export job out asynchronously.
type exportEnqueuer interface {
	Send(ctx context.Context, body string) error
}

// Worker runs one dispatched report message end to end per spec §4.6.
type Worker struct {
	store            store.Store
	exportQueue      exportEnqueuer
	emailer          *email.Sender
	notifier         *notify.Notifier
	defaultThreshold float64
	logger           *zap.Logger
}

// NewWorker builds a Worker from its dependencies.
func NewWorker(s store.Store, exportQueue exportEnqueuer, emailer *email.Sender, notifier *notify.Notifier, defaultThreshold float64, logger *zap.Logger) *Worker {
	return &Worker{store: s, exportQueue: exportQueue, emailer: emailer, notifier: notifier, defaultThreshold: defaultThreshold, logger: logger}
}

// Run executes one dispatched report message.
func (w *Worker) Run(ctx context.Context, msg DispatchMessage) error {
	timer := metrics.NewTimer()

	claimed, run, err := w.store.ClaimReportRun(ctx, msg.ReportRunID)
	if err != nil {
		return fmt.Errorf("report: claim run %s: %w", msg.ReportRunID, err)
	}
	if !claimed {
		w.logger.Info("report run already claimed, dropping duplicate dispatch",
			logging.NewFields().Component("report").Operation("claim").
				Resource("report_run", msg.ReportRunID.String()).ToZapFields()...)
		return nil
	}

	_, template, schedule, err := w.store.GetReportRunWithTemplateAndSchedule(ctx, run.ID)
	if err != nil {
		return w.failRun(ctx, run, "report_run_not_found_after_claim", timer)
	}
	if template == nil {
		return w.failRun(ctx, run, "report_run_not_found_after_claim", timer)
	}

	runErr := w.execute(ctx, run, template, schedule)
	if runErr != nil {
		return w.failRun(ctx, run, runErr.Error(), timer)
	}
	metrics.RecordReportRun(string(run.Status), timer.Elapsed())
	return nil
}

func (w *Worker) execute(ctx context.Context, run *store.ReportRun, template *store.ReportTemplate, schedule *store.ReportSchedule) error {
	agg, err := w.aggregateWindow(ctx, template)
	if err != nil {
		return err
	}

	confidence := computeConfidence(agg)
	threshold := template.ConfidenceThreshold
	if threshold <= 0 {
		threshold = w.defaultThreshold
	}
	recommendations := recommendationsFor(agg)

	exportJob := &store.ExportJob{
		Filters:           template.Filters,
		RequestedByUserID: run.RequestedByUserID,
	}
	if err := w.store.CreateExportJob(ctx, exportJob); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	if body, err := json.Marshal(ExportDispatchMessage{ExportJobID: exportJob.ID, Filters: template.Filters}); err == nil {
		if err := w.exportQueue.Send(ctx, string(body)); err != nil {
			w.logger.Warn("report export enqueue failed",
				logging.NewFields().Component("report").Operation("export").Error(err).ToZapFields()...)
		}
	}

	run.Confidence = confidence
	run.Summary = summaryFor(agg, confidence)
	run.Recommendations = recommendations
	run.ExportJobID = &exportJob.ID
	run.Status = store.ReportRunStatusCompleted
	if confidence < threshold {
		run.Status = store.ReportRunStatusPendingReview
		run.BlockedReason = "confidence_below_threshold"
	}

	if err := w.store.FinishReportRun(ctx, run); err != nil {
		return fmt.Errorf("finish report run: %w", err)
	}

	if run.Status == store.ReportRunStatusCompleted && schedule != nil {
		w.sendEmails(ctx, run, schedule)
	}
	if run.Status == store.ReportRunStatusPendingReview {
		w.notifier.NotifyPendingReview(ctx, run.ID.String(), template.Name, confidence, threshold)
	}

	return nil
}

func (w *Worker) failRun(ctx context.Context, run *store.ReportRun, reason string, timer *metrics.Timer) error {
	failed := &store.ReportRun{ID: run.ID, Status: store.ReportRunStatusFailed, ErrorMessage: reason}
	if err := w.store.FinishReportRun(ctx, failed); err != nil {
		return fmt.Errorf("report: finish failed run %s: %w", run.ID, err)
	}
	metrics.RecordReportRun(string(store.ReportRunStatusFailed), timer.Elapsed())
	return apperrors.New(apperrors.ErrorTypeInternal, reason)
}

func (w *Worker) sendEmails(ctx context.Context, run *store.ReportRun, schedule *store.ReportSchedule) {
	for _, recipient := range schedule.Recipients {
		if err := w.emailer.Send(ctx, recipient, run); err != nil {
			w.logger.Warn("report email failed",
				logging.NewFields().Component("report").Operation("email").
					Resource("recipient", recipient).Error(err).ToZapFields()...)
		}
	}
}

func summaryFor(agg aggregate, confidence float64) string {
	return fmt.Sprintf(
		"%d items analizados (%d clasificados), %d incidentes activos, BHS %.0f, SOV-claro %.0f%%, confianza %.3f.",
		agg.itemsTotal, agg.classifiedTotal, agg.activeIncidents, agg.bhs, agg.sovClaro, confidence,
	)
}
