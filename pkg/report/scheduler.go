package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/shared/logging"
)

// scheduleEnqueuer is the narrow slice of internal/queue.Queue the
// schedule sweep needs to dispatch a freshly queued run.
type scheduleEnqueuer interface {
	Send(ctx context.Context, body string) error
}

// Scheduler periodically sweeps due ReportSchedules, enqueues one
// ReportRun per due slot, and advances each schedule's nextRunAt —
// spec §4.6's "peripheral" schedule-enqueueing contract.
type Scheduler struct {
	store    store.Store
	dispatch scheduleEnqueuer
	logger   *zap.Logger
}

// NewScheduler builds a Scheduler.
func NewScheduler(s store.Store, dispatch scheduleEnqueuer, logger *zap.Logger) *Scheduler {
	return &Scheduler{store: s, dispatch: dispatch, logger: logger}
}

// Sweep enqueues a ReportRun for every schedule due as of now, then
// advances that schedule's nextRunAt to its next slot.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (enqueued int, err error) {
	due, err := s.store.DueReportSchedules(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("report scheduler: list due schedules: %w", err)
	}

	for i := range due {
		schedule := due[i]
		if err := s.fireSlot(ctx, &schedule, now); err != nil {
			s.logger.Error("report schedule slot failed",
				logging.NewFields().Component("report_scheduler").Operation("sweep").
					Resource("report_schedule", schedule.ID.String()).Error(err).ToZapFields()...)
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

func (s *Scheduler) fireSlot(ctx context.Context, schedule *store.ReportSchedule, now time.Time) error {
	run, isNew, err := s.store.EnqueueReportRunForSchedule(ctx, schedule, schedule.NextRunAt)
	if err != nil {
		return fmt.Errorf("enqueue run for schedule %s: %w", schedule.ID, err)
	}

	next, err := computeNextRunAt(schedule, now)
	if err != nil {
		return fmt.Errorf("compute next run for schedule %s: %w", schedule.ID, err)
	}
	if err := s.store.AdvanceScheduleNextRun(ctx, schedule.ID, next); err != nil {
		return fmt.Errorf("advance schedule %s: %w", schedule.ID, err)
	}

	if isNew && run != nil {
		body, err := json.Marshal(DispatchMessage{ReportRunID: run.ID})
		if err != nil {
			return fmt.Errorf("marshal dispatch message: %w", err)
		}
		if err := s.dispatch.Send(ctx, string(body)); err != nil {
			return fmt.Errorf("dispatch run %s: %w", run.ID, err)
		}
	}
	return nil
}

// computeNextRunAt derives the next UTC instant a schedule should
// fire, converting its local wall-clock time through its IANA
// timezone rather than hand-rolling a DST offset, per spec.md's
// design note on timezone arithmetic.
func computeNextRunAt(schedule *store.ReportSchedule, after time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone %q: %w", schedule.Timezone, err)
	}

	hour, minute, err := parseTimeLocal(schedule.TimeLocal)
	if err != nil {
		return time.Time{}, err
	}

	localAfter := after.In(loc)
	candidate := time.Date(localAfter.Year(), localAfter.Month(), localAfter.Day(), hour, minute, 0, 0, loc)

	switch schedule.Frequency {
	case store.FrequencyDaily:
		for !candidate.After(localAfter) {
			candidate = candidate.AddDate(0, 0, 1)
		}
	case store.FrequencyWeekly:
		if schedule.DayOfWeek == nil {
			return time.Time{}, fmt.Errorf("weekly schedule %s missing day_of_week", schedule.ID)
		}
		target := time.Weekday(*schedule.DayOfWeek)
		for candidate.Weekday() != target || !candidate.After(localAfter) {
			candidate = candidate.AddDate(0, 0, 1)
		}
	default:
		return time.Time{}, fmt.Errorf("unknown schedule frequency %q", schedule.Frequency)
	}

	return candidate.UTC(), nil
}

func parseTimeLocal(hhmm string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, fmt.Errorf("parse time_local %q: %w", hhmm, err)
	}
	return t.Hour(), t.Minute(), nil
}
