package rdsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
)

func (c *Client) GetReportTemplate(ctx context.Context, id uuid.UUID) (*store.ReportTemplate, error) {
	out, err := c.execute(ctx, `SELECT id, name, sections, filters, confidence_threshold, is_active
		FROM report_templates WHERE id = :id`, []types.SqlParameter{uuidParam("id", id)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("report template")
	}
	rec := out.Records[0]
	tmpl := &store.ReportTemplate{}
	idStr, _ := fieldString(rec[0])
	tmpl.ID, _ = uuid.Parse(idStr)
	tmpl.Name, _ = fieldString(rec[1])
	if sectionsStr, ok := fieldString(rec[2]); ok {
		_ = json.Unmarshal([]byte(sectionsStr), &tmpl.Sections)
	}
	if filtersStr, ok := fieldString(rec[3]); ok {
		tmpl.Filters = json.RawMessage(filtersStr)
	}
	tmpl.ConfidenceThreshold, _ = fieldDouble(rec[4])
	tmpl.IsActive, _ = fieldBool(rec[5])
	return tmpl, nil
}

// ClaimReportRun is the report-worker analogue of ClaimIngestionRun: a
// run already in a terminal or active state is left untouched and not
// reclaimed, implementing the idempotency key's at-most-once guarantee
// from spec §4.6.
func (c *Client) ClaimReportRun(ctx context.Context, id uuid.UUID) (bool, *store.ReportRun, error) {
	var claimed bool
	var run *store.ReportRun
	err := c.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		txc := tx.(*Client)
		existing, _, _, err := txc.GetReportRunWithTemplateAndSchedule(ctx, id)
		if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}
		if existing != nil && existing.Status != store.ReportRunStatusQueued {
			run = existing
			return nil
		}

		startedAt := now()
		_, err = txc.execute(ctx, `UPDATE report_runs SET status = :status, started_at = :started_at WHERE id = :id`,
			[]types.SqlParameter{
				uuidParam("id", id), stringParam("status", string(store.ReportRunStatusRunning)),
				timestampParam("started_at", startedAt),
			})
		if err != nil {
			return err
		}
		run, _, _, err = txc.GetReportRunWithTemplateAndSchedule(ctx, id)
		if err != nil {
			return err
		}
		claimed = true
		return nil
	})
	return claimed, run, err
}

func (c *Client) GetReportRunWithTemplateAndSchedule(ctx context.Context, id uuid.UUID) (*store.ReportRun, *store.ReportTemplate, *store.ReportSchedule, error) {
	out, err := c.execute(ctx, `SELECT id, template_id, schedule_id, status, confidence, summary,
		recommendations, blocked_reason, export_job_id, idempotency_key, requested_by_user_id, started_at,
		finished_at, error_message, created_at
		FROM report_runs WHERE id = :id`, []types.SqlParameter{uuidParam("id", id)})
	if err != nil {
		return nil, nil, nil, err
	}
	if len(out.Records) == 0 {
		return nil, nil, nil, noRowsErr("report run")
	}
	run, err := scanReportRun(out.Records[0])
	if err != nil {
		return nil, nil, nil, err
	}
	tmpl, err := c.GetReportTemplate(ctx, run.TemplateID)
	if err != nil {
		return run, nil, nil, err
	}
	var sched *store.ReportSchedule
	if run.ScheduleID != nil {
		sched, err = c.getReportSchedule(ctx, *run.ScheduleID)
		if err != nil {
			return run, tmpl, nil, err
		}
	}
	return run, tmpl, sched, nil
}

func scanReportRun(rec []types.Field) (*store.ReportRun, error) {
	if len(rec) < 15 {
		return nil, fmt.Errorf("unexpected report_runs column count: %d", len(rec))
	}
	run := &store.ReportRun{}
	idStr, _ := fieldString(rec[0])
	run.ID, _ = uuid.Parse(idStr)
	tmplStr, _ := fieldString(rec[1])
	run.TemplateID, _ = uuid.Parse(tmplStr)
	if !fieldIsNull(rec[2]) {
		if schedStr, ok := fieldString(rec[2]); ok {
			if id, err := uuid.Parse(schedStr); err == nil {
				run.ScheduleID = &id
			}
		}
	}
	status, _ := fieldString(rec[3])
	run.Status = store.ReportRunStatus(status)
	run.Confidence, _ = fieldDouble(rec[4])
	run.Summary, _ = fieldString(rec[5])
	if recStr, ok := fieldString(rec[6]); ok {
		_ = json.Unmarshal([]byte(recStr), &run.Recommendations)
	}
	run.BlockedReason, _ = fieldString(rec[7])
	if !fieldIsNull(rec[8]) {
		if exportStr, ok := fieldString(rec[8]); ok {
			if id, err := uuid.Parse(exportStr); err == nil {
				run.ExportJobID = &id
			}
		}
	}
	run.IdempotencyKey, _ = fieldString(rec[9])
	run.RequestedByUserID, _ = fieldString(rec[10])
	if !fieldIsNull(rec[11]) {
		if startedStr, ok := fieldString(rec[11]); ok {
			t, _ := parseTimestamp(startedStr)
			run.StartedAt = &t
		}
	}
	if !fieldIsNull(rec[12]) {
		if finStr, ok := fieldString(rec[12]); ok {
			t, _ := parseTimestamp(finStr)
			run.FinishedAt = &t
		}
	}
	run.ErrorMessage, _ = fieldString(rec[13])
	if createdStr, ok := fieldString(rec[14]); ok {
		run.CreatedAt, _ = parseTimestamp(createdStr)
	}
	return run, nil
}

func (c *Client) FinishReportRun(ctx context.Context, run *store.ReportRun) error {
	finishedAt := now()
	run.FinishedAt = &finishedAt
	recJSON, err := jsonParam("recommendations", run.Recommendations)
	if err != nil {
		return err
	}
	_, err = c.execute(ctx, `UPDATE report_runs SET status = :status, confidence = :confidence,
		summary = :summary, recommendations = :recommendations, blocked_reason = :blocked_reason,
		export_job_id = :export_job_id, finished_at = :finished_at, error_message = :error_message
		WHERE id = :id`,
		[]types.SqlParameter{
			uuidParam("id", run.ID), stringParam("status", string(run.Status)),
			doubleParam("confidence", run.Confidence), stringParam("summary", run.Summary), recJSON,
			stringParam("blocked_reason", run.BlockedReason), nullableUUIDParam("export_job_id", run.ExportJobID),
			timestampParam("finished_at", finishedAt), stringParam("error_message", apperrors.Truncate(run.ErrorMessage, 1000)),
		})
	return err
}

// GetReportSchedule loads one report schedule by id, used by the
// cmd/api manual-run endpoint to resolve the template a schedule points
// at before materializing an ad-hoc run for it.
func (c *Client) GetReportSchedule(ctx context.Context, id uuid.UUID) (*store.ReportSchedule, error) {
	return c.getReportSchedule(ctx, id)
}

func (c *Client) getReportSchedule(ctx context.Context, id uuid.UUID) (*store.ReportSchedule, error) {
	out, err := c.execute(ctx, `SELECT id, template_id, frequency, day_of_week, time_local, timezone,
		recipients, next_run_at, last_run_at, enabled FROM report_schedules WHERE id = :id`,
		[]types.SqlParameter{uuidParam("id", id)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("report schedule")
	}
	return scanReportSchedule(out.Records[0])
}

func scanReportSchedule(rec []types.Field) (*store.ReportSchedule, error) {
	s := &store.ReportSchedule{}
	idStr, _ := fieldString(rec[0])
	s.ID, _ = uuid.Parse(idStr)
	tmplStr, _ := fieldString(rec[1])
	s.TemplateID, _ = uuid.Parse(tmplStr)
	freq, _ := fieldString(rec[2])
	s.Frequency = store.ReportScheduleFrequency(freq)
	if !fieldIsNull(rec[3]) {
		if dow, ok := fieldLong(rec[3]); ok {
			d := int(dow)
			s.DayOfWeek = &d
		}
	}
	s.TimeLocal, _ = fieldString(rec[4])
	s.Timezone, _ = fieldString(rec[5])
	if recipStr, ok := fieldString(rec[6]); ok {
		_ = json.Unmarshal([]byte(recipStr), &s.Recipients)
	}
	if nextStr, ok := fieldString(rec[7]); ok {
		s.NextRunAt, _ = parseTimestamp(nextStr)
	}
	if !fieldIsNull(rec[8]) {
		if lastStr, ok := fieldString(rec[8]); ok {
			t, _ := parseTimestamp(lastStr)
			s.LastRunAt = &t
		}
	}
	s.Enabled, _ = fieldBool(rec[9])
	return s, nil
}

// DueReportSchedules returns every enabled schedule whose next_run_at
// has passed, for the report worker's scheduling sweep.
func (c *Client) DueReportSchedules(ctx context.Context, asOf time.Time) ([]store.ReportSchedule, error) {
	out, err := c.execute(ctx, `SELECT id, template_id, frequency, day_of_week, time_local, timezone,
		recipients, next_run_at, last_run_at, enabled FROM report_schedules
		WHERE enabled = true AND next_run_at <= :as_of`, []types.SqlParameter{timestampParam("as_of", asOf)})
	if err != nil {
		return nil, err
	}
	out2 := make([]store.ReportSchedule, 0, len(out.Records))
	for _, rec := range out.Records {
		s, err := scanReportSchedule(rec)
		if err != nil {
			return nil, err
		}
		out2 = append(out2, *s)
	}
	return out2, nil
}

// EnqueueReportRunForSchedule creates a queued ReportRun for a schedule
// slot, keyed by an idempotency key derived from (scheduleId, slot) so
// a duplicate scheduler tick collapses onto the same run, per spec
// §4.6's schedule-slot-collapsing rule.
func (c *Client) EnqueueReportRunForSchedule(ctx context.Context, schedule *store.ReportSchedule, slot time.Time) (*store.ReportRun, bool, error) {
	idempotencyKey := fmt.Sprintf("schedule:%s:%s", schedule.ID, slot.UTC().Format(time.RFC3339))

	out, err := c.execute(ctx, `SELECT id FROM report_runs WHERE idempotency_key = :key`,
		[]types.SqlParameter{stringParam("key", idempotencyKey)})
	if err != nil {
		return nil, false, err
	}
	if len(out.Records) > 0 {
		idStr, _ := fieldString(out.Records[0][0])
		id, _ := uuid.Parse(idStr)
		run, _, _, err := c.GetReportRunWithTemplateAndSchedule(ctx, id)
		return run, false, err
	}

	run := &store.ReportRun{
		ID:             newUUID(),
		TemplateID:     schedule.TemplateID,
		ScheduleID:     &schedule.ID,
		Status:         store.ReportRunStatusQueued,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now(),
	}
	_, err = c.execute(ctx, `INSERT INTO report_runs
		(id, template_id, schedule_id, status, idempotency_key, created_at)
		VALUES (:id, :template_id, :schedule_id, :status, :idempotency_key, :created_at)`,
		[]types.SqlParameter{
			uuidParam("id", run.ID), uuidParam("template_id", run.TemplateID), uuidParam("schedule_id", schedule.ID),
			stringParam("status", string(run.Status)), stringParam("idempotency_key", run.IdempotencyKey),
			timestampParam("created_at", run.CreatedAt),
		})
	if err != nil {
		return nil, false, err
	}
	return run, true, nil
}

func (c *Client) AdvanceScheduleNextRun(ctx context.Context, scheduleID uuid.UUID, nextRunAt time.Time) error {
	_, err := c.execute(ctx, `UPDATE report_schedules SET next_run_at = :next_run_at, last_run_at = :last_run_at
		WHERE id = :id`,
		[]types.SqlParameter{
			uuidParam("id", scheduleID), timestampParam("next_run_at", nextRunAt), timestampParam("last_run_at", now()),
		})
	return err
}
