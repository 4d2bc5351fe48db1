package rdsdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
)

// ClaimIngestionRun implements spec §4.3's dedupe/claim step: a
// `completed` run is immutable, a `running` run within 10 minutes is
// owned by whoever is already processing it, and anything else
// (missing row, stale `running`, `failed`) is (re)claimed by upserting
// to `running`.
func (c *Client) ClaimIngestionRun(ctx context.Context, run *store.IngestionRun) (bool, error) {
	claimed := false
	err := c.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		txc := tx.(*Client)
		existing, err := txc.GetIngestionRun(ctx, run.ID)
		if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}

		if existing != nil {
			if existing.Status == store.RunStatusCompleted {
				return nil
			}
			if existing.Status == store.RunStatusRunning && now().Sub(existing.StartedAt) < 10*time.Minute {
				return nil
			}
		}

		run.Status = store.RunStatusRunning
		run.StartedAt = now()
		run.FinishedAt = nil
		run.ErrorMessage = ""

		_, err = txc.execute(ctx, `INSERT INTO ingestion_runs
			(id, trigger_type, status, language, effective_max_per_term, request_id, started_at)
			VALUES (:id, :trigger_type, :status, :language, :max_per_term, :request_id, :started_at)
			ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, started_at = EXCLUDED.started_at,
			 finished_at = NULL, error_message = ''`,
			[]types.SqlParameter{
				uuidParam("id", run.ID), stringParam("trigger_type", string(run.TriggerType)),
				stringParam("status", string(run.Status)), stringParam("language", run.Language),
				longParam("max_per_term", int64(run.EffectiveMaxPerTerm)), stringParam("request_id", run.RequestID),
				timestampParam("started_at", run.StartedAt),
			})
		if err != nil {
			return err
		}

		_, err = txc.execute(ctx, `DELETE FROM ingestion_run_items WHERE run_id = :id`,
			[]types.SqlParameter{uuidParam("id", run.ID)})
		if err != nil {
			return err
		}
		_, err = txc.execute(ctx, `DELETE FROM ingestion_run_content_links WHERE run_id = :id`,
			[]types.SqlParameter{uuidParam("id", run.ID)})
		if err != nil {
			return err
		}

		claimed = true
		return nil
	})
	return claimed, err
}

func (c *Client) GetIngestionRun(ctx context.Context, id uuid.UUID) (*store.IngestionRun, error) {
	out, err := c.execute(ctx, `SELECT id, trigger_type, status, language, effective_max_per_term,
		request_id, started_at, finished_at, metrics, error_message
		FROM ingestion_runs WHERE id = :id`, []types.SqlParameter{uuidParam("id", id)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("ingestion run")
	}
	rec := out.Records[0]
	run := &store.IngestionRun{}
	idStr, _ := fieldString(rec[0])
	run.ID, _ = uuid.Parse(idStr)
	tt, _ := fieldString(rec[1])
	run.TriggerType = store.TriggerType(tt)
	st, _ := fieldString(rec[2])
	run.Status = store.RunStatus(st)
	run.Language, _ = fieldString(rec[3])
	maxPerTerm, _ := fieldLong(rec[4])
	run.EffectiveMaxPerTerm = int(maxPerTerm)
	run.RequestID, _ = fieldString(rec[5])
	if startedStr, ok := fieldString(rec[6]); ok {
		run.StartedAt, _ = parseTimestamp(startedStr)
	}
	if !fieldIsNull(rec[7]) {
		if finStr, ok := fieldString(rec[7]); ok {
			t, _ := parseTimestamp(finStr)
			run.FinishedAt = &t
		}
	}
	if metricsStr, ok := fieldString(rec[8]); ok {
		run.Metrics = json.RawMessage(metricsStr)
	}
	run.ErrorMessage, _ = fieldString(rec[9])
	return run, nil
}

func (c *Client) FinishIngestionRun(ctx context.Context, run *store.IngestionRun) error {
	finishedAt := now()
	run.FinishedAt = &finishedAt
	metricsParam := rawJSONParam("metrics", run.Metrics)
	_, err := c.execute(ctx, `UPDATE ingestion_runs SET status = :status, finished_at = :finished_at,
		metrics = :metrics, error_message = :error_message WHERE id = :id`,
		[]types.SqlParameter{
			uuidParam("id", run.ID), stringParam("status", string(run.Status)),
			timestampParam("finished_at", finishedAt), metricsParam,
			stringParam("error_message", apperrors.Truncate(run.ErrorMessage, 1000)),
		})
	return err
}

func (c *Client) ReplaceIngestionRunItems(ctx context.Context, runID uuid.UUID, items []store.IngestionRunItem) error {
	return c.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		txc := tx.(*Client)
		_, err := txc.execute(ctx, `DELETE FROM ingestion_run_items WHERE run_id = :id`,
			[]types.SqlParameter{uuidParam("id", runID)})
		if err != nil {
			return err
		}
		for _, item := range items {
			_, err := txc.execute(ctx, `INSERT INTO ingestion_run_items
				(run_id, provider, fetched_count, persisted_count, latency_ms, status, error_message)
				VALUES (:run_id, :provider, :fetched, :persisted, :latency, :status, :error_message)`,
				[]types.SqlParameter{
					uuidParam("run_id", runID), stringParam("provider", item.Provider),
					longParam("fetched", int64(item.FetchedCount)), longParam("persisted", int64(item.PersistedCount)),
					longParam("latency", item.LatencyMs), stringParam("status", item.Status),
					stringParam("error_message", apperrors.Truncate(item.ErrorMessage, 1000)),
				})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LinkIngestionRunContent inserts (runId, contentItemId) links,
// deduplicated by a unique index on (run_id, canonical_url). The
// returned slice holds only the links that actually inserted a new row
// (not already present for this run) — callers must derive both the
// run's total persisted count and any per-provider breakdown from this
// set, not from the input links, since the same canonical URL can
// arrive from more than one provider/term within a single run.
func (c *Client) LinkIngestionRunContent(ctx context.Context, runID uuid.UUID, links []store.IngestionRunContentLink) ([]store.IngestionRunContentLink, error) {
	newlyLinked := make([]store.IngestionRunContentLink, 0, len(links))
	err := c.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		txc := tx.(*Client)
		for _, link := range links {
			out, err := txc.execute(ctx, `INSERT INTO ingestion_run_content_links
				(run_id, content_item_id, canonical_url, provider, term)
				VALUES (:run_id, :content_item_id, :canonical_url, :provider, :term)
				ON CONFLICT (run_id, canonical_url) DO NOTHING`,
				[]types.SqlParameter{
					uuidParam("run_id", runID), uuidParam("content_item_id", link.ContentItemID),
					stringParam("canonical_url", link.CanonicalURL), stringParam("provider", link.Provider),
					stringParam("term", link.Term),
				})
			if err != nil {
				return err
			}
			if rowCount(out) > 0 {
				newlyLinked = append(newlyLinked, link)
			}
		}
		return nil
	})
	return newlyLinked, err
}
