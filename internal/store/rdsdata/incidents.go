package rdsdata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

// GetActiveIncidentForScope returns the one open/acknowledged/in_progress
// Incident for a scope, if any, implementing spec §4.5's at-most-one-
// open-incident-per-scope invariant.
func (c *Client) GetActiveIncidentForScope(ctx context.Context, scope store.TaxonomyKind) (*store.Incident, error) {
	out, err := c.execute(ctx, `SELECT id, scope, status, severity, risk_score, classified_items,
		owner_user_id, sla_due_at, cooldown_until, signal_version, payload, created_at, updated_at, resolved_at
		FROM incidents WHERE scope = :scope AND status IN ('open', 'acknowledged', 'in_progress')
		ORDER BY created_at DESC LIMIT 1`, []types.SqlParameter{stringParam("scope", string(scope))})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("incident")
	}
	return scanIncident(out.Records[0])
}

func (c *Client) CreateIncident(ctx context.Context, incident *store.Incident) error {
	if incident.ID == uuid.Nil {
		incident.ID = newUUID()
	}
	incident.CreatedAt = now()
	incident.UpdatedAt = incident.CreatedAt
	return c.writeIncident(ctx, incident, true)
}

func (c *Client) UpdateIncident(ctx context.Context, incident *store.Incident) error {
	incident.UpdatedAt = now()
	return c.writeIncident(ctx, incident, false)
}

func (c *Client) writeIncident(ctx context.Context, incident *store.Incident, insert bool) error {
	payloadJSON, err := jsonParam("payload", incident.Payload)
	if err != nil {
		return err
	}

	if insert {
		_, err := c.execute(ctx, `INSERT INTO incidents
			(id, scope, status, severity, risk_score, classified_items, owner_user_id, sla_due_at,
			 cooldown_until, signal_version, payload, created_at, updated_at)
			VALUES (:id, :scope, :status, :severity, :risk_score, :classified_items, :owner_user_id,
			 :sla_due_at, :cooldown_until, :signal_version, :payload, :created_at, :updated_at)`,
			[]types.SqlParameter{
				uuidParam("id", incident.ID), stringParam("scope", string(incident.Scope)),
				stringParam("status", string(incident.Status)), stringParam("severity", string(incident.Severity)),
				doubleParam("risk_score", incident.RiskScore), longParam("classified_items", int64(incident.ClassifiedItems)),
				stringParam("owner_user_id", incident.OwnerUserID), timestampParam("sla_due_at", incident.SLADueAt),
				timestampParam("cooldown_until", incident.CooldownUntil), stringParam("signal_version", incident.SignalVersion),
				payloadJSON, timestampParam("created_at", incident.CreatedAt), timestampParam("updated_at", incident.UpdatedAt),
			})
		return err
	}

	_, err = c.execute(ctx, `UPDATE incidents SET status = :status, severity = :severity,
		risk_score = :risk_score, classified_items = :classified_items, owner_user_id = :owner_user_id,
		sla_due_at = :sla_due_at, cooldown_until = :cooldown_until, signal_version = :signal_version,
		payload = :payload, updated_at = :updated_at, resolved_at = :resolved_at WHERE id = :id`,
		[]types.SqlParameter{
			uuidParam("id", incident.ID), stringParam("status", string(incident.Status)),
			stringParam("severity", string(incident.Severity)), doubleParam("risk_score", incident.RiskScore),
			longParam("classified_items", int64(incident.ClassifiedItems)), stringParam("owner_user_id", incident.OwnerUserID),
			timestampParam("sla_due_at", incident.SLADueAt), timestampParam("cooldown_until", incident.CooldownUntil),
			stringParam("signal_version", incident.SignalVersion), payloadJSON,
			timestampParam("updated_at", incident.UpdatedAt), nullableTimestampParam("resolved_at", incident.ResolvedAt),
		})
	return err
}

func (c *Client) ListIncidents(ctx context.Context, filter store.IncidentFilter, page store.PageRequest) (store.Page[store.Incident], error) {
	cursor, err := store.DecodeCursor(page.After)
	if err != nil {
		return store.Page[store.Incident]{}, apperrorsValidation(err)
	}
	size := page.PageSize
	if size <= 0 {
		size = store.DefaultPageSize
	}

	sql := `SELECT id, scope, status, severity, risk_score, classified_items, owner_user_id, sla_due_at,
		cooldown_until, signal_version, payload, created_at, updated_at, resolved_at
		FROM incidents WHERE (created_at, id) < (:cursor_ts, :cursor_id)`
	params := []types.SqlParameter{timestampParam("cursor_ts", cursor.OrderedKey), uuidParam("cursor_id", cursor.ID)}

	if filter.Scope != nil {
		sql += " AND scope = :scope"
		params = append(params, stringParam("scope", string(*filter.Scope)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := ""
		for i, s := range filter.Statuses {
			name := fmt.Sprintf("status%d", i)
			if i > 0 {
				placeholders += ", "
			}
			placeholders += ":" + name
			params = append(params, stringParam(name, string(s)))
		}
		sql += fmt.Sprintf(" AND status IN (%s)", placeholders)
	}
	sql += " ORDER BY created_at DESC, id DESC LIMIT :limit"
	params = append(params, longParam("limit", int64(size+1)))

	out, err := c.execute(ctx, sql, params)
	if err != nil {
		return store.Page[store.Incident]{}, err
	}
	items := make([]store.Incident, 0, len(out.Records))
	for _, rec := range out.Records {
		inc, err := scanIncident(rec)
		if err != nil {
			return store.Page[store.Incident]{}, err
		}
		items = append(items, *inc)
	}
	return paginate(items, size, func(i store.Incident) store.Cursor {
		return store.Cursor{OrderedKey: i.CreatedAt, ID: i.ID}
	}), nil
}

func scanIncident(rec []types.Field) (*store.Incident, error) {
	if len(rec) < 14 {
		return nil, fmt.Errorf("unexpected incidents column count: %d", len(rec))
	}
	inc := &store.Incident{}
	idStr, _ := fieldString(rec[0])
	inc.ID, _ = uuid.Parse(idStr)
	scope, _ := fieldString(rec[1])
	inc.Scope = store.TaxonomyKind(scope)
	status, _ := fieldString(rec[2])
	inc.Status = store.IncidentStatus(status)
	sev, _ := fieldString(rec[3])
	inc.Severity = store.IncidentSeverity(sev)
	inc.RiskScore, _ = fieldDouble(rec[4])
	items, _ := fieldLong(rec[5])
	inc.ClassifiedItems = int(items)
	inc.OwnerUserID, _ = fieldString(rec[6])
	if slaStr, ok := fieldString(rec[7]); ok {
		inc.SLADueAt, _ = parseTimestamp(slaStr)
	}
	if cooldownStr, ok := fieldString(rec[8]); ok {
		inc.CooldownUntil, _ = parseTimestamp(cooldownStr)
	}
	inc.SignalVersion, _ = fieldString(rec[9])
	if payloadStr, ok := fieldString(rec[10]); ok {
		_ = json.Unmarshal([]byte(payloadStr), &inc.Payload)
	}
	if createdStr, ok := fieldString(rec[11]); ok {
		inc.CreatedAt, _ = parseTimestamp(createdStr)
	}
	if updatedStr, ok := fieldString(rec[12]); ok {
		inc.UpdatedAt, _ = parseTimestamp(updatedStr)
	}
	if !fieldIsNull(rec[13]) {
		if resolvedStr, ok := fieldString(rec[13]); ok {
			t, _ := parseTimestamp(resolvedStr)
			inc.ResolvedAt = &t
		}
	}
	return inc, nil
}

func (c *Client) AddIncidentNote(ctx context.Context, note *store.IncidentNote) error {
	if note.ID == uuid.Nil {
		note.ID = newUUID()
	}
	note.CreatedAt = now()
	_, err := c.execute(ctx, `INSERT INTO incident_notes (id, incident_id, author_user_id, body, created_at)
		VALUES (:id, :incident_id, :author_user_id, :body, :created_at)`,
		[]types.SqlParameter{
			uuidParam("id", note.ID), uuidParam("incident_id", note.IncidentID),
			stringParam("author_user_id", note.AuthorUserID), stringParam("body", note.Body),
			timestampParam("created_at", note.CreatedAt),
		})
	return err
}

func (c *Client) CreateIncidentEvaluationRun(ctx context.Context, run *store.IncidentEvaluationRun) error {
	if run.ID == uuid.Nil {
		run.ID = newUUID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = now()
	}
	_, err := c.execute(ctx, `INSERT INTO incident_evaluation_runs
		(id, trigger_type, status, started_at) VALUES (:id, :trigger_type, :status, :started_at)`,
		[]types.SqlParameter{
			uuidParam("id", run.ID), stringParam("trigger_type", string(run.TriggerType)),
			stringParam("status", string(run.Status)), timestampParam("started_at", run.StartedAt),
		})
	return err
}

func (c *Client) FinishIncidentEvaluationRun(ctx context.Context, run *store.IncidentEvaluationRun) error {
	finishedAt := now()
	run.FinishedAt = &finishedAt
	metricsParam := rawJSONParam("metrics", run.Metrics)
	_, err := c.execute(ctx, `UPDATE incident_evaluation_runs SET status = :status, finished_at = :finished_at,
		metrics = :metrics, error_message = :error_message WHERE id = :id`,
		[]types.SqlParameter{
			uuidParam("id", run.ID), stringParam("status", string(run.Status)),
			timestampParam("finished_at", finishedAt), metricsParam,
			stringParam("error_message", run.ErrorMessage),
		})
	return err
}
