package rdsdata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

func (c *Client) GetTrackedQuery(ctx context.Context, id uuid.UUID) (*store.TrackedQuery, error) {
	out, err := c.execute(ctx, `SELECT id, name, language, scope, is_active, max_articles_per_run,
		definition, execution, compiled_definition, current_revision, created_at, updated_at
		FROM tracked_queries WHERE id = :id`, []types.SqlParameter{uuidParam("id", id)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("tracked query")
	}
	return scanTrackedQuery(out.Records[0])
}

func (c *Client) GetTrackedQueryByNameLanguage(ctx context.Context, name, language string) (*store.TrackedQuery, error) {
	out, err := c.execute(ctx, `SELECT id, name, language, scope, is_active, max_articles_per_run,
		definition, execution, compiled_definition, current_revision, created_at, updated_at
		FROM tracked_queries WHERE name = :name AND language = :language`,
		[]types.SqlParameter{stringParam("name", name), stringParam("language", language)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("tracked query")
	}
	return scanTrackedQuery(out.Records[0])
}

func (c *Client) ListActiveTrackedQueries(ctx context.Context, limit int) ([]store.TrackedQuery, error) {
	out, err := c.execute(ctx, `SELECT id, name, language, scope, is_active, max_articles_per_run,
		definition, execution, compiled_definition, current_revision, created_at, updated_at
		FROM tracked_queries WHERE is_active = true ORDER BY updated_at DESC LIMIT :limit`,
		[]types.SqlParameter{longParam("limit", int64(limit))})
	if err != nil {
		return nil, err
	}
	return scanTrackedQueries(out.Records)
}

func (c *Client) ListTrackedQueries(ctx context.Context, filter store.TrackedQueryFilter, page store.PageRequest) (store.Page[store.TrackedQuery], error) {
	cursor, err := store.DecodeCursor(page.After)
	if err != nil {
		return store.Page[store.TrackedQuery]{}, apperrorsValidation(err)
	}
	size := page.PageSize
	if size <= 0 {
		size = store.DefaultPageSize
	}

	sql := `SELECT id, name, language, scope, is_active, max_articles_per_run,
		definition, execution, compiled_definition, current_revision, created_at, updated_at
		FROM tracked_queries WHERE (updated_at, id) < (:cursor_ts, :cursor_id)`
	params := []types.SqlParameter{timestampParam("cursor_ts", cursor.OrderedKey), uuidParam("cursor_id", cursor.ID)}
	if filter.Scope != nil {
		sql += " AND scope = :scope"
		params = append(params, stringParam("scope", string(*filter.Scope)))
	}
	if filter.IsActive != nil {
		sql += " AND is_active = :is_active"
		params = append(params, boolParam("is_active", *filter.IsActive))
	}
	sql += " ORDER BY updated_at DESC, id DESC LIMIT :limit"
	params = append(params, longParam("limit", int64(size+1)))

	out, err := c.execute(ctx, sql, params)
	if err != nil {
		return store.Page[store.TrackedQuery]{}, err
	}
	items, err := scanTrackedQueries(out.Records)
	if err != nil {
		return store.Page[store.TrackedQuery]{}, err
	}
	return paginate(items, size, func(q store.TrackedQuery) store.Cursor {
		return store.Cursor{OrderedKey: q.UpdatedAt, ID: q.ID}
	}), nil
}

func (c *Client) UpsertTrackedQuery(ctx context.Context, q *store.TrackedQuery, changeReason, actorUserID string) error {
	return c.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		txc := tx.(*Client)
		if q.ID == uuid.Nil {
			q.ID = newUUID()
		}
		q.CurrentRevision++
		q.UpdatedAt = now()
		if q.CreatedAt.IsZero() {
			q.CreatedAt = q.UpdatedAt
		}

		defJSON, err := jsonParam("definition", q.Definition)
		if err != nil {
			return err
		}
		execJSON, err := jsonParam("execution", q.Execution)
		if err != nil {
			return err
		}
		compiledJSON, err := jsonParam("compiled_definition", q.CompiledDefinition)
		if err != nil {
			return err
		}

		_, err = txc.execute(ctx, `INSERT INTO tracked_queries
			(id, name, language, scope, is_active, max_articles_per_run, definition, execution,
			 compiled_definition, current_revision, created_at, updated_at)
			VALUES (:id, :name, :language, :scope, :is_active, :max_articles_per_run, :definition, :execution,
			 :compiled_definition, :current_revision, :created_at, :updated_at)
			ON CONFLICT (name, language) DO UPDATE SET
			 scope = EXCLUDED.scope, is_active = EXCLUDED.is_active,
			 max_articles_per_run = EXCLUDED.max_articles_per_run, definition = EXCLUDED.definition,
			 execution = EXCLUDED.execution, compiled_definition = EXCLUDED.compiled_definition,
			 current_revision = EXCLUDED.current_revision, updated_at = EXCLUDED.updated_at
			RETURNING id`,
			[]types.SqlParameter{
				uuidParam("id", q.ID), stringParam("name", q.Name), stringParam("language", q.Language),
				stringParam("scope", string(q.Scope)), boolParam("is_active", q.IsActive),
				longParam("max_articles_per_run", int64(q.MaxArticlesPerRun)),
				defJSON, execJSON, compiledJSON,
				longParam("current_revision", int64(q.CurrentRevision)),
				timestampParam("created_at", q.CreatedAt), timestampParam("updated_at", q.UpdatedAt),
			})
		if err != nil {
			return err
		}

		revJSON, err := jsonParam("definition", q.Definition)
		if err != nil {
			return err
		}
		revExecJSON, err := jsonParam("execution", q.Execution)
		if err != nil {
			return err
		}
		revCompiledJSON, err := jsonParam("compiled", q.CompiledDefinition)
		if err != nil {
			return err
		}
		_, err = txc.execute(ctx, `INSERT INTO tracked_query_revisions
			(id, query_id, revision, definition, execution, compiled, change_reason, actor_user_id, created_at)
			VALUES (:id, :query_id, :revision, :definition, :execution, :compiled, :change_reason, :actor_user_id, :created_at)`,
			[]types.SqlParameter{
				uuidParam("id", newUUID()), uuidParam("query_id", q.ID), longParam("revision", int64(q.CurrentRevision)),
				revJSON, revExecJSON, revCompiledJSON,
				stringParam("change_reason", changeReason), stringParam("actor_user_id", actorUserID),
				timestampParam("created_at", q.UpdatedAt),
			})
		return err
	})
}

func (c *Client) DeactivateTrackedQuery(ctx context.Context, id uuid.UUID, actorUserID string) error {
	_, err := c.execute(ctx, `UPDATE tracked_queries SET is_active = false, updated_at = :now WHERE id = :id`,
		[]types.SqlParameter{uuidParam("id", id), timestampParam("now", now())})
	return err
}

func apperrorsValidation(err error) error {
	return fmt.Errorf("invalid pagination cursor: %w", err)
}

func paginate[T any](items []T, size int, key func(T) store.Cursor) store.Page[T] {
	hasMore := len(items) > size
	if hasMore {
		items = items[:size]
	}
	var next string
	if hasMore && len(items) > 0 {
		next = key(items[len(items)-1]).Encode()
	}
	return store.Page[T]{Items: items, NextCursor: next, HasMore: hasMore}
}

func scanTrackedQuery(record []types.Field) (*store.TrackedQuery, error) {
	qs, err := scanTrackedQueries([][]types.Field{record})
	if err != nil || len(qs) == 0 {
		return nil, err
	}
	return &qs[0], nil
}

func scanTrackedQueries(records [][]types.Field) ([]store.TrackedQuery, error) {
	out := make([]store.TrackedQuery, 0, len(records))
	for _, rec := range records {
		if len(rec) < 12 {
			return nil, fmt.Errorf("unexpected tracked_queries column count: %d", len(rec))
		}
		var q store.TrackedQuery
		idStr, _ := fieldString(rec[0])
		q.ID, _ = uuid.Parse(idStr)
		q.Name, _ = fieldString(rec[1])
		q.Language, _ = fieldString(rec[2])
		scope, _ := fieldString(rec[3])
		q.Scope = store.TaxonomyKind(scope)
		q.IsActive, _ = fieldBool(rec[4])
		maxPerRun, _ := fieldLong(rec[5])
		q.MaxArticlesPerRun = int(maxPerRun)
		if defStr, ok := fieldString(rec[6]); ok {
			_ = json.Unmarshal([]byte(defStr), &q.Definition)
		}
		if execStr, ok := fieldString(rec[7]); ok {
			_ = json.Unmarshal([]byte(execStr), &q.Execution)
		}
		if compStr, ok := fieldString(rec[8]); ok {
			_ = json.Unmarshal([]byte(compStr), &q.CompiledDefinition)
		}
		rev, _ := fieldLong(rec[9])
		q.CurrentRevision = int(rev)
		if createdStr, ok := fieldString(rec[10]); ok {
			q.CreatedAt, _ = parseTimestamp(createdStr)
		}
		if updatedStr, ok := fieldString(rec[11]); ok {
			q.UpdatedAt, _ = parseTimestamp(updatedStr)
		}
		out = append(out, q)
	}
	return out, nil
}
