package rdsdata

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

// UpsertContentItem implements spec §4.3's persistence step: on
// conflict by canonical_url, mutable fields are updated and termId is
// COALESCEd so a later run never clobbers an already-resolved term.
func (c *Client) UpsertContentItem(ctx context.Context, item *store.ContentItem) (uuid.UUID, error) {
	if item.ID == uuid.Nil {
		item.ID = newUUID()
	}
	item.UpdatedAt = now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = item.UpdatedAt
	}
	if item.State == "" {
		item.State = store.ContentStateActive
	}

	metaJSON, err := jsonParam("metadata", item.Metadata)
	if err != nil {
		return uuid.Nil, err
	}

	out, err := c.execute(ctx, `INSERT INTO content_items
		(id, canonical_url, source_type, term_id, provider, source_name, source_id, title, summary,
		 content, image_url, language, category, published_at, source_score, raw_payload_s3_key, state,
		 metadata, created_at, updated_at)
		VALUES (:id, :canonical_url, :source_type, :term_id, :provider, :source_name, :source_id, :title,
		 :summary, :content, :image_url, :language, :category, :published_at, :source_score,
		 :raw_payload_s3_key, :state, :metadata, :created_at, :updated_at)
		ON CONFLICT (canonical_url) DO UPDATE SET
		 term_id = COALESCE(content_items.term_id, EXCLUDED.term_id),
		 provider = EXCLUDED.provider, source_name = EXCLUDED.source_name, source_id = EXCLUDED.source_id,
		 title = EXCLUDED.title, summary = EXCLUDED.summary, content = EXCLUDED.content,
		 image_url = EXCLUDED.image_url, category = EXCLUDED.category, published_at = EXCLUDED.published_at,
		 source_score = EXCLUDED.source_score, raw_payload_s3_key = EXCLUDED.raw_payload_s3_key,
		 metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at
		RETURNING id`,
		[]types.SqlParameter{
			uuidParam("id", item.ID), stringParam("canonical_url", item.CanonicalURL),
			stringParam("source_type", string(item.SourceType)), nullableUUIDParam("term_id", item.TermID),
			stringParam("provider", item.Provider), stringParam("source_name", item.SourceName),
			stringParam("source_id", item.SourceID), stringParam("title", item.Title),
			stringParam("summary", item.Summary), stringParam("content", item.Content),
			stringParam("image_url", item.ImageURL), stringParam("language", item.Language),
			stringParam("category", item.Category), timestampParam("published_at", item.PublishedAt),
			doubleParam("source_score", item.SourceScore), stringParam("raw_payload_s3_key", item.RawPayloadS3Key),
			stringParam("state", string(item.State)), metaJSON,
			timestampParam("created_at", item.CreatedAt), timestampParam("updated_at", item.UpdatedAt),
		})
	if err != nil {
		return uuid.Nil, err
	}
	if len(out.Records) == 0 {
		return item.ID, nil
	}
	idStr, _ := fieldString(out.Records[0][0])
	if parsed, err := uuid.Parse(idStr); err == nil {
		return parsed, nil
	}
	return item.ID, nil
}

func (c *Client) GetContentItem(ctx context.Context, id uuid.UUID) (*store.ContentItem, error) {
	return c.getContentItemBy(ctx, "id", uuidParam("id", id))
}

func (c *Client) GetContentItemByCanonicalURL(ctx context.Context, canonicalURL string) (*store.ContentItem, error) {
	return c.getContentItemBy(ctx, "canonical_url", stringParam("canonical_url", canonicalURL))
}

func (c *Client) getContentItemBy(ctx context.Context, column string, param types.SqlParameter) (*store.ContentItem, error) {
	out, err := c.execute(ctx, fmt.Sprintf(`SELECT id, canonical_url, source_type, term_id, provider,
		source_name, source_id, title, summary, content, image_url, language, category, published_at,
		source_score, raw_payload_s3_key, state, categoria, sentimiento, metadata, created_at, updated_at
		FROM content_items WHERE %s = :%s`, column, *param.Name), []types.SqlParameter{param})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("content item")
	}
	return scanContentItem(out.Records[0])
}

func scanContentItem(rec []types.Field) (*store.ContentItem, error) {
	if len(rec) < 22 {
		return nil, fmt.Errorf("unexpected content_items column count: %d", len(rec))
	}
	item := &store.ContentItem{}
	idStr, _ := fieldString(rec[0])
	item.ID, _ = uuid.Parse(idStr)
	item.CanonicalURL, _ = fieldString(rec[1])
	st, _ := fieldString(rec[2])
	item.SourceType = store.SourceType(st)
	if !fieldIsNull(rec[3]) {
		if termStr, ok := fieldString(rec[3]); ok {
			if id, err := uuid.Parse(termStr); err == nil {
				item.TermID = &id
			}
		}
	}
	item.Provider, _ = fieldString(rec[4])
	item.SourceName, _ = fieldString(rec[5])
	item.SourceID, _ = fieldString(rec[6])
	item.Title, _ = fieldString(rec[7])
	item.Summary, _ = fieldString(rec[8])
	item.Content, _ = fieldString(rec[9])
	item.ImageURL, _ = fieldString(rec[10])
	item.Language, _ = fieldString(rec[11])
	item.Category, _ = fieldString(rec[12])
	if publishedStr, ok := fieldString(rec[13]); ok {
		item.PublishedAt, _ = parseTimestamp(publishedStr)
	}
	item.SourceScore, _ = fieldDouble(rec[14])
	item.RawPayloadS3Key, _ = fieldString(rec[15])
	state, _ := fieldString(rec[16])
	item.State = store.ContentState(state)
	item.Categoria, _ = fieldString(rec[17])
	item.Sentimiento, _ = fieldString(rec[18])
	if metaStr, ok := fieldString(rec[19]); ok {
		item.Metadata = []byte(metaStr)
	}
	if createdStr, ok := fieldString(rec[20]); ok {
		item.CreatedAt, _ = parseTimestamp(createdStr)
	}
	if updatedStr, ok := fieldString(rec[21]); ok {
		item.UpdatedAt, _ = parseTimestamp(updatedStr)
	}
	return item, nil
}

func (c *Client) ListContentItems(ctx context.Context, filter store.ContentItemFilter, page store.PageRequest) (store.Page[store.ContentItem], error) {
	cursor, err := store.DecodeCursor(page.After)
	if err != nil {
		return store.Page[store.ContentItem]{}, apperrorsValidation(err)
	}
	size := page.PageSize
	if size <= 0 {
		size = store.DefaultPageSize
	}

	sql := `SELECT id, canonical_url, source_type, term_id, provider, source_name, source_id, title,
		summary, content, image_url, language, category, published_at, source_score, raw_payload_s3_key,
		state, categoria, sentimiento, metadata, created_at, updated_at
		FROM content_items WHERE (created_at, id) < (:cursor_ts, :cursor_id)`
	params := []types.SqlParameter{timestampParam("cursor_ts", cursor.OrderedKey), uuidParam("cursor_id", cursor.ID)}

	if filter.SourceType != nil {
		sql += " AND source_type = :source_type"
		params = append(params, stringParam("source_type", string(*filter.SourceType)))
	}
	if filter.State != nil {
		sql += " AND state = :state"
		params = append(params, stringParam("state", string(*filter.State)))
	}
	if filter.From != nil {
		sql += " AND published_at >= :from"
		params = append(params, timestampParam("from", *filter.From))
	}
	if filter.To != nil {
		sql += " AND published_at <= :to"
		params = append(params, timestampParam("to", *filter.To))
	}
	if filter.Provider != nil {
		sql += " AND provider = :provider"
		params = append(params, stringParam("provider", *filter.Provider))
	}
	if filter.Category != nil {
		sql += " AND category = :category"
		params = append(params, stringParam("category", *filter.Category))
	}
	if filter.Sentimiento != nil {
		sql += " AND sentimiento = :sentimiento"
		params = append(params, stringParam("sentimiento", *filter.Sentimiento))
	}
	if filter.TermID != nil {
		sql += " AND term_id = :term_id"
		params = append(params, uuidParam("term_id", *filter.TermID))
	}
	if filter.Query != nil && *filter.Query != "" {
		sql += " AND (title ILIKE :q OR summary ILIKE :q)"
		params = append(params, stringParam("q", "%"+*filter.Query+"%"))
	}
	sql += " ORDER BY created_at DESC, id DESC LIMIT :limit"
	params = append(params, longParam("limit", int64(size+1)))

	out, err := c.execute(ctx, sql, params)
	if err != nil {
		return store.Page[store.ContentItem]{}, err
	}
	items := make([]store.ContentItem, 0, len(out.Records))
	for _, rec := range out.Records {
		item, err := scanContentItem(rec)
		if err != nil {
			return store.Page[store.ContentItem]{}, err
		}
		items = append(items, *item)
	}
	return paginate(items, size, func(i store.ContentItem) store.Cursor {
		return store.Cursor{OrderedKey: i.CreatedAt, ID: i.ID}
	}), nil
}

func (c *Client) TransitionContentState(ctx context.Context, id uuid.UUID, to store.ContentState, actorUserID, reason string) error {
	return c.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		txc := tx.(*Client)
		item, err := txc.GetContentItem(ctx, id)
		if err != nil {
			return err
		}
		from := item.State

		_, err = txc.execute(ctx, `UPDATE content_items SET state = :state, updated_at = :now WHERE id = :id`,
			[]types.SqlParameter{uuidParam("id", id), stringParam("state", string(to)), timestampParam("now", now())})
		if err != nil {
			return err
		}

		_, err = txc.execute(ctx, `INSERT INTO content_state_events
			(id, content_item_id, from_state, to_state, actor_user_id, reason, created_at)
			VALUES (:id, :content_item_id, :from_state, :to_state, :actor_user_id, :reason, :now)`,
			[]types.SqlParameter{
				uuidParam("id", newUUID()), uuidParam("content_item_id", id),
				stringParam("from_state", string(from)), stringParam("to_state", string(to)),
				stringParam("actor_user_id", actorUserID), stringParam("reason", reason),
				timestampParam("now", now()),
			})
		return err
	})
}

func (c *Client) ListActiveNewsForClassification(ctx context.Context, windowStart time.Time, promptVersion, modelID string, limit int) ([]uuid.UUID, error) {
	out, err := c.execute(ctx, `SELECT ci.id FROM content_items ci
		WHERE ci.state = 'active' AND ci.source_type = 'news' AND ci.created_at >= :window_start
		AND NOT EXISTS (
		  SELECT 1 FROM classifications cl
		  WHERE cl.content_item_id = ci.id AND cl.prompt_version = :prompt_version AND cl.model_id = :model_id
		)
		ORDER BY ci.created_at ASC LIMIT :limit`,
		[]types.SqlParameter{
			timestampParam("window_start", windowStart), stringParam("prompt_version", promptVersion),
			stringParam("model_id", modelID), longParam("limit", int64(limit)),
		})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(out.Records))
	for _, rec := range out.Records {
		idStr, _ := fieldString(rec[0])
		if id, err := uuid.Parse(idStr); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Client) ListActiveNewsForEvaluation(ctx context.Context, windowStart time.Time) ([]store.ContentItem, error) {
	out, err := c.execute(ctx, `SELECT id, canonical_url, source_type, term_id, provider, source_name,
		source_id, title, summary, content, image_url, language, category, published_at, source_score,
		raw_payload_s3_key, state, categoria, sentimiento, metadata, created_at, updated_at
		FROM content_items WHERE state = 'active' AND source_type = 'news' AND published_at >= :window_start`,
		[]types.SqlParameter{timestampParam("window_start", windowStart)})
	if err != nil {
		return nil, err
	}
	items := make([]store.ContentItem, 0, len(out.Records))
	for _, rec := range out.Records {
		item, err := scanContentItem(rec)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}
