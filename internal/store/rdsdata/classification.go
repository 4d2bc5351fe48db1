package rdsdata

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

// GetManualOverride returns the analyst-entered Classification for a
// content item, if one exists; classification workers must skip
// reclassifying an item with a manual override per spec §4.4.
func (c *Client) GetManualOverride(ctx context.Context, contentItemID uuid.UUID) (*store.Classification, error) {
	out, err := c.execute(ctx, `SELECT content_item_id, prompt_version, model_id, categoria, sentimiento,
		etiquetas, confianza, resumen, is_override, overridden_by_user_id, override_reason, created_at, updated_at
		FROM classifications WHERE content_item_id = :id AND is_override = true
		ORDER BY updated_at DESC LIMIT 1`, []types.SqlParameter{uuidParam("id", contentItemID)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("manual override")
	}
	return scanClassification(out.Records[0])
}

// GetLatestClassification returns the most recent Classification for a
// content item regardless of whether it is a model result or an override.
func (c *Client) GetLatestClassification(ctx context.Context, contentItemID uuid.UUID) (*store.Classification, error) {
	out, err := c.execute(ctx, `SELECT content_item_id, prompt_version, model_id, categoria, sentimiento,
		etiquetas, confianza, resumen, is_override, overridden_by_user_id, override_reason, created_at, updated_at
		FROM classifications WHERE content_item_id = :id ORDER BY updated_at DESC LIMIT 1`,
		[]types.SqlParameter{uuidParam("id", contentItemID)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("classification")
	}
	return scanClassification(out.Records[0])
}

// UpsertClassification writes a model or override result, keyed by
// (contentItemId, promptVersion, modelId) so a retried classification
// attempt overwrites rather than duplicates, and mirrors categoria/
// sentimiento onto content_items for cheap filtering in ListContentItems.
func (c *Client) UpsertClassification(ctx context.Context, cl *store.Classification) error {
	return c.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		txc := tx.(*Client)
		cl.UpdatedAt = now()
		if cl.CreatedAt.IsZero() {
			cl.CreatedAt = cl.UpdatedAt
		}
		etiquetasParam, err := stringArrayParam("etiquetas", cl.Etiquetas)
		if err != nil {
			return err
		}

		_, err = txc.execute(ctx, `INSERT INTO classifications
			(content_item_id, prompt_version, model_id, categoria, sentimiento, etiquetas, confianza,
			 resumen, is_override, overridden_by_user_id, override_reason, created_at, updated_at)
			VALUES (:content_item_id, :prompt_version, :model_id, :categoria, :sentimiento, :etiquetas,
			 :confianza, :resumen, :is_override, :overridden_by_user_id, :override_reason, :created_at, :updated_at)
			ON CONFLICT (content_item_id, prompt_version, model_id) DO UPDATE SET
			 categoria = EXCLUDED.categoria, sentimiento = EXCLUDED.sentimiento, etiquetas = EXCLUDED.etiquetas,
			 confianza = EXCLUDED.confianza, resumen = EXCLUDED.resumen, is_override = EXCLUDED.is_override,
			 overridden_by_user_id = EXCLUDED.overridden_by_user_id, override_reason = EXCLUDED.override_reason,
			 updated_at = EXCLUDED.updated_at`,
			[]types.SqlParameter{
				uuidParam("content_item_id", cl.ContentItemID), stringParam("prompt_version", cl.PromptVersion),
				stringParam("model_id", cl.ModelID), stringParam("categoria", cl.Categoria),
				stringParam("sentimiento", string(cl.Sentimiento)), etiquetasParam,
				doubleParam("confianza", cl.Confianza), stringParam("resumen", cl.Resumen),
				boolParam("is_override", cl.IsOverride), stringParam("overridden_by_user_id", cl.OverriddenByUserID),
				stringParam("override_reason", cl.OverrideReason),
				timestampParam("created_at", cl.CreatedAt), timestampParam("updated_at", cl.UpdatedAt),
			})
		if err != nil {
			return err
		}

		_, err = txc.execute(ctx, `UPDATE content_items SET categoria = :categoria, sentimiento = :sentimiento,
			updated_at = :now WHERE id = :id`,
			[]types.SqlParameter{
				uuidParam("id", cl.ContentItemID), stringParam("categoria", cl.Categoria),
				stringParam("sentimiento", string(cl.Sentimiento)), timestampParam("now", now()),
			})
		return err
	})
}

func scanClassification(rec []types.Field) (*store.Classification, error) {
	cl := &store.Classification{}
	idStr, _ := fieldString(rec[0])
	cl.ContentItemID, _ = uuid.Parse(idStr)
	cl.PromptVersion, _ = fieldString(rec[1])
	cl.ModelID, _ = fieldString(rec[2])
	cl.Categoria, _ = fieldString(rec[3])
	sent, _ := fieldString(rec[4])
	cl.Sentimiento = store.Sentiment(sent)
	if etiquetasStr, ok := fieldString(rec[5]); ok {
		_ = json.Unmarshal([]byte(etiquetasStr), &cl.Etiquetas)
	}
	cl.Confianza, _ = fieldDouble(rec[6])
	cl.Resumen, _ = fieldString(rec[7])
	cl.IsOverride, _ = fieldBool(rec[8])
	cl.OverriddenByUserID, _ = fieldString(rec[9])
	cl.OverrideReason, _ = fieldString(rec[10])
	if createdStr, ok := fieldString(rec[11]); ok {
		cl.CreatedAt, _ = parseTimestamp(createdStr)
	}
	if updatedStr, ok := fieldString(rec[12]); ok {
		cl.UpdatedAt, _ = parseTimestamp(updatedStr)
	}
	return cl, nil
}

// GetSourceWeight resolves the configured credibility weight for a
// (provider, sourceName) pair, falling back to the provider-wide row
// (sourceName IS NULL) when no exact match exists, per spec §4.5.
func (c *Client) GetSourceWeight(ctx context.Context, provider string, sourceName *string) (*store.SourceWeight, error) {
	if sourceName != nil && *sourceName != "" {
		out, err := c.execute(ctx, `SELECT provider, source_name, weight FROM source_weights
			WHERE provider = :provider AND source_name = :source_name`,
			[]types.SqlParameter{stringParam("provider", provider), stringParam("source_name", *sourceName)})
		if err != nil {
			return nil, err
		}
		if len(out.Records) > 0 {
			return scanSourceWeight(out.Records[0])
		}
	}
	out, err := c.execute(ctx, `SELECT provider, source_name, weight FROM source_weights
		WHERE provider = :provider AND source_name IS NULL`, []types.SqlParameter{stringParam("provider", provider)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("source weight")
	}
	return scanSourceWeight(out.Records[0])
}

func scanSourceWeight(rec []types.Field) (*store.SourceWeight, error) {
	w := &store.SourceWeight{}
	w.Provider, _ = fieldString(rec[0])
	if !fieldIsNull(rec[1]) {
		if name, ok := fieldString(rec[1]); ok {
			w.SourceName = &name
		}
	}
	w.Weight, _ = fieldDouble(rec[2])
	return w, nil
}
