package rdsdata

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

func (c *Client) GetSocialChannel(ctx context.Context, id uuid.UUID) (*store.SocialChannel, error) {
	out, err := c.execute(ctx, `SELECT id, name, platform, object_key_prefix, is_active, created_at, updated_at
		FROM social_channels WHERE id = :id`, []types.SqlParameter{uuidParam("id", id)})
	if err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, noRowsErr("social channel")
	}
	return scanSocialChannel(out.Records[0])
}

func (c *Client) ListActiveSocialChannels(ctx context.Context) ([]store.SocialChannel, error) {
	out, err := c.execute(ctx, `SELECT id, name, platform, object_key_prefix, is_active, created_at, updated_at
		FROM social_channels WHERE is_active = true`, nil)
	if err != nil {
		return nil, err
	}
	channels := make([]store.SocialChannel, 0, len(out.Records))
	for _, rec := range out.Records {
		ch, err := scanSocialChannel(rec)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, nil
}

func scanSocialChannel(rec []types.Field) (*store.SocialChannel, error) {
	if len(rec) < 7 {
		return nil, fmt.Errorf("unexpected social_channels column count: %d", len(rec))
	}
	ch := &store.SocialChannel{}
	idStr, _ := fieldString(rec[0])
	ch.ID, _ = uuid.Parse(idStr)
	ch.Name, _ = fieldString(rec[1])
	ch.Platform, _ = fieldString(rec[2])
	ch.ObjectKeyPrefix, _ = fieldString(rec[3])
	ch.IsActive, _ = fieldBool(rec[4])
	if createdStr, ok := fieldString(rec[5]); ok {
		ch.CreatedAt, _ = parseTimestamp(createdStr)
	}
	if updatedStr, ok := fieldString(rec[6]); ok {
		ch.UpdatedAt, _ = parseTimestamp(updatedStr)
	}
	return ch, nil
}

// MarkSocialObjectProcessed claims an S3 object key+ETag for a channel
// so a re-triggered listing does not reprocess the same export file,
// per spec §4.3.1's per-object idempotency rule. It reports whether the
// object was already marked (meaning the caller must skip it).
func (c *Client) MarkSocialObjectProcessed(ctx context.Context, channelID uuid.UUID, objectKey, objectETag string) (bool, error) {
	out, err := c.execute(ctx, `INSERT INTO social_processed_objects (channel_id, object_key, object_etag, processed_at)
		VALUES (:channel_id, :object_key, :object_etag, :now)
		ON CONFLICT (channel_id, object_key) DO NOTHING`,
		[]types.SqlParameter{
			uuidParam("channel_id", channelID), stringParam("object_key", objectKey),
			stringParam("object_etag", objectETag), timestampParam("now", now()),
		})
	if err != nil {
		return false, err
	}
	return rowCount(out) == 0, nil
}

func (c *Client) InsertSocialPosts(ctx context.Context, posts []store.SocialPost) (int, error) {
	inserted := 0
	err := c.Tx(ctx, func(ctx context.Context, tx store.Store) error {
		txc := tx.(*Client)
		for _, post := range posts {
			if post.ID == uuid.Nil {
				post.ID = newUUID()
			}
			post.CreatedAt = now()
			metaParam := rawJSONParam("metadata", post.Metadata)

			out, err := txc.execute(ctx, `INSERT INTO social_posts
				(id, channel_id, content_item_id, external_id, author, body, published_at, sentiment_hint,
				 metadata, created_at)
				VALUES (:id, :channel_id, :content_item_id, :external_id, :author, :body, :published_at,
				 :sentiment_hint, :metadata, :created_at)
				ON CONFLICT (channel_id, external_id) DO NOTHING`,
				[]types.SqlParameter{
					uuidParam("id", post.ID), uuidParam("channel_id", post.ChannelID),
					nullableUUIDParam("content_item_id", post.ContentItemID), stringParam("external_id", post.ExternalID),
					stringParam("author", post.Author), stringParam("body", post.Body),
					timestampParam("published_at", post.PublishedAt), stringParam("sentiment_hint", post.SentimentHint),
					metaParam, timestampParam("created_at", post.CreatedAt),
				})
			if err != nil {
				return err
			}
			if rowCount(out) > 0 {
				inserted++
			}
		}
		return nil
	})
	return inserted, err
}

func (c *Client) RecordSocialReconciliation(ctx context.Context, rec *store.SocialChannelReconciliation) error {
	if rec.ID == uuid.Nil {
		rec.ID = newUUID()
	}
	rec.CreatedAt = now()
	_, err := c.execute(ctx, `INSERT INTO social_channel_reconciliations
		(id, channel_id, status, objects_scanned, objects_marked, posts_ingested, negative_hint_share,
		 triggered_incident, created_at)
		VALUES (:id, :channel_id, :status, :objects_scanned, :objects_marked, :posts_ingested,
		 :negative_hint_share, :triggered_incident, :created_at)`,
		[]types.SqlParameter{
			uuidParam("id", rec.ID), uuidParam("channel_id", rec.ChannelID), stringParam("status", rec.Status),
			longParam("objects_scanned", int64(rec.ObjectsScanned)), longParam("objects_marked", int64(rec.ObjectsMarked)),
			longParam("posts_ingested", int64(rec.PostsIngested)), doubleParam("negative_hint_share", rec.NegativeHintShare),
			boolParam("triggered_incident", rec.TriggeredIncident), timestampParam("created_at", rec.CreatedAt),
		})
	return err
}
