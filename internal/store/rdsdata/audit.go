package rdsdata

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

// AppendAuditLog writes an immutable audit row. Callers that must pair
// a mutation with its audit entry atomically should call this inside
// Tx alongside the mutation, per spec §4.7's "every mutating API call
// writes exactly one audit log row in the same transaction" invariant.
func (c *Client) AppendAuditLog(ctx context.Context, entry *store.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = newUUID()
	}
	entry.CreatedAt = now()
	beforeParam := rawJSONParam("before", entry.Before)
	afterParam := rawJSONParam("after", entry.After)
	_, err := c.execute(ctx, `INSERT INTO audit_logs
		(id, actor_user_id, action, resource_type, resource_id, request_id, before, after, created_at)
		VALUES (:id, :actor_user_id, :action, :resource_type, :resource_id, :request_id, :before, :after, :created_at)`,
		[]types.SqlParameter{
			uuidParam("id", entry.ID), stringParam("actor_user_id", entry.ActorUserID),
			stringParam("action", entry.Action), stringParam("resource_type", entry.ResourceType),
			stringParam("resource_id", entry.ResourceID), stringParam("request_id", entry.RequestID),
			beforeParam, afterParam, timestampParam("created_at", entry.CreatedAt),
		})
	return err
}
