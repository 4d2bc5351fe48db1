// Package audit gives every worker and HTTP handler a single, named
// call for writing an audit row inside the transaction of the mutation
// it documents, instead of reaching into internal/store directly.
package audit

import (
	"context"

	"github.com/claro-ops/media-intel/internal/store"
)

// Entry is the caller-supplied half of a store.AuditLog; ID and
// CreatedAt are always assigned by Log.
type Entry struct {
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	RequestID    string
	Before       []byte
	After        []byte
}

// Log writes entry via s.AppendAuditLog. Call it with a context carrying
// an open transaction (see store.Store.Tx) so the audit row commits or
// rolls back atomically with the mutation it records.
func Log(ctx context.Context, s store.Store, entry Entry) error {
	return s.AppendAuditLog(ctx, &store.AuditLog{
		ActorUserID:  entry.ActorUserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		RequestID:    entry.RequestID,
		Before:       entry.Before,
		After:        entry.After,
	})
}
