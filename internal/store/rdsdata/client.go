package rdsdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
)

// Client wraps the RDS Data API SDK client with the resource/secret/
// database identifiers every statement needs, and implements
// store.Store.
type Client struct {
	api         *rdsdata.Client
	resourceARN string
	secretARN   string
	database    string
}

// New builds a Client bound to the DB_RESOURCE_ARN/DB_SECRET_ARN/DB_NAME
// triplet from spec §6.
func New(api *rdsdata.Client, resourceARN, secretARN, database string) *Client {
	return &Client{api: api, resourceARN: resourceARN, secretARN: secretARN, database: database}
}

var _ store.Store = (*Client)(nil)

// txKey threads an in-flight transaction ID through context so nested
// Store calls inside Tx share one transaction.
type txKey struct{}

func (c *Client) transactionID(ctx context.Context) *string {
	if v, ok := ctx.Value(txKey{}).(string); ok && v != "" {
		return aws.String(v)
	}
	return nil
}

// Tx begins an RDS Data API transaction, runs fn with a context carrying
// the transaction ID, and commits or rolls back based on fn's result.
func (c *Client) Tx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	begun, err := c.api.BeginTransaction(ctx, &rdsdata.BeginTransactionInput{
		ResourceArn: aws.String(c.resourceARN),
		SecretArn:   aws.String(c.secretARN),
		Database:    aws.String(c.database),
	})
	if err != nil {
		return apperrors.NewDatabaseError("begin transaction", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, aws.ToString(begun.TransactionId))

	if err := fn(txCtx, c); err != nil {
		if _, rbErr := c.api.RollbackTransaction(ctx, &rdsdata.RollbackTransactionInput{
			ResourceArn:   aws.String(c.resourceARN),
			SecretArn:     aws.String(c.secretARN),
			TransactionId: begun.TransactionId,
		}); rbErr != nil {
			return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "transaction failed and rollback also failed").WithDetailsf("rollback error: %s", rbErr.Error())
		}
		return err
	}

	if _, err := c.api.CommitTransaction(ctx, &rdsdata.CommitTransactionInput{
		ResourceArn:   aws.String(c.resourceARN),
		SecretArn:     aws.String(c.secretARN),
		TransactionId: begun.TransactionId,
	}); err != nil {
		return apperrors.NewDatabaseError("commit transaction", err)
	}
	return nil
}

// execute runs a statement with typed parameters, returning the raw
// ExecuteStatement output. Errors are classified: unique-constraint
// violations become a conflict AppError (spec §4.7).
func (c *Client) execute(ctx context.Context, sql string, params []types.SqlParameter) (*rdsdata.ExecuteStatementOutput, error) {
	out, err := c.api.ExecuteStatement(ctx, &rdsdata.ExecuteStatementInput{
		ResourceArn:           aws.String(c.resourceARN),
		SecretArn:             aws.String(c.secretARN),
		Database:              aws.String(c.database),
		Sql:                   aws.String(sql),
		Parameters:            params,
		TransactionId:         c.transactionID(ctx),
		IncludeResultMetadata: true,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	return out, nil
}

// classifyError maps a unique-constraint violation (Postgres SQLSTATE
// 23505, surfaced by the Data API as a message substring) to a conflict
// AppError, per spec §4.7 ("unique-constraint violations map to
// conflict"); everything else becomes a database error.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint") {
		return apperrors.Wrap(err, apperrors.ErrorTypeConflict, "unique constraint violation")
	}
	return apperrors.NewDatabaseError("execute statement", err)
}

func newUUID() uuid.UUID {
	return uuid.New()
}

func now() time.Time {
	return time.Now().UTC()
}

func rowCount(out *rdsdata.ExecuteStatementOutput) int64 {
	if out == nil || out.NumberOfRecordsUpdated == 0 {
		return 0
	}
	return out.NumberOfRecordsUpdated
}

func noRowsErr(resource string) error {
	return apperrors.NewNotFoundError(resource)
}

func fieldString(f types.Field) (string, bool) {
	if v, ok := f.(*types.FieldMemberStringValue); ok {
		return v.Value, true
	}
	return "", false
}

func fieldLong(f types.Field) (int64, bool) {
	if v, ok := f.(*types.FieldMemberLongValue); ok {
		return v.Value, true
	}
	return 0, false
}

func fieldDouble(f types.Field) (float64, bool) {
	if v, ok := f.(*types.FieldMemberDoubleValue); ok {
		return v.Value, true
	}
	return 0, false
}

func fieldBool(f types.Field) (bool, bool) {
	if v, ok := f.(*types.FieldMemberBooleanValue); ok {
		return v.Value, true
	}
	return false, false
}

func fieldIsNull(f types.Field) bool {
	v, ok := f.(*types.FieldMemberIsNull)
	return ok && v.Value
}

func parseTimestamp(s string) (time.Time, error) {
	layouts := []string{"2006-01-02 15:04:05.000", "2006-01-02 15:04:05", time.RFC3339}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q: %w", s, lastErr)
}
