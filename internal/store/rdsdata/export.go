package rdsdata

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

func (c *Client) CreateExportJob(ctx context.Context, job *store.ExportJob) error {
	if job.ID == uuid.Nil {
		job.ID = newUUID()
	}
	job.CreatedAt = now()
	if job.Status == "" {
		job.Status = store.RunStatusQueued
	}
	filtersParam := rawJSONParam("filters", job.Filters)
	_, err := c.execute(ctx, `INSERT INTO export_jobs
		(id, filters, status, row_count, s3_key, requested_by_user_id, created_at)
		VALUES (:id, :filters, :status, :row_count, :s3_key, :requested_by_user_id, :created_at)`,
		[]types.SqlParameter{
			uuidParam("id", job.ID), filtersParam, stringParam("status", string(job.Status)),
			longParam("row_count", int64(job.RowCount)), stringParam("s3_key", job.S3Key),
			stringParam("requested_by_user_id", job.RequestedByUserID), timestampParam("created_at", job.CreatedAt),
		})
	return err
}

func (c *Client) FinishExportJob(ctx context.Context, job *store.ExportJob) error {
	finishedAt := now()
	job.FinishedAt = &finishedAt
	_, err := c.execute(ctx, `UPDATE export_jobs SET status = :status, row_count = :row_count,
		s3_key = :s3_key, finished_at = :finished_at WHERE id = :id`,
		[]types.SqlParameter{
			uuidParam("id", job.ID), stringParam("status", string(job.Status)),
			longParam("row_count", int64(job.RowCount)), stringParam("s3_key", job.S3Key),
			timestampParam("finished_at", finishedAt),
		})
	return err
}
