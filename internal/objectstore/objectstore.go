// Package objectstore wraps the S3 buckets this core reads and writes:
// raw ingestion snapshots, social-channel CSV drops, and export
// artifacts. Grounded on the S3 client construction idiom of the
// retrieval pack's pithecene-io-quarry/quarry/lode/client_s3.go (the
// only S3 usage anywhere in the pack besides this module's own
// internal/awsconfig).
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store wraps an s3.Client bound to the bucket conventions this core
// uses: raw news snapshots, social CSV objects, and CSV export files.
type Store struct {
	client *s3.Client
}

// New builds a Store from an already-configured s3.Client (see
// internal/awsconfig for how that client's aws.Config is loaded).
func New(client *s3.Client) *Store {
	return &Store{client: client}
}

// Put writes body to bucket/key.
func (s *Store) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("objectstore: put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Get reads the full contents of bucket/key.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ObjectInfo is one entry returned by List.
type ObjectInfo struct {
	Key          string
	ETag         string
	LastModified string
}

// List enumerates every object under bucket/prefix, following
// continuation tokens until the listing is exhausted.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	var continuationToken *string

	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("objectstore: list %s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			info := ObjectInfo{Key: aws.ToString(obj.Key)}
			if obj.ETag != nil {
				info.ETag = aws.ToString(obj.ETag)
			}
			if obj.LastModified != nil {
				info.LastModified = obj.LastModified.UTC().Format("2006-01-02T15:04:05Z")
			}
			out = append(out, info)
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuationToken = page.NextContinuationToken
	}
	return out, nil
}
