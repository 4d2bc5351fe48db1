// Package platform builds the shared infrastructure every cmd/* binary
// wires up at startup: the AWS SDK clients behind internal/queue,
// internal/objectstore and internal/store/rdsdata, and a zap logger.
// Each binary starts its own pkg/metrics server.
// Grounded on internal/awsconfig's client-construction idiom — each
// client here is a thin *xyz.NewFromConfig(awsCfg) call, nothing more.
package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	rdsdatasvc "github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/awsconfig"
	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/objectstore"
	"github.com/claro-ops/media-intel/internal/queue"
	"github.com/claro-ops/media-intel/internal/store"
	storerdsdata "github.com/claro-ops/media-intel/internal/store/rdsdata"
	"github.com/claro-ops/media-intel/internal/telemetry"
)

// AWS bundles every AWS SDK client a cmd/* binary might need. Not every
// binary uses every field — an unused client is simply left nil.
type AWS struct {
	Config         aws.Config
	SQS            *sqs.Client
	S3             *s3.Client
	RDSData        *rdsdatasvc.Client
	SES            *sesv2.Client
	Bedrock        *bedrockruntime.Client
	SecretsManager *secretsmanager.Client
	Secrets        *awsconfig.SecretCache
}

// NewAWS loads the shared aws-sdk-go-v2 config for cfg.Region and
// constructs every service client from it.
func NewAWS(ctx context.Context, cfg config.AWSConfig) (*AWS, error) {
	awsCfg, err := awsconfig.Load(ctx, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("platform: load aws config: %w", err)
	}

	secretsClient := secretsmanager.NewFromConfig(awsCfg)

	return &AWS{
		Config:         awsCfg,
		SQS:            sqs.NewFromConfig(awsCfg),
		S3:             s3.NewFromConfig(awsCfg),
		RDSData:        rdsdatasvc.NewFromConfig(awsCfg),
		SES:            sesv2.NewFromConfig(awsCfg),
		Bedrock:        bedrockruntime.NewFromConfig(awsCfg),
		SecretsManager: secretsClient,
		Secrets:        awsconfig.NewSecretCache(secretsClient),
	}, nil
}

// Store builds the RDS Data API-backed store.Store from cfg and the
// already-constructed RDS Data API client.
func Store(a *AWS, cfg config.DatabaseConfig) store.Store {
	return storerdsdata.New(a.RDSData, cfg.ResourceARN, cfg.SecretARN, cfg.Name)
}

// Queue binds a Queue to one of cfg.Queues' URLs.
func Queue(a *AWS, queueURL string) *queue.Queue {
	return queue.New(a.SQS, queueURL)
}

// ObjectStore builds the S3-backed object store.
func ObjectStore(a *AWS) *objectstore.Store {
	return objectstore.New(a.S3)
}

// NewLogger builds the zap production logger every worker logs
// through, matching this module's ambient zap.Logger convention.
func NewLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("platform: build logger: %w", err)
	}
	return logger, nil
}

// NewInstrumentation builds the OpenTelemetry instrumentation bundle a
// binary passes to RunQueueLoop/RunTicker. Reads from whatever global
// tracer/meter providers the deployment wired (or the otel no-op
// providers if none were), so this is safe to call unconditionally.
func NewInstrumentation(serviceName string) (*telemetry.Instrumentation, error) {
	return telemetry.NewInstrumentation(serviceName)
}

// RunQueueLoop long-polls q until ctx is canceled, invoking handle for
// each received message and deleting it only once handle reports
// success — a handle error leaves the message for SQS to redeliver
// after visibilityTimeoutSeconds, the same at-least-once contract every
// worker in this module relies on. Each handle invocation runs inside
// its own span, and its outcome/duration feed inst's processed/failed
// counters, when inst is non-nil.
func RunQueueLoop(ctx context.Context, q *queue.Queue, visibilityTimeoutSeconds int32, logger *zap.Logger, inst *telemetry.Instrumentation, handle func(ctx context.Context, body string) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := q.Receive(ctx, visibilityTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("queue receive failed", zap.Error(err))
			continue
		}

		for _, msg := range messages {
			if err := traced(ctx, inst, "message.handle", func(spanCtx context.Context) error {
				return handle(spanCtx, msg.Body)
			}); err != nil {
				logger.Error("message handler failed", zap.Error(err))
				continue
			}
			if err := q.Delete(ctx, msg.ReceiptHandle); err != nil {
				logger.Error("message delete failed", zap.Error(err))
			}
		}
	}
}

// RunTicker invokes run immediately, then again every interval, until
// ctx is canceled. Used by the scheduler-style binaries (classification
// scheduler, incident evaluator, report schedule sweep) that have no
// queue of their own to long-poll — an EventBridge rule or an ECS
// scheduled task could trigger a single pass instead, but a ticker
// keeps every worker binary in this module shaped the same way: one
// long-running process with a graceful-shutdown context, not a
// one-shot command. Each run is traced the same way RunQueueLoop traces
// a handled message, when inst is non-nil.
func RunTicker(ctx context.Context, interval time.Duration, logger *zap.Logger, inst *telemetry.Instrumentation, run func(ctx context.Context) error) {
	if err := traced(ctx, inst, "scheduled.run", run); err != nil && ctx.Err() == nil {
		logger.Error("scheduled run failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := traced(ctx, inst, "scheduled.run", run); err != nil && ctx.Err() == nil {
				logger.Error("scheduled run failed", zap.Error(err))
			}
		}
	}
}

// traced wraps fn in a span and records its outcome/duration on inst,
// when inst is non-nil — every loop driver's unit of work goes through
// this so span creation and metric recording never drift out of sync.
func traced(ctx context.Context, inst *telemetry.Instrumentation, operation string, fn func(ctx context.Context) error) error {
	if inst == nil {
		return fn(ctx)
	}
	spanCtx, span := inst.StartSpan(ctx, operation)
	defer span.End()
	start := time.Now()
	err := fn(spanCtx)
	inst.RecordOutcome(spanCtx, span, time.Since(start).Seconds(), err)
	return err
}
