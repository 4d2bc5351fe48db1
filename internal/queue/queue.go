// Package queue wraps the SQS queues named in internal/config.QueuesConfig:
// ingestion dispatch, classification dispatch, report dispatch, and
// export dispatch all share this same send/receive/delete shape, so
// every worker's dispatch loop looks the same regardless of which
// queue it drains. Grounded on internal/awsconfig's client-construction
// idiom (a thin struct wrapping an already-configured SDK client).
package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// api is the slice of *sqs.Client this package calls, narrowed to an
// interface so tests can substitute a fake without a live queue.
type api interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Queue wraps one SQS queue URL behind Send/Receive/Delete.
type Queue struct {
	client   api
	queueURL string
}

// New binds a Queue to queueURL using an already-configured sqs.Client.
func New(client *sqs.Client, queueURL string) *Queue {
	return &Queue{client: client, queueURL: queueURL}
}

// Send enqueues body as one message.
func (q *Queue) Send(ctx context.Context, body string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("queue: send to %s: %w", q.queueURL, err)
	}
	return nil
}

// Message is one received SQS message; ReceiptHandle is required to
// Delete or extend its visibility timeout.
type Message struct {
	Body          string
	ReceiptHandle string
}

// ReceiveBatchSize is the largest single long-poll batch SQS allows.
const ReceiveBatchSize = 10

// WaitTimeSeconds is the long-poll duration each Receive call blocks for.
const WaitTimeSeconds = 20

// Receive long-polls for up to ReceiveBatchSize messages.
func (q *Queue) Receive(ctx context.Context, visibilityTimeoutSeconds int32) ([]Message, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: ReceiveBatchSize,
		WaitTimeSeconds:     WaitTimeSeconds,
		VisibilityTimeout:   visibilityTimeoutSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("queue: receive from %s: %w", q.queueURL, err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, Message{
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return messages, nil
}

// Delete removes a message so it is not redelivered after its
// visibility timeout expires.
func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("queue: delete from %s: %w", q.queueURL, err)
	}
	return nil
}
