package queue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"quickapply-backend/internal/shared/metrics"
	"quickapply-backend/internal/shared/telemetry"
)

// ReceiveAPI is the subset of the SQS client used by SQSConsumer.
type ReceiveAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSConsumer long-polls a queue and hands messages to a Processor.
// Failed messages are left for redelivery; unparseable ones are deleted.
type SQSConsumer struct {
	Client            ReceiveAPI
	QueueURL          string
	Processor         Processor
	Concurrency       int
	VisibilitySeconds int32
	ShutdownTimeout   time.Duration
}

// Run polls until ctx is cancelled, then waits up to ShutdownTimeout for in-flight jobs.
func (w *SQSConsumer) Run(ctx context.Context) {
	sem := make(chan struct{}, max(1, w.Concurrency))
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue":       w.QueueURL,
		"concurrency": cap(sem),
		"visibility":  w.VisibilitySeconds,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := w.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(w.QueueURL),
			MaxNumberOfMessages:         10,
			WaitTimeSeconds:             20,
			VisibilityTimeout:           w.VisibilitySeconds,
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				w.HandleMessage(context.WithoutCancel(ctx), m)
			}(msg)
		}
	}

	timeout := w.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	telemetry.Info("worker.draining", map[string]any{"timeout": timeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(timeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

// HandleMessage processes one SQS message and deletes it unless processing failed.
func (w *SQSConsumer) HandleMessage(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, decoded.ApplicationID, decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err
		telemetry.Error("worker.summary.unprocessable", fields)
		if w.deleteMessage(ctx, msg, decoded.ApplicationID, decoded.RequestID) {
			metrics.IncSummaryJob("dropped")
		}
		return
	}

	telemetry.Info("worker.summary.received", baseFields(msg, decoded.ApplicationID, decoded.RequestID))

	if err := w.Processor.ProcessSummary(ctx, decoded.ApplicationID); err != nil {
		fields := baseFields(msg, decoded.ApplicationID, decoded.RequestID)
		fields["error"] = err
		telemetry.Error("worker.summary.failed", fields)
		metrics.IncSummaryJob("failed")
		return
	}

	if w.deleteMessage(ctx, msg, decoded.ApplicationID, decoded.RequestID) {
		telemetry.Info("worker.summary.completed", baseFields(msg, decoded.ApplicationID, decoded.RequestID))
		metrics.IncSummaryJob("completed")
	}
}

func (w *SQSConsumer) deleteMessage(ctx context.Context, msg sqstypes.Message, applicationID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, applicationID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.summary.delete_failed", fields)
		return false
	}
	if _, err := w.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.QueueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, applicationID, requestID)
		fields["error"] = err
		telemetry.Error("worker.summary.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, applicationID, requestID string) map[string]any {
	fields := map[string]any{
		"application_id": applicationID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
