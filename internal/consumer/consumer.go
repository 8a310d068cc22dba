// Package consumer runs the long-poll receive loop against the source
// queue and applies the message-lifecycle policy: processed messages
// are deleted in a batch, transiently failed ones are left for the
// visibility timeout to redeliver.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/awsclient"
	"github.com/arc-self/wifi-ingest-service/internal/config"
	"github.com/arc-self/wifi-ingest-service/internal/event"
	"github.com/arc-self/wifi-ingest-service/internal/monitor"
	"github.com/arc-self/wifi-ingest-service/internal/pipeline"
)

// receiveErrorDelay throttles the loop after a failed receive so a
// broken queue connection does not spin hot.
const receiveErrorDelay = 2 * time.Second

// deleteTimeout bounds the acknowledgement call that runs detached from
// the loop context at shutdown.
const deleteTimeout = 10 * time.Second

// Consumer drives the source queue. One Consumer serves the whole
// service; messages within a receive batch are processed sequentially
// so that at most one file is mid-flight per consumer.
type Consumer struct {
	sqs        awsclient.SQSAPI
	cfg        *config.Config
	dispatcher *pipeline.Dispatcher
	monitor    *monitor.Monitor
	logger     *zap.Logger
	tracer     trace.Tracer
}

// New wires the consumer.
func New(sqsc awsclient.SQSAPI, cfg *config.Config, d *pipeline.Dispatcher, m *monitor.Monitor, logger *zap.Logger) *Consumer {
	return &Consumer{
		sqs:        sqsc,
		cfg:        cfg,
		dispatcher: d,
		monitor:    m,
		logger:     logger,
		tracer:     otel.Tracer("consumer"),
	}
}

// Run polls until ctx is cancelled. It always returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started",
		zap.String("queue_url", c.cfg.QueueURL),
		zap.Int32("max_messages", c.cfg.MaxMessages),
		zap.Int32("wait_seconds", c.cfg.WaitSeconds),
	)

	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("consumer stopped")
			return err
		}

		out, err := c.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.cfg.QueueURL),
			MaxNumberOfMessages: c.cfg.MaxMessages,
			WaitTimeSeconds:     c.cfg.WaitSeconds,
			VisibilityTimeout:   c.cfg.VisibilitySeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("receive failed", zap.Error(err))
			select {
			case <-time.After(receiveErrorDelay):
			case <-ctx.Done():
			}
			continue
		}
		c.monitor.RecordReceiveTick()

		if len(out.Messages) == 0 {
			continue
		}
		c.handleBatch(ctx, out.Messages)
	}
}

// handleBatch processes one receive batch and deletes the messages that
// must not be redelivered.
func (c *Consumer) handleBatch(ctx context.Context, messages []sqstypes.Message) {
	deletable := make([]sqstypes.Message, 0, len(messages))
	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}
		if c.handleMessage(ctx, msg) {
			deletable = append(deletable, msg)
		} else {
			c.monitor.IncMessagesDeferred()
		}
	}

	// The delete must land even when ctx was cancelled mid-batch;
	// processed messages left on the queue replay their whole files.
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	c.deleteBatch(deleteCtx, deletable)
}

// handleMessage runs one message through extract and dispatch. The
// return value decides deletion: true for success and for terminal
// failures (malformed payload, missing object, access denied), false
// only for transient failures worth a redelivery.
func (c *Consumer) handleMessage(ctx context.Context, msg sqstypes.Message) bool {
	msgCtx, span := c.tracer.Start(ctx, "consumer.handleMessage")
	defer span.End()

	c.monitor.IncMessagesProcessed()

	ev, err := event.Extract([]byte(aws.ToString(msg.Body)))
	if err != nil {
		c.monitor.IncError(monitor.KindMalformedEvent)
		c.logger.Warn("deleting malformed message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err),
		)
		return true
	}
	ev.MessageID = aws.ToString(msg.MessageId)
	ev.ReceiptToken = aws.ToString(msg.ReceiptHandle)

	proc := c.dispatcher.Lookup(ev.FeedTag)
	if proc == nil {
		c.monitor.IncError(monitor.KindMalformedEvent)
		c.logger.Warn("no processor for feed, deleting message",
			zap.String("feed_tag", ev.FeedTag),
			zap.String("key", ev.ObjectKey),
		)
		return true
	}

	err = proc.Process(msgCtx, ev)
	switch {
	case err == nil:
		return true
	case errors.Is(err, pipeline.ErrObjectNotFound),
		errors.Is(err, pipeline.ErrAccessDenied):
		// Redelivery cannot help; the error is already counted.
		return true
	default:
		c.logger.Warn("leaving message for redelivery",
			zap.String("message_id", ev.MessageID),
			zap.String("key", ev.ObjectKey),
			zap.Error(err),
		)
		return false
	}
}

// deleteBatch acknowledges processed messages. Per-entry delete
// failures are logged only; the worst case is one redundant redelivery
// of an already-processed file.
func (c *Consumer) deleteBatch(ctx context.Context, messages []sqstypes.Message) {
	if len(messages) == 0 {
		return
	}

	entries := make([]sqstypes.DeleteMessageBatchRequestEntry, len(messages))
	for i, msg := range messages {
		entries[i] = sqstypes.DeleteMessageBatchRequestEntry{
			Id:            aws.String(aws.ToString(msg.MessageId)),
			ReceiptHandle: msg.ReceiptHandle,
		}
	}

	out, err := c.sqs.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(c.cfg.QueueURL),
		Entries:  entries,
	})
	if err != nil {
		c.logger.Error("delete batch failed", zap.Int("messages", len(entries)), zap.Error(err))
		return
	}

	for _, f := range out.Failed {
		c.logger.Warn("message delete failed",
			zap.String("message_id", aws.ToString(f.Id)),
			zap.String("code", aws.ToString(f.Code)),
		)
	}
	c.monitor.AddMessagesDeleted(len(entries) - len(out.Failed))
}
