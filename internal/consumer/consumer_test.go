package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/wifi-ingest-service/internal/awsclient/mock"
	"github.com/arc-self/wifi-ingest-service/internal/config"
	"github.com/arc-self/wifi-ingest-service/internal/event"
	"github.com/arc-self/wifi-ingest-service/internal/monitor"
	"github.com/arc-self/wifi-ingest-service/internal/pipeline"
)

func consumerConfig() *config.Config {
	return &config.Config{
		QueueURL:          "https://sqs.us-east-1.amazonaws.com/123/scan-events",
		MaxMessages:       10,
		WaitSeconds:       20,
		VisibilitySeconds: 300,
	}
}

// recordingProcessor remembers the events it saw and returns canned
// errors keyed by object key. hook, when set, runs on every Process
// call.
type recordingProcessor struct {
	mu     sync.Mutex
	seen   []event.SourceEvent
	errFor map[string]error
	hook   func()
}

func (r *recordingProcessor) Process(_ context.Context, ev event.SourceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hook != nil {
		r.hook()
	}
	r.seen = append(r.seen, ev)
	if r.errFor != nil {
		return r.errFor[ev.ObjectKey]
	}
	return nil
}

func (r *recordingProcessor) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.seen))
	for i, ev := range r.seen {
		out[i] = ev.ObjectKey
	}
	return out
}

func notification(bucket, key string) string {
	return fmt.Sprintf(`{"Records":[{"s3":{"bucket":{"name":%q},"object":{"key":%q}}}]}`, bucket, key)
}

func message(id, body string) sqstypes.Message {
	return sqstypes.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("rh-" + id),
		Body:          aws.String(body),
	}
}

// runUntilDone runs the consumer with the given context and waits for
// it to exit.
func runUntilDone(t *testing.T, c *Consumer, ctx context.Context) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestRunProcessesAndDeletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	sqsc := mock.NewMockSQSAPI(ctrl)
	m := monitor.New(zaptest.NewLogger(t))
	proc := &recordingProcessor{}
	d := pipeline.NewDispatcher(proc, nil)

	ctx, cancel := context.WithCancel(context.Background())

	gomock.InOrder(
		sqsc.EXPECT().ReceiveMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
				assert.Equal(t, int32(10), in.MaxNumberOfMessages)
				assert.Equal(t, int32(20), in.WaitTimeSeconds)
				assert.Equal(t, int32(300), in.VisibilityTimeout)
				return &sqs.ReceiveMessageOutput{Messages: []sqstypes.Message{
					message("m1", notification("b", "frisco/wifi/a.txt")),
					message("m2", notification("b", "frisco/wifi/b.txt")),
				}}, nil
			}),
		sqsc.EXPECT().DeleteMessageBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *sqs.DeleteMessageBatchInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error) {
				require.Len(t, in.Entries, 2)
				assert.Equal(t, "m1", aws.ToString(in.Entries[0].Id))
				assert.Equal(t, "rh-m1", aws.ToString(in.Entries[0].ReceiptHandle))
				cancel()
				return &sqs.DeleteMessageBatchOutput{}, nil
			}),
	)
	sqsc.EXPECT().ReceiveMessage(gomock.Any(), gomock.Any()).
		Return(&sqs.ReceiveMessageOutput{}, nil).AnyTimes()

	c := New(sqsc, consumerConfig(), d, m, zaptest.NewLogger(t))
	runUntilDone(t, c, ctx)

	assert.Equal(t, []string{"frisco/wifi/a.txt", "frisco/wifi/b.txt"}, proc.keys())
	snap := m.Snap()
	assert.Equal(t, int64(2), snap.MessagesProcessed)
	assert.Equal(t, int64(2), snap.MessagesDeleted)
	assert.Equal(t, int64(0), snap.MessagesDeferred)
}

func TestRunDeletesMalformedAndTerminalFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	sqsc := mock.NewMockSQSAPI(ctrl)
	m := monitor.New(zaptest.NewLogger(t))
	proc := &recordingProcessor{errFor: map[string]error{
		"feed/gone.txt":   fmt.Errorf("wrap: %w", pipeline.ErrObjectNotFound),
		"feed/denied.txt": fmt.Errorf("wrap: %w", pipeline.ErrAccessDenied),
	}}
	d := pipeline.NewDispatcher(proc, nil)

	ctx, cancel := context.WithCancel(context.Background())

	gomock.InOrder(
		sqsc.EXPECT().ReceiveMessage(gomock.Any(), gomock.Any()).
			Return(&sqs.ReceiveMessageOutput{Messages: []sqstypes.Message{
				message("m1", `{"not":"a notification"}`),
				message("m2", notification("b", "feed/gone.txt")),
				message("m3", notification("b", "feed/denied.txt")),
			}}, nil),
		sqsc.EXPECT().DeleteMessageBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *sqs.DeleteMessageBatchInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error) {
				// All three are terminal; all three get deleted.
				require.Len(t, in.Entries, 3)
				cancel()
				return &sqs.DeleteMessageBatchOutput{}, nil
			}),
	)
	sqsc.EXPECT().ReceiveMessage(gomock.Any(), gomock.Any()).
		Return(&sqs.ReceiveMessageOutput{}, nil).AnyTimes()

	c := New(sqsc, consumerConfig(), d, m, zaptest.NewLogger(t))
	runUntilDone(t, c, ctx)

	assert.Equal(t, int64(1), m.ErrorCount(monitor.KindMalformedEvent))
	assert.Equal(t, []string{"feed/gone.txt", "feed/denied.txt"}, proc.keys())
}

func TestRunLeavesTransientFailuresOnQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	sqsc := mock.NewMockSQSAPI(ctrl)
	m := monitor.New(zaptest.NewLogger(t))
	proc := &recordingProcessor{errFor: map[string]error{
		"feed/flaky.txt": fmt.Errorf("wrap: %w", pipeline.ErrTransientRead),
	}}
	d := pipeline.NewDispatcher(proc, nil)

	ctx, cancel := context.WithCancel(context.Background())

	gomock.InOrder(
		sqsc.EXPECT().ReceiveMessage(gomock.Any(), gomock.Any()).
			Return(&sqs.ReceiveMessageOutput{Messages: []sqstypes.Message{
				message("m1", notification("b", "feed/ok.txt")),
				message("m2", notification("b", "feed/flaky.txt")),
			}}, nil),
		sqsc.EXPECT().DeleteMessageBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *sqs.DeleteMessageBatchInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error) {
				// Only the processed message is acknowledged.
				require.Len(t, in.Entries, 1)
				assert.Equal(t, "m1", aws.ToString(in.Entries[0].Id))
				cancel()
				return &sqs.DeleteMessageBatchOutput{}, nil
			}),
	)
	sqsc.EXPECT().ReceiveMessage(gomock.Any(), gomock.Any()).
		Return(&sqs.ReceiveMessageOutput{}, nil).AnyTimes()

	c := New(sqsc, consumerConfig(), d, m, zaptest.NewLogger(t))
	runUntilDone(t, c, ctx)

	snap := m.Snap()
	assert.Equal(t, int64(1), snap.MessagesDeferred)
	assert.Equal(t, int64(1), snap.MessagesDeleted)
}

func TestRunSurvivesReceiveErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	sqsc := mock.NewMockSQSAPI(ctrl)
	m := monitor.New(zaptest.NewLogger(t))
	d := pipeline.NewDispatcher(&recordingProcessor{}, nil)

	ctx, cancel := context.WithCancel(context.Background())

	sqsc.EXPECT().ReceiveMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
			cancel()
			return nil, errors.New("throttled")
		})

	c := New(sqsc, consumerConfig(), d, m, zaptest.NewLogger(t))
	runUntilDone(t, c, ctx)
}

func TestHandleBatchDeletesAfterCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	sqsc := mock.NewMockSQSAPI(ctrl)
	m := monitor.New(zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	proc := &recordingProcessor{hook: cancel}
	d := pipeline.NewDispatcher(proc, nil)
	c := New(sqsc, consumerConfig(), d, m, zaptest.NewLogger(t))

	// Shutdown hits between the first and second message. The first was
	// fully processed and flushed, so its delete must still go out on a
	// live context.
	sqsc.EXPECT().DeleteMessageBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(deleteCtx context.Context, in *sqs.DeleteMessageBatchInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error) {
			assert.NoError(t, deleteCtx.Err())
			require.Len(t, in.Entries, 1)
			assert.Equal(t, "m1", aws.ToString(in.Entries[0].Id))
			return &sqs.DeleteMessageBatchOutput{}, nil
		})

	c.handleBatch(ctx, []sqstypes.Message{
		message("m1", notification("b", "feed/a.txt")),
		message("m2", notification("b", "feed/b.txt")),
	})

	assert.Equal(t, []string{"feed/a.txt"}, proc.keys())
	assert.Equal(t, int64(1), m.Snap().MessagesDeleted)
}

func TestDeleteBatchPartialFailureLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	sqsc := mock.NewMockSQSAPI(ctrl)
	m := monitor.New(zaptest.NewLogger(t))
	d := pipeline.NewDispatcher(&recordingProcessor{}, nil)
	c := New(sqsc, consumerConfig(), d, m, zaptest.NewLogger(t))

	sqsc.EXPECT().DeleteMessageBatch(gomock.Any(), gomock.Any()).
		Return(&sqs.DeleteMessageBatchOutput{
			Failed: []sqstypes.BatchResultErrorEntry{
				{Id: aws.String("m2"), Code: aws.String("ReceiptHandleIsInvalid")},
			},
		}, nil)

	c.deleteBatch(context.Background(), []sqstypes.Message{
		message("m1", ""), message("m2", ""),
	})
	assert.Equal(t, int64(1), m.Snap().MessagesDeleted)
}
