package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/awsclient"
	"github.com/arc-self/wifi-ingest-service/internal/config"
	"github.com/arc-self/wifi-ingest-service/internal/monitor"
)

// ErrBatcherClosed is returned by Submit and Flush after Close.
var ErrBatcherClosed = errors.New("delivery batcher closed")

// partialRetryFloor is the minimum delay before retrying the failed
// subset of a partially successful batch. Per-record failures are
// usually short throttling blips, so the floor replaces a full backoff
// step.
const partialRetryFloor = 500 * time.Millisecond

// Batcher is the single shared delivery component. Processors submit
// serialized records; the batcher owns them exclusively from acceptance
// until they are delivered, dropped, or abandoned at shutdown.
//
// Exactly one batch is open at a time. Closing a batch is atomic under
// the mutex; dispatch work never runs while holding it.
type Batcher struct {
	fh         awsclient.FirehoseAPI
	cfg        *config.Config
	deadLetter DeadLetterSink
	monitor    *monitor.Monitor
	logger     *zap.Logger

	// ctx bounds all dispatch work; cancelled at the shutdown deadline
	// to abandon whatever is still in flight.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	open      [][]byte
	openBytes int
	closed    bool

	// sem bounds concurrent dispatches; acquiring it in Submit is what
	// back-pressures the transformation when workers are saturated.
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewBatcher constructs the batcher. deadLetter may be nil, in which
// case dropped records are only logged and counted.
func NewBatcher(fh awsclient.FirehoseAPI, cfg *config.Config, deadLetter DeadLetterSink, m *monitor.Monitor, logger *zap.Logger) *Batcher {
	ctx, cancel := context.WithCancel(context.Background())
	concurrency := cfg.DispatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Batcher{
		fh:         fh,
		cfg:        cfg,
		deadLetter: deadLetter,
		monitor:    m,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		sem:        make(chan struct{}, concurrency),
	}
}

// Submit appends one serialized record to the open batch. When the
// record would cross either the count or byte bound, the open batch is
// dispatched first and the record starts a new one. Submit blocks while
// all dispatch workers are busy.
func (b *Batcher) Submit(ctx context.Context, rec []byte) error {
	if len(rec) > b.cfg.MaxRecordBytes {
		return fmt.Errorf("submit: record of %d bytes exceeds max %d", len(rec), b.cfg.MaxRecordBytes)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBatcherClosed
	}
	var full [][]byte
	if len(b.open) > 0 &&
		(len(b.open)+1 > b.cfg.MaxBatchRecords || b.openBytes+len(rec) > b.cfg.MaxBatchBytes) {
		full = b.open
		b.open = nil
		b.openBytes = 0
	}
	b.open = append(b.open, rec)
	b.openBytes += len(rec)
	b.monitor.AddPending(1)
	b.mu.Unlock()

	if full != nil {
		return b.launch(ctx, full)
	}
	return nil
}

// Flush dispatches the open batch, if any. Each processor calls Flush
// at end-of-file before its source message is acknowledged; main calls
// it via Close at shutdown.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.open
	b.open = nil
	b.openBytes = 0
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return b.launch(ctx, batch)
}

// Close refuses new submissions, flushes the open batch, and waits for
// in-flight dispatches and scheduled retries up to the shutdown
// deadline. Past the deadline remaining work is abandoned with a logged
// count of undelivered records.
func (b *Batcher) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	batch := b.open
	b.open = nil
	b.openBytes = 0
	b.mu.Unlock()

	if len(batch) > 0 {
		if err := b.launch(ctx, batch); err != nil {
			b.logger.Error("final flush failed", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	deadline := time.NewTimer(b.cfg.ShutdownTimeout)
	defer deadline.Stop()

	select {
	case <-done:
		b.cancel()
		return nil
	case <-deadline.C:
	case <-ctx.Done():
	}

	b.cancel()
	<-done

	if abandoned := b.monitor.Pending(); abandoned > 0 {
		b.logger.Error("abandoned undelivered records at shutdown",
			zap.Int64("records", abandoned))
		return fmt.Errorf("delivery batcher closed with %d undelivered records", abandoned)
	}
	return nil
}

// launch hands a closed batch to a dispatch worker. It blocks until a
// worker slot frees up, which is the back-pressure point for
// submitters.
func (b *Batcher) launch(ctx context.Context, batch [][]byte) error {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		b.abandon(batch, "", "submitter cancelled before dispatch")
		return ctx.Err()
	case <-b.ctx.Done():
		b.abandon(batch, "", "batcher stopped before dispatch")
		return ErrBatcherClosed
	}

	b.wg.Add(1)
	go func() {
		holding := true
		defer b.wg.Done()
		defer func() {
			if holding {
				<-b.sem
			}
		}()
		b.deliver(batch, &holding)
	}()
	return nil
}

// deliver runs the dispatch/retry loop for one batch. The loop
// terminates when every record has been delivered, dropped, or
// abandoned. holding tracks worker-slot ownership across backoff
// pauses.
func (b *Batcher) deliver(batch [][]byte, holding *bool) {
	batchID := uuid.NewString()
	bo := b.newBackOff()
	retries := 0

	for {
		b.monitor.IncBatchesDispatched()
		out, err := b.fh.PutRecordBatch(b.ctx, b.input(batch))

		if b.ctx.Err() != nil {
			b.abandon(batch, batchID, "shutdown during dispatch")
			return
		}

		if err != nil {
			switch Classify(err) {
			case ClassRetriable:
				b.monitor.IncError(monitor.KindDeliveryRetry)
				if retries < b.cfg.MaxRetries {
					retries++
					b.monitor.IncRetriesScheduled()
					if !b.pause(bo.NextBackOff(), holding) {
						b.abandon(batch, batchID, "shutdown during backoff")
						return
					}
					continue
				}
				b.drop(batch, batchID, "retry budget exhausted", err)
			case ClassPermanent:
				b.monitor.IncError(monitor.KindDeliveryPerm)
				b.drop(batch, batchID, "permanent delivery failure", err)
			default:
				b.monitor.IncError(monitor.KindDeliveryUnknown)
				b.drop(batch, batchID, "unclassified delivery failure", err)
			}
			return
		}

		if aws.ToInt32(out.FailedPutCount) == 0 {
			b.monitor.AddRecordsDelivered(len(batch))
			b.monitor.AddPending(-len(batch))
			b.logger.Debug("batch delivered",
				zap.String("batch_id", batchID),
				zap.Int("records", len(batch)),
			)
			return
		}

		// Failures reported but the per-record responses cannot be
		// correlated back to the batch. Record fates are unknowable, so
		// they cannot be counted delivered or retried.
		if len(out.RequestResponses) != len(batch) {
			b.monitor.IncError(monitor.KindDeliveryUnknown)
			b.drop(batch, batchID,
				fmt.Sprintf("uncorrelatable partial failure: %d responses for %d records",
					len(out.RequestResponses), len(batch)), nil)
			return
		}

		// Partial failure: correlate failed indices back to the
		// original records; only those are retried.
		var retryRecs, dropRecs [][]byte
		for i, rr := range out.RequestResponses {
			if rr.ErrorCode == nil {
				continue
			}
			code := aws.ToString(rr.ErrorCode)
			if IsThrottle(code) {
				b.monitor.IncError(monitor.KindThrottled)
			}
			switch ClassifyCode(code) {
			case ClassRetriable:
				b.monitor.IncError(monitor.KindDeliveryRetry)
				retryRecs = append(retryRecs, batch[i])
			case ClassPermanent:
				b.monitor.IncError(monitor.KindDeliveryPerm)
				dropRecs = append(dropRecs, batch[i])
			default:
				b.monitor.IncError(monitor.KindDeliveryUnknown)
				dropRecs = append(dropRecs, batch[i])
			}
		}

		delivered := len(batch) - len(retryRecs) - len(dropRecs)
		if delivered > 0 {
			b.monitor.AddRecordsDelivered(delivered)
			b.monitor.AddPending(-delivered)
		}
		if len(dropRecs) > 0 {
			b.drop(dropRecs, batchID, "per-record permanent errors", nil)
		}
		if len(retryRecs) == 0 {
			return
		}
		if retries >= b.cfg.MaxRetries {
			b.drop(retryRecs, batchID, "retry budget exhausted", nil)
			return
		}

		retries++
		b.monitor.IncRetriesScheduled()
		b.logger.Warn("partial batch failure, scheduling retry",
			zap.String("batch_id", batchID),
			zap.Int("failed", len(retryRecs)),
			zap.Int("delivered", delivered),
			zap.Int("attempt", retries),
		)

		delay := bo.NextBackOff()
		if delay < partialRetryFloor {
			delay = partialRetryFloor
		}
		if !b.pause(delay, holding) {
			b.abandon(retryRecs, batchID, "shutdown during backoff")
			return
		}
		batch = retryRecs
	}
}

// pause releases the worker slot for the duration of a backoff so
// retries never starve fresh dispatches, then re-acquires it. It
// returns false when the batcher is shutting down.
func (b *Batcher) pause(d time.Duration, holding *bool) bool {
	<-b.sem
	*holding = false

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-b.ctx.Done():
		return false
	}

	select {
	case b.sem <- struct{}{}:
		*holding = true
		return true
	case <-b.ctx.Done():
		return false
	}
}

// drop resolves records that will never be delivered: one error log,
// counters, and the optional dead-letter write.
func (b *Batcher) drop(records [][]byte, batchID, reason string, err error) {
	b.monitor.AddRecordsDropped(len(records))
	b.monitor.AddPending(-len(records))
	b.logger.Error("dropping undeliverable records",
		zap.String("batch_id", batchID),
		zap.String("reason", reason),
		zap.Int("records", len(records)),
		zap.Error(err),
	)

	if b.deadLetter == nil {
		return
	}
	if dlErr := b.deadLetter.Put(b.ctx, batchID, records); dlErr != nil {
		b.logger.Error("dead-letter write failed",
			zap.String("batch_id", batchID),
			zap.Error(dlErr),
		)
	}
}

// abandon resolves records lost to shutdown; unlike drop it never
// touches the dead-letter sink because the process is going away.
func (b *Batcher) abandon(records [][]byte, batchID, reason string) {
	b.monitor.AddRecordsDropped(len(records))
	b.monitor.AddPending(-len(records))
	b.logger.Warn("abandoning records",
		zap.String("batch_id", batchID),
		zap.String("reason", reason),
		zap.Int("records", len(records)),
	)
}

func (b *Batcher) input(batch [][]byte) *firehose.PutRecordBatchInput {
	records := make([]types.Record, len(batch))
	for i, rec := range batch {
		records[i] = types.Record{Data: rec}
	}
	return &firehose.PutRecordBatchInput{
		DeliveryStreamName: aws.String(b.cfg.StreamName),
		Records:            records,
	}
}

// newBackOff builds the retry schedule: delay(n) = min(base·2ⁿ, max)
// randomized by ±25 %.
func (b *Batcher) newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.cfg.BaseBackoff
	bo.RandomizationFactor = 0.25
	bo.Multiplier = 2
	bo.MaxInterval = b.cfg.MaxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}
