package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/awsclient"
	"github.com/arc-self/wifi-ingest-service/internal/event"
	"github.com/arc-self/wifi-ingest-service/internal/measurement"
	"github.com/arc-self/wifi-ingest-service/internal/monitor"
	"github.com/arc-self/wifi-ingest-service/internal/scan"
)

// Read-failure sentinels. ObjectNotFound and AccessDenied are terminal
// for the message; TransientRead leaves the message on the queue for
// redelivery.
var (
	ErrObjectNotFound = errors.New("source object not found")
	ErrAccessDenied   = errors.New("source object access denied")
	ErrTransientRead  = errors.New("transient object read failure")
)

// maxLineBytes bounds a single base64 line of the source object. Lines
// are gzipped documents, so even dense scan batches stay well under
// this.
const maxLineBytes = 10 * 1024 * 1024

// RecordSubmitter is the slice of the delivery batcher the processor
// needs.
type RecordSubmitter interface {
	Submit(ctx context.Context, rec []byte) error
	Flush(ctx context.Context) error
}

// FileProcessor streams one S3 object line by line through decode,
// parse, flatten and serialize, submitting the results to the delivery
// batcher. One FileProcessor instance serves all messages of a feed.
type FileProcessor struct {
	s3          awsclient.S3API
	transformer *Transformer
	serializer  *measurement.Serializer
	batcher     RecordSubmitter
	monitor     *monitor.Monitor
	logger      *zap.Logger
}

// NewFileProcessor wires the streaming processor.
func NewFileProcessor(
	s3c awsclient.S3API,
	tr *Transformer,
	ser *measurement.Serializer,
	batcher RecordSubmitter,
	m *monitor.Monitor,
	logger *zap.Logger,
) *FileProcessor {
	return &FileProcessor{
		s3:          s3c,
		transformer: tr,
		serializer:  ser,
		batcher:     batcher,
		monitor:     m,
		logger:      logger,
	}
}

// Process handles one source event end to end. Line-level failures
// (decode, parse, validation, oversize) are counted and skipped; only
// read and submission failures abort the file. On success the open
// batch has been flushed, so acknowledging the message cannot orphan
// records.
func (p *FileProcessor) Process(ctx context.Context, ev event.SourceEvent) error {
	out, err := p.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ev.Bucket),
		Key:    aws.String(ev.ObjectKey),
	})
	if err != nil {
		return p.classifyRead(ev, err)
	}
	defer out.Body.Close()

	bc := BatchContext{
		ProcessingBatchID:  uuid.NewString(),
		IngestionTimestamp: time.Now().UnixMilli(),
	}
	log := p.logger.With(
		zap.String("bucket", ev.Bucket),
		zap.String("key", ev.ObjectKey),
		zap.String("processing_batch_id", bc.ProcessingBatchID),
	)

	sc := bufio.NewScanner(out.Body)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines, emitted, skipped int
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrTransientRead, err)
		}
		lines++

		raw, err := scan.DecodeLine(sc.Text())
		if err != nil {
			p.monitor.IncError(monitor.KindDecodeError)
			log.Warn("skipping undecodable line", zap.Int("line", lines), zap.Error(err))
			skipped++
			continue
		}

		doc, err := scan.Parse(raw)
		if err != nil {
			p.monitor.IncError(monitor.KindParseError)
			log.Warn("skipping unparsable line", zap.Int("line", lines), zap.Error(err))
			skipped++
			continue
		}

		for _, m := range p.transformer.Flatten(doc, bc) {
			rec, err := p.serializer.Encode(m)
			if err != nil {
				if errors.Is(err, measurement.ErrRecordTooLarge) {
					p.monitor.IncError(monitor.KindRecordTooLarge)
					log.Warn("dropping oversize record",
						zap.String("bssid", m.BSSID), zap.Error(err))
					continue
				}
				return fmt.Errorf("encode record: %w", err)
			}
			if err := p.batcher.Submit(ctx, rec); err != nil {
				return fmt.Errorf("submit record: %w", err)
			}
			emitted++
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			// A line above the cap is a property of the object, not of
			// the read; redelivering the message cannot succeed. The
			// rest of the object is unreachable past the bad line.
			p.monitor.IncError(monitor.KindDecodeError)
			log.Warn("abandoning object with oversize line",
				zap.Int("line", lines+1), zap.Error(err))
		} else {
			p.monitor.IncError(monitor.KindTransientRead)
			return fmt.Errorf("%w: read %s/%s: %v", ErrTransientRead, ev.Bucket, ev.ObjectKey, err)
		}
	}

	if err := p.batcher.Flush(ctx); err != nil {
		return fmt.Errorf("flush after %s/%s: %w", ev.Bucket, ev.ObjectKey, err)
	}

	log.Info("object processed",
		zap.Int("lines", lines),
		zap.Int("records", emitted),
		zap.Int("skipped_lines", skipped),
	)
	return nil
}

// classifyRead maps a GetObject failure to a read sentinel and counts
// it.
func (p *FileProcessor) classifyRead(ev event.SourceEvent, err error) error {
	var noKey *s3types.NoSuchKey
	var noBucket *s3types.NoSuchBucket
	if errors.As(err, &noKey) || errors.As(err, &noBucket) {
		p.monitor.IncError(monitor.KindObjectNotFound)
		p.logger.Warn("source object missing",
			zap.String("bucket", ev.Bucket),
			zap.String("key", ev.ObjectKey),
		)
		return fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, ev.Bucket, ev.ObjectKey)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			p.monitor.IncError(monitor.KindObjectNotFound)
			return fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, ev.Bucket, ev.ObjectKey)
		case "AccessDenied", "Forbidden":
			p.monitor.IncError(monitor.KindAccessDenied)
			p.logger.Error("source object access denied",
				zap.String("bucket", ev.Bucket),
				zap.String("key", ev.ObjectKey),
			)
			return fmt.Errorf("%w: s3://%s/%s", ErrAccessDenied, ev.Bucket, ev.ObjectKey)
		}
	}

	p.monitor.IncError(monitor.KindTransientRead)
	return fmt.Errorf("%w: get s3://%s/%s: %v", ErrTransientRead, ev.Bucket, ev.ObjectKey, err)
}
