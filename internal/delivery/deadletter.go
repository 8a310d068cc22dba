package delivery

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/awsclient"
)

// DeadLetterSink receives records dropped on permanent or unknown
// delivery failures. Absent a sink, drops are only logged and counted.
type DeadLetterSink interface {
	Put(ctx context.Context, batchID string, records [][]byte) error
}

// S3DeadLetter writes dropped batches as JSON-lines objects under
// dead-letter/<batch-id>.jsonl.
type S3DeadLetter struct {
	s3     awsclient.S3API
	bucket string
	logger *zap.Logger
}

// NewS3DeadLetter constructs the sink for the given bucket.
func NewS3DeadLetter(client awsclient.S3API, bucket string, logger *zap.Logger) *S3DeadLetter {
	return &S3DeadLetter{s3: client, bucket: bucket, logger: logger}
}

// Put stores the records of one abandoned batch. Records are already
// newline-terminated, so the object is their plain concatenation.
func (d *S3DeadLetter) Put(ctx context.Context, batchID string, records [][]byte) error {
	body := bytes.Join(records, nil)
	key := fmt.Sprintf("dead-letter/%s.jsonl", batchID)

	_, err := d.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("dead-letter put %s: %w", key, err)
	}

	d.logger.Info("dead-letter batch written",
		zap.String("key", key),
		zap.Int("records", len(records)),
	)
	return nil
}
