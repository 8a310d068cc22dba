// Package awsclient constructs the AWS service clients the ingest
// service depends on and defines the narrow interfaces the rest of the
// code consumes, so tests can substitute mocks without touching the
// network.
package awsclient

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// SQSAPI is the subset of the SQS client used by the consumer loop.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// S3API is the subset of the S3 client used by the file processor and
// the optional dead-letter sink.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// FirehoseAPI is the subset of the Firehose client used by the delivery
// batcher and the readiness probe.
type FirehoseAPI interface {
	PutRecordBatch(ctx context.Context, params *firehose.PutRecordBatchInput, optFns ...func(*firehose.Options)) (*firehose.PutRecordBatchOutput, error)
	DescribeDeliveryStream(ctx context.Context, params *firehose.DescribeDeliveryStreamInput, optFns ...func(*firehose.Options)) (*firehose.DescribeDeliveryStreamOutput, error)
}

// Clients bundles the concrete AWS clients built from one shared
// credential chain.
type Clients struct {
	SQS      *sqs.Client
	S3       *s3.Client
	Firehose *firehose.Client
}

// New resolves the default AWS credential/region chain and constructs
// the three service clients.
func New(ctx context.Context, logger *zap.Logger) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	logger.Info("AWS clients initialized", zap.String("region", cfg.Region))

	return &Clients{
		SQS:      sqs.NewFromConfig(cfg),
		S3:       s3.NewFromConfig(cfg),
		Firehose: firehose.NewFromConfig(cfg),
	}, nil
}
