package monitor

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"
	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/awsclient"
)

// StreamChecker polls DescribeDeliveryStream and feeds the result into
// the Monitor's readiness state.
type StreamChecker struct {
	fh         awsclient.FirehoseAPI
	streamName string
	interval   time.Duration
	monitor    *Monitor
	logger     *zap.Logger
}

// NewStreamChecker constructs a StreamChecker. A zero interval defaults
// to 30 s.
func NewStreamChecker(fh awsclient.FirehoseAPI, streamName string, interval time.Duration, m *Monitor, logger *zap.Logger) *StreamChecker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StreamChecker{
		fh:         fh,
		streamName: streamName,
		interval:   interval,
		monitor:    m,
		logger:     logger,
	}
}

// Run polls until ctx is cancelled. It checks once immediately so
// readiness does not wait a full interval after startup.
func (c *StreamChecker) Run(ctx context.Context) {
	c.check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *StreamChecker) check(ctx context.Context) {
	out, err := c.fh.DescribeDeliveryStream(ctx, &firehose.DescribeDeliveryStreamInput{
		DeliveryStreamName: aws.String(c.streamName),
	})
	if err != nil {
		c.logger.Warn("delivery stream check failed",
			zap.String("stream", c.streamName),
			zap.Error(err),
		)
		c.monitor.SetStreamStatus(false, err)
		return
	}

	status := out.DeliveryStreamDescription.DeliveryStreamStatus
	c.monitor.SetStreamStatus(status == types.DeliveryStreamStatusActive, nil)
}
