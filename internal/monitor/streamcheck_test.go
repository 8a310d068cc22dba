package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/wifi-ingest-service/internal/awsclient/mock"
)

func describeOutput(status types.DeliveryStreamStatus) *firehose.DescribeDeliveryStreamOutput {
	return &firehose.DescribeDeliveryStreamOutput{
		DeliveryStreamDescription: &types.DeliveryStreamDescription{
			DeliveryStreamName:   aws.String("wifi-measurements"),
			DeliveryStreamStatus: status,
		},
	}
}

func TestStreamCheckActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	fh := mock.NewMockFirehoseAPI(ctrl)
	m := New(zaptest.NewLogger(t))
	m.RecordReceiveTick()

	fh.EXPECT().DescribeDeliveryStream(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *firehose.DescribeDeliveryStreamInput, _ ...func(*firehose.Options)) (*firehose.DescribeDeliveryStreamOutput, error) {
			assert.Equal(t, "wifi-measurements", aws.ToString(in.DeliveryStreamName))
			return describeOutput(types.DeliveryStreamStatusActive), nil
		})

	c := NewStreamChecker(fh, "wifi-measurements", time.Minute, m, zaptest.NewLogger(t))
	c.check(context.Background())

	assert.True(t, m.Ready(time.Minute))
}

func TestStreamCheckNotActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	fh := mock.NewMockFirehoseAPI(ctrl)
	m := New(zaptest.NewLogger(t))
	m.RecordReceiveTick()

	fh.EXPECT().DescribeDeliveryStream(gomock.Any(), gomock.Any()).
		Return(describeOutput(types.DeliveryStreamStatusCreating), nil)

	c := NewStreamChecker(fh, "wifi-measurements", time.Minute, m, zaptest.NewLogger(t))
	c.check(context.Background())

	assert.False(t, m.Ready(time.Minute))
}

func TestStreamCheckFailureAccumulates(t *testing.T) {
	ctrl := gomock.NewController(t)
	fh := mock.NewMockFirehoseAPI(ctrl)
	m := New(zaptest.NewLogger(t))
	m.RecordReceiveTick()

	fh.EXPECT().DescribeDeliveryStream(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("timeout")).Times(3)

	c := NewStreamChecker(fh, "wifi-measurements", time.Minute, m, zaptest.NewLogger(t))
	for i := 0; i < 3; i++ {
		c.check(context.Background())
	}

	assert.False(t, m.Ready(time.Minute))
	assert.EqualValues(t, 3, m.Snap().StreamCheckFails)
}
