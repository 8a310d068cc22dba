package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_EventBridgeShape(t *testing.T) {
	body := []byte(`{"detail":{"bucket":{"name":"scan-uploads"},"object":{"key":"ingest/wifi-feed/scan-001.txt"}}}`)

	ev, err := Extract(body)
	require.NoError(t, err)
	assert.Equal(t, "scan-uploads", ev.Bucket)
	assert.Equal(t, "ingest/wifi-feed/scan-001.txt", ev.ObjectKey)
	assert.Equal(t, "wifi-feed", ev.FeedTag)
}

func TestExtract_RecordsShape(t *testing.T) {
	body := []byte(`{"Records":[{"s3":{"bucket":{"name":"scan-uploads"},"object":{"key":"daily/device-feed/scan-002.txt"}}}]}`)

	ev, err := Extract(body)
	require.NoError(t, err)
	assert.Equal(t, "scan-uploads", ev.Bucket)
	assert.Equal(t, "daily/device-feed/scan-002.txt", ev.ObjectKey)
	assert.Equal(t, "device-feed", ev.FeedTag)
}

func TestExtract_PercentDecodesKey(t *testing.T) {
	body := []byte(`{"detail":{"bucket":{"name":"b"},"object":{"key":"a%2Ffeed%2Fscan%3D1.txt"}}}`)

	ev, err := Extract(body)
	require.NoError(t, err)
	assert.Equal(t, "a/feed/scan=1.txt", ev.ObjectKey)
	assert.Equal(t, "feed", ev.FeedTag)
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{broken`},
		{"empty object", `{}`},
		{"records without s3", `{"Records":[{"sns":{}}]}`},
		{"detail missing key", `{"detail":{"bucket":{"name":"b"},"object":{}}}`},
		{"empty records array", `{"Records":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.body))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestExtract_UndecodableKey(t *testing.T) {
	body := []byte(`{"detail":{"bucket":{"name":"b"},"object":{"key":"bad%zzkey"}}}`)

	_, err := Extract(body)
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestFeedTag(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"ingest/wifi-feed/file.txt", "wifi-feed"},
		{"wifi-feed/file.txt", "wifi-feed"},
		{"file.txt", ""},
		{"a/b/c/d/file.txt", "d"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, feedTag(tt.key))
		})
	}
}
