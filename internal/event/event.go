// Package event parses queue payloads into SourceEvents.
//
// Two notification shapes arrive on the queue for the same underlying
// object-created event: the EventBridge envelope ({"detail":{...}}) and
// the classic S3 notification ({"Records":[{"s3":{...}}]}). Both resolve
// to the same SourceEvent value.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedEvent marks payloads that match neither notification
// shape or are missing required fields. Such messages carry no
// recoverable work and are deleted by the consumer.
var ErrMalformedEvent = errors.New("malformed event payload")

// SourceEvent is the immutable value derived from one queue message.
type SourceEvent struct {
	Bucket       string
	ObjectKey    string // percent-decoded
	FeedTag      string // path segment immediately preceding the filename
	ReceiptToken string
	MessageID    string
}

type eventBridgePayload struct {
	Detail struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"detail"`
}

type s3RecordsPayload struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// Extract parses a raw message body into a SourceEvent. The caller owns
// the message-lifecycle fields (MessageID, ReceiptToken) and sets them
// afterwards. Extract is pure.
func Extract(body []byte) (SourceEvent, error) {
	var eb eventBridgePayload
	if err := json.Unmarshal(body, &eb); err == nil &&
		eb.Detail.Bucket.Name != "" && eb.Detail.Object.Key != "" {
		return build(eb.Detail.Bucket.Name, eb.Detail.Object.Key)
	}

	var rec s3RecordsPayload
	if err := json.Unmarshal(body, &rec); err == nil && len(rec.Records) > 0 {
		r := rec.Records[0].S3
		if r.Bucket.Name != "" && r.Object.Key != "" {
			return build(r.Bucket.Name, r.Object.Key)
		}
	}

	return SourceEvent{}, ErrMalformedEvent
}

func build(bucket, rawKey string) (SourceEvent, error) {
	// S3 notifications percent-encode keys ("%3D" for "=", "+" for
	// space), so decode before any path handling.
	key, err := url.QueryUnescape(rawKey)
	if err != nil {
		return SourceEvent{}, fmt.Errorf("%w: undecodable object key %q", ErrMalformedEvent, rawKey)
	}
	return SourceEvent{
		Bucket:    bucket,
		ObjectKey: key,
		FeedTag:   feedTag(key),
	}, nil
}

// feedTag returns the path segment immediately preceding the filename,
// or "" when the key has no directory component.
func feedTag(key string) string {
	segments := strings.Split(key, "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-2]
}
