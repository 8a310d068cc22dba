package measurement

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRecordTooLarge marks an encoded record above the per-record size
// limit. The record is dropped with a logged reason.
var ErrRecordTooLarge = errors.New("record exceeds size limit")

// Serializer encodes Measurements as newline-terminated JSON objects.
type Serializer struct {
	maxRecordBytes int
}

// NewSerializer returns a Serializer enforcing the given per-record
// byte limit (newline included).
func NewSerializer(maxRecordBytes int) *Serializer {
	return &Serializer{maxRecordBytes: maxRecordBytes}
}

// Encode renders one Measurement as a single-line UTF-8 JSON object
// followed by '\n'.
func (s *Serializer) Encode(m *Measurement) ([]byte, error) {
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode measurement: %w", err)
	}
	buf = append(buf, '\n')
	if len(buf) > s.maxRecordBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrRecordTooLarge, len(buf), s.maxRecordBytes)
	}
	return buf, nil
}
