package scan

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeLine produces base64(gzip(payload)) the way mobile clients do.
func encodeLine(t *testing.T, payload []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeLine_RoundTrip(t *testing.T) {
	payload := []byte(`{"deviceId":"abc","scanResults":[]}`)

	got, err := DecodeLine(encodeLine(t, payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecodeLine_SurroundingWhitespace(t *testing.T) {
	payload := []byte(`{"ok":true}`)
	line := "  " + encodeLine(t, payload) + "\r\n"

	got, err := DecodeLine(line)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecodeLine_Failures(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace only", "   \t"},
		{"not base64", "!!!not-base64!!!"},
		{"base64 but not gzip", base64.StdEncoding.EncodeToString([]byte("plain text"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLine(tt.line)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeLine_TruncatedGzipBody(t *testing.T) {
	payload := []byte(`{"deviceId":"abc","scanResults":[{"results":[]}]}`)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	// Cut the gzip stream mid-body so the header parses but the read fails.
	truncated := buf.Bytes()[:buf.Len()-4]
	_, err = DecodeLine(base64.StdEncoding.EncodeToString(truncated))
	assert.ErrorIs(t, err, ErrDecode)
}
