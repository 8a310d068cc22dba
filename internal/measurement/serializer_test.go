package measurement

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Measurement {
	ssid := "CoffeeShop"
	return &Measurement{
		BSSID:                "aa:bb:cc:dd:ee:01",
		MeasurementTimestamp: 1756100000000,
		EventID:              "ev-1",
		Latitude:             37.0,
		Longitude:            -122.0,
		RSSI:                 -60,
		ConnectionStatus:     StatusConnected,
		QualityWeight:        2.0,
		IngestionTimestamp:   1756100005000,
		ProcessingBatchID:    "4b0f6f57-0000-4000-8000-000000000001",
		SSID:                 &ssid,
		QualityScore:         1.0,
	}
}

func TestEncode_SingleLineNewlineTerminated(t *testing.T) {
	s := NewSerializer(1024000)

	buf, err := s.Encode(sample())
	require.NoError(t, err)

	assert.True(t, bytes.HasSuffix(buf, []byte("\n")))
	assert.Equal(t, 1, bytes.Count(buf, []byte("\n")), "record must be a single line")
}

func TestEncode_SnakeCaseFieldsAndNulls(t *testing.T) {
	s := NewSerializer(1024000)
	m := sample()
	m.ConnectionStatus = StatusScan
	m.QualityWeight = 1.0

	buf, err := s.Encode(m)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf, &decoded))

	for _, field := range []string{
		"bssid", "measurement_timestamp", "event_id", "connection_status",
		"quality_weight", "ingestion_timestamp", "processing_batch_id",
	} {
		assert.Contains(t, decoded, field)
	}

	// Connected-only and outlier columns serialize as explicit nulls.
	for _, field := range []string{"link_speed", "channel_width", "global_outlier_score"} {
		require.Contains(t, decoded, field)
		assert.Equal(t, "null", string(decoded[field]))
	}
}

func TestEncode_SizeBoundary(t *testing.T) {
	m := sample()
	base, err := NewSerializer(1 << 20).Encode(m)
	require.NoError(t, err)

	// Exactly at the limit: accepted.
	exact := NewSerializer(len(base))
	_, err = exact.Encode(m)
	require.NoError(t, err)

	// One byte under the limit: rejected as too large.
	tight := NewSerializer(len(base) - 1)
	_, err = tight.Encode(m)
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}

func TestEncode_Deterministic(t *testing.T) {
	s := NewSerializer(1024000)

	a, err := s.Encode(sample())
	require.NoError(t, err)
	b, err := s.Encode(sample())
	require.NoError(t, err)

	assert.Equal(t, a, b, "identical inputs must encode byte-for-byte identically")
}

func TestEncode_UTF8SSIDSurvives(t *testing.T) {
	s := NewSerializer(1024000)
	m := sample()
	ssid := "café-☕"
	m.SSID = &ssid

	buf, err := s.Encode(m)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(buf), "café-☕"))
}
