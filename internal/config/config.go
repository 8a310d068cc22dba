// Package config loads the ingest service configuration from the
// environment, with optional secret overrides from Vault.
//
// Every knob has a safe default so that a local run against LocalStack
// only needs INGEST_QUEUE_URL and INGEST_STREAM_NAME set. The loaded
// Config is passed explicitly at construction time; there is no global
// configuration state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable of the ingest service.
type Config struct {
	// Queue consumption.
	QueueURL          string
	MaxMessages       int32
	WaitSeconds       int32
	VisibilitySeconds int32

	// Stream delivery.
	StreamName          string
	MaxBatchRecords     int
	MaxBatchBytes       int
	MaxRecordBytes      int
	MaxRetries          int
	BaseBackoff         time.Duration
	MaxBackoff          time.Duration
	DispatchConcurrency int
	ShutdownTimeout     time.Duration

	// Optional dead-letter bucket for records dropped on permanent
	// delivery failures. Empty disables the sink.
	DeadLetterBucket string

	// Validation bounds.
	MaxAccuracyMeters float64
	RSSIMin           int
	RSSIMax           int
	MaxFutureSkew     time.Duration
	MaxPastAge        time.Duration

	// Quality weighting.
	ConnectedWeight    float64
	ScanWeight         float64
	LowLinkSpeedWeight float64

	// Mobile-hotspot OUI policy.
	OUI OUIConfig

	// Health surface.
	HTTPAddr            string
	StreamCheckInterval time.Duration
	DeliveryTimeout     time.Duration
}

// OUIConfig controls the optional mobile-hotspot OUI hook.
type OUIConfig struct {
	Enabled  bool
	Action   string // "flag", "exclude" or "log"
	Prefixes []string
}

// Load reads the configuration from INGEST_* environment variables.
// QueueURL and StreamName are required (possibly supplied later via
// ApplySecrets); everything else falls back to documented defaults.
func Load() *Config {
	return &Config{
		QueueURL:          os.Getenv("INGEST_QUEUE_URL"),
		MaxMessages:       int32(envInt("INGEST_MAX_MESSAGES", 10)),
		WaitSeconds:       int32(envInt("INGEST_WAIT_SECONDS", 20)),
		VisibilitySeconds: int32(envInt("INGEST_VISIBILITY_SECONDS", 300)),

		StreamName:          os.Getenv("INGEST_STREAM_NAME"),
		MaxBatchRecords:     envInt("INGEST_MAX_BATCH_RECORDS", 500),
		MaxBatchBytes:       envInt("INGEST_MAX_BATCH_BYTES", 4*1024*1024),
		MaxRecordBytes:      envInt("INGEST_MAX_RECORD_BYTES", 1024000),
		MaxRetries:          envInt("INGEST_MAX_RETRIES", 3),
		BaseBackoff:         envDurationMs("INGEST_BASE_BACKOFF_MS", 1000),
		MaxBackoff:          envDurationMs("INGEST_MAX_BACKOFF_MS", 30000),
		DispatchConcurrency: envInt("INGEST_DISPATCH_CONCURRENCY", 2),
		ShutdownTimeout:     envDurationMs("INGEST_SHUTDOWN_TIMEOUT_MS", 25000),

		DeadLetterBucket: os.Getenv("INGEST_DEAD_LETTER_BUCKET"),

		MaxAccuracyMeters: envFloat("INGEST_MAX_ACCURACY_METERS", 150),
		RSSIMin:           envInt("INGEST_RSSI_MIN", -100),
		RSSIMax:           envInt("INGEST_RSSI_MAX", 0),
		MaxFutureSkew:     envDurationMs("INGEST_MAX_FUTURE_SKEW_MS", int64(5*time.Minute/time.Millisecond)),
		MaxPastAge:        envDurationMs("INGEST_MAX_PAST_AGE_MS", int64(10*365*24*time.Hour/time.Millisecond)),

		ConnectedWeight:    envFloat("INGEST_CONNECTED_WEIGHT", 2.0),
		ScanWeight:         envFloat("INGEST_SCAN_WEIGHT", 1.0),
		LowLinkSpeedWeight: envFloat("INGEST_LOW_LINK_SPEED_WEIGHT", 1.5),

		OUI: OUIConfig{
			Enabled:  envBool("INGEST_OUI_ENABLED", false),
			Action:   envString("INGEST_OUI_ACTION", "flag"),
			Prefixes: envList("INGEST_OUI_PREFIXES"),
		},

		HTTPAddr:            envString("INGEST_HTTP_ADDR", ":8080"),
		StreamCheckInterval: envDurationMs("INGEST_STREAM_CHECK_INTERVAL_MS", 30000),
		DeliveryTimeout:     envDurationMs("INGEST_DELIVERY_TIMEOUT_MS", int64(5*time.Minute/time.Millisecond)),
	}
}

// ApplySecrets overrides sensitive fields from a Vault KV v2 data map.
// Unknown keys are ignored so a shared secret path can carry values for
// other services too.
func (c *Config) ApplySecrets(secrets map[string]interface{}) {
	if v, ok := secrets["QUEUE_URL"].(string); ok && v != "" {
		c.QueueURL = v
	}
	if v, ok := secrets["STREAM_NAME"].(string); ok && v != "" {
		c.StreamName = v
	}
	if v, ok := secrets["DEAD_LETTER_BUCKET"].(string); ok && v != "" {
		c.DeadLetterBucket = v
	}
}

// Validate reports the first missing required field. The process must
// not start without a queue to drain and a stream to deliver to.
func (c *Config) Validate() error {
	if c.QueueURL == "" {
		return fmt.Errorf("config: INGEST_QUEUE_URL is required")
	}
	if c.StreamName == "" {
		return fmt.Errorf("config: INGEST_STREAM_NAME is required")
	}
	if c.MaxBatchRecords <= 0 || c.MaxBatchBytes <= 0 || c.MaxRecordBytes <= 0 {
		return fmt.Errorf("config: batch limits must be positive")
	}
	if c.MaxRecordBytes > c.MaxBatchBytes {
		return fmt.Errorf("config: INGEST_MAX_RECORD_BYTES exceeds INGEST_MAX_BATCH_BYTES")
	}
	switch c.OUI.Action {
	case "flag", "exclude", "log":
	default:
		return fmt.Errorf("config: unknown OUI action %q", c.OUI.Action)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDurationMs(key string, defMs int64) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(defMs) * time.Millisecond
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Duration(defMs) * time.Millisecond
	}
	return time.Duration(n) * time.Millisecond
}

// envList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
