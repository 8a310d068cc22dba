// Package pipeline contains the per-file transformation pipeline:
// validation, flattening, serialization and submission to the delivery
// batcher, plus the feed dispatcher that routes source events to a
// processor.
package pipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/arc-self/wifi-ingest-service/internal/config"
	"github.com/arc-self/wifi-ingest-service/internal/measurement"
	"github.com/arc-self/wifi-ingest-service/internal/scan"
)

// RejectReason enumerates why an observation (or document) failed
// validation.
type RejectReason string

const (
	RejectMissingCoords       RejectReason = "MISSING_COORDS"
	RejectCoordsOutOfRange    RejectReason = "COORDS_OUT_OF_RANGE"
	RejectRSSIOutOfRange      RejectReason = "RSSI_OUT_OF_RANGE"
	RejectAccuracyTooHigh     RejectReason = "ACCURACY_TOO_HIGH"
	RejectMissingBSSID        RejectReason = "MISSING_BSSID"
	RejectMalformedBSSID      RejectReason = "MALFORMED_BSSID"
	RejectTimestampOutOfRange RejectReason = "TIMESTAMP_OUT_OF_RANGE"
	RejectBroadcastBSSID      RejectReason = "BROADCAST_BSSID"
	RejectZeroBSSID           RejectReason = "ZERO_BSSID"
)

var bssidPattern = regexp.MustCompile(`^[0-9a-f]{2}(:[0-9a-f]{2}){5}$`)

const (
	zeroBSSID      = "00:00:00:00:00:00"
	broadcastBSSID = "ff:ff:ff:ff:ff:ff"
)

// Low-link-speed down-ranking thresholds: a strong signal with an
// unexpectedly slow link suggests a congested or tethered AP.
const (
	strongRSSIDbm    = -65
	lowLinkSpeedMbps = 25
)

// Validator applies the configured sanity bounds to observations and
// assigns quality weights. It is stateless and safe for concurrent use.
type Validator struct {
	cfg *config.Config
	now func() time.Time
}

// NewValidator builds a Validator from the service configuration.
func NewValidator(cfg *config.Config) *Validator {
	return &Validator{cfg: cfg, now: time.Now}
}

// observation is the per-row fieldset checked at observation
// granularity.
type observation struct {
	bssid     string // already normalized
	rssi      *int
	loc       *scan.Location
	timestamp int64 // ms since epoch
}

// CheckDocument applies document-level validation. Device and root
// fields carry no hard invariants today; only a structurally absent
// document is rejected.
func (v *Validator) CheckDocument(doc *scan.Document) (RejectReason, bool) {
	if doc == nil {
		return RejectMissingCoords, false
	}
	return "", true
}

// checkObservation validates one observation. It returns the first
// failing reason; check order is coords, accuracy, rssi, bssid,
// timestamp so that reject counters stay stable across refactors.
func (v *Validator) checkObservation(o observation) (RejectReason, bool) {
	if o.loc == nil || o.loc.Latitude == nil || o.loc.Longitude == nil {
		return RejectMissingCoords, false
	}
	lat, lon := *o.loc.Latitude, *o.loc.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return RejectCoordsOutOfRange, false
	}
	if o.loc.Accuracy != nil && *o.loc.Accuracy > v.cfg.MaxAccuracyMeters {
		return RejectAccuracyTooHigh, false
	}

	if o.rssi == nil || *o.rssi < v.cfg.RSSIMin || *o.rssi > v.cfg.RSSIMax {
		return RejectRSSIOutOfRange, false
	}

	switch {
	case o.bssid == "":
		return RejectMissingBSSID, false
	case !bssidPattern.MatchString(o.bssid):
		return RejectMalformedBSSID, false
	case o.bssid == zeroBSSID:
		return RejectZeroBSSID, false
	case o.bssid == broadcastBSSID:
		return RejectBroadcastBSSID, false
	}

	now := v.now().UnixMilli()
	if o.timestamp <= 0 ||
		o.timestamp > now+v.cfg.MaxFutureSkew.Milliseconds() ||
		o.timestamp < now-v.cfg.MaxPastAge.Milliseconds() {
		return RejectTimestampOutOfRange, false
	}

	return "", true
}

// Weight computes the quality weight for a validated observation.
// CONNECTED rows weigh 2.0, down-ranked to 1.5 when the signal is
// strong (>= -65 dBm) but the link speed is below 25 Mbps; SCAN rows
// weigh 1.0.
func (v *Validator) Weight(status string, rssi int, linkSpeed *int) float64 {
	if status != measurement.StatusConnected {
		return v.cfg.ScanWeight
	}
	if rssi >= strongRSSIDbm && linkSpeed != nil && *linkSpeed < lowLinkSpeedMbps {
		return v.cfg.LowLinkSpeedWeight
	}
	return v.cfg.ConnectedWeight
}

// Score normalizes a weight against the maximum possible weight for the
// row type, yielding a 0..1 quality score.
func (v *Validator) Score(status string, weight float64) float64 {
	max := v.cfg.ScanWeight
	if status == measurement.StatusConnected {
		max = v.cfg.ConnectedWeight
	}
	if max <= 0 {
		return 0
	}
	return weight / max
}

// NormalizeBSSID lowercases a BSSID and converts dash separators to
// colons. It does not validate; checkObservation does that.
func NormalizeBSSID(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", ":")
}

// NormalizeSSID trims an SSID and collapses pure-null-character names
// (hidden networks as reported by some chipsets) to absent.
func NormalizeSSID(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Trim(trimmed, "\x00") == "" {
		return nil
	}
	return &trimmed
}
