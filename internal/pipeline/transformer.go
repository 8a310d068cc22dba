package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/measurement"
	"github.com/arc-self/wifi-ingest-service/internal/monitor"
	"github.com/arc-self/wifi-ingest-service/internal/scan"
)

// BatchContext carries the per-file values stamped on every measurement
// derived from one input object.
type BatchContext struct {
	ProcessingBatchID  string
	IngestionTimestamp int64
}

// Transformer flattens validated scan documents into measurements.
type Transformer struct {
	validator *Validator
	oui       *OUIPolicy
	monitor   *monitor.Monitor
	logger    *zap.Logger
}

// NewTransformer wires the transformer with its validator and the
// optional OUI policy.
func NewTransformer(v *Validator, oui *OUIPolicy, m *monitor.Monitor, logger *zap.Logger) *Transformer {
	return &Transformer{validator: v, oui: oui, monitor: m, logger: logger}
}

// Flatten produces zero or more measurements from one document, in
// document order: connected events first, then scan results. Rejected
// observations are counted and logged; they never abort the document.
func (t *Transformer) Flatten(doc *scan.Document, bc BatchContext) []*measurement.Measurement {
	if _, ok := t.validator.CheckDocument(doc); !ok {
		t.monitor.IncError(monitor.KindValidationReject)
		return nil
	}

	out := make([]*measurement.Measurement, 0,
		len(doc.WifiConnectedEvents)+len(doc.ScanResults))

	for _, ce := range doc.WifiConnectedEvents {
		if m := t.fromConnectedEvent(doc, ce, bc); m != nil {
			out = append(out, m)
		}
	}
	for _, sr := range doc.ScanResults {
		for _, entry := range sr.Results {
			if m := t.fromScanEntry(doc, sr, entry, bc); m != nil {
				out = append(out, m)
			}
		}
	}

	t.monitor.AddRecordsEmitted(len(out))
	return out
}

func (t *Transformer) fromConnectedEvent(doc *scan.Document, ce scan.ConnectedEvent, bc BatchContext) *measurement.Measurement {
	if ce.Info == nil {
		t.reject(RejectMissingBSSID, "", bc)
		return nil
	}

	bssid := NormalizeBSSID(ce.Info.BSSID)
	ts := timestampOf(ce.Timestamp, locationTime(ce.Location))

	reason, ok := t.validator.checkObservation(observation{
		bssid:     bssid,
		rssi:      ce.Info.RSSI,
		loc:       ce.Location,
		timestamp: ts,
	})
	if !ok {
		t.reject(reason, bssid, bc)
		return nil
	}

	weight := t.validator.Weight(measurement.StatusConnected, *ce.Info.RSSI, ce.Info.LinkSpeed)
	m := t.base(doc, bc)
	m.BSSID = bssid
	m.MeasurementTimestamp = ts
	m.EventID = ce.EventID
	m.RSSI = *ce.Info.RSSI
	m.ConnectionStatus = measurement.StatusConnected
	m.QualityWeight = weight
	m.QualityScore = t.validator.Score(measurement.StatusConnected, weight)
	m.SSID = NormalizeSSID(ce.Info.SSID)
	m.Frequency = ce.Info.Frequency
	fillLocation(m, ce.Location)

	// Connected-only enrichment.
	m.LinkSpeed = ce.Info.LinkSpeed
	m.ChannelWidth = ce.Info.ChannelWidth
	m.CenterFreq0 = ce.Info.CenterFreq0
	m.CenterFreq1 = ce.Info.CenterFreq1
	m.Capabilities = optString(ce.Info.Capabilities)
	m.Is80211mcResponder = ce.Info.Is80211mcResponder
	m.IsPasspointNetwork = ce.Info.IsPasspointNetwork
	m.OperatorFriendlyName = optString(ce.Info.OperatorFriendlyName)
	m.VenueName = optString(ce.Info.VenueName)
	m.IsCaptive = ce.Info.IsCaptive
	m.NumScanResults = ce.Info.NumScanResults

	if t.excludeByOUI(m) {
		return nil
	}
	return m
}

func (t *Transformer) fromScanEntry(doc *scan.Document, sr scan.ScanResult, entry scan.ScanEntry, bc BatchContext) *measurement.Measurement {
	bssid := NormalizeBSSID(entry.BSSID)
	ts := timestampOf(entry.ScanTime, sr.Timestamp)

	reason, ok := t.validator.checkObservation(observation{
		bssid:     bssid,
		rssi:      entry.RSSI,
		loc:       sr.Location,
		timestamp: ts,
	})
	if !ok {
		t.reject(reason, bssid, bc)
		return nil
	}

	weight := t.validator.Weight(measurement.StatusScan, *entry.RSSI, nil)
	m := t.base(doc, bc)
	m.BSSID = bssid
	m.MeasurementTimestamp = ts
	m.EventID = eventIDForScan(sr, entry)
	m.RSSI = *entry.RSSI
	m.ConnectionStatus = measurement.StatusScan
	m.QualityWeight = weight
	m.QualityScore = t.validator.Score(measurement.StatusScan, weight)
	m.SSID = NormalizeSSID(entry.SSID)
	m.Frequency = entry.Frequency
	m.ScanTimestamp = sr.Timestamp
	fillLocation(m, sr.Location)

	if t.excludeByOUI(m) {
		return nil
	}
	return m
}

// base stamps the per-file context and the document-level device fields.
func (t *Transformer) base(doc *scan.Document, bc BatchContext) *measurement.Measurement {
	return &measurement.Measurement{
		IngestionTimestamp: bc.IngestionTimestamp,
		ProcessingBatchID:  bc.ProcessingBatchID,
		DeviceID:           hashDeviceID(doc.DeviceID),
		DeviceModel:        optString(doc.Model),
		DeviceManufacturer: optString(doc.Manufacturer),
		OSVersion:          optString(doc.OSVersion),
		AppVersion:         optString(doc.AppVersion),
		DataVersion:        optString(doc.DataVersion),
	}
}

func (t *Transformer) reject(reason RejectReason, bssid string, bc BatchContext) {
	t.monitor.IncError(monitor.KindValidationReject)
	t.logger.Debug("observation rejected",
		zap.String("reason", string(reason)),
		zap.String("bssid", bssid),
		zap.String("processing_batch_id", bc.ProcessingBatchID),
	)
}

// excludeByOUI applies the configured OUI policy; only the "exclude"
// action suppresses emission.
func (t *Transformer) excludeByOUI(m *measurement.Measurement) bool {
	if t.oui == nil {
		return false
	}
	return t.oui.Apply(m)
}

// timestampOf picks the primary timestamp, falling back to the
// secondary when the primary is absent.
func timestampOf(primary, fallback *int64) int64 {
	if primary != nil {
		return *primary
	}
	if fallback != nil {
		return *fallback
	}
	return 0
}

func locationTime(loc *scan.Location) *int64 {
	if loc == nil {
		return nil
	}
	return loc.Time
}

// fillLocation copies the innermost non-null location fields onto the
// measurement. The caller has already validated lat/lon presence.
func fillLocation(m *measurement.Measurement, loc *scan.Location) {
	m.Latitude = *loc.Latitude
	m.Longitude = *loc.Longitude
	m.Altitude = loc.Altitude
	m.LocationAccuracy = loc.Accuracy
	m.LocationTimestamp = loc.Time
	m.LocationProvider = optString(loc.Provider)
	m.LocationSource = optString(loc.Source)
	m.Speed = loc.Speed
	m.Bearing = loc.Bearing
}

// hashDeviceID maps a raw device identifier to its SHA-256 hex digest;
// the raw value never leaves the process.
func hashDeviceID(raw string) *string {
	if raw == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(raw))
	hexed := hex.EncodeToString(sum[:])
	return &hexed
}

// eventIDForScan derives a stable event id for SCAN rows, which carry
// no client-side event id of their own.
func eventIDForScan(sr scan.ScanResult, entry scan.ScanEntry) string {
	id := "scan-" + NormalizeBSSID(entry.BSSID)
	if entry.ScanTime != nil {
		return id + "-" + strconv.FormatInt(*entry.ScanTime, 10)
	}
	if sr.Timestamp != nil {
		return id + "-" + strconv.FormatInt(*sr.Timestamp, 10)
	}
	return id
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
