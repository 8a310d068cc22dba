// Package measurement defines the normalized record delivered
// downstream and its JSON wire encoding.
package measurement

// Connection status values.
const (
	StatusConnected = "CONNECTED"
	StatusScan      = "SCAN"
)

// Measurement is one flattened WiFi observation. Optional columns use
// pointers and serialize as JSON null when absent; connected-only
// fields are always null on SCAN rows.
type Measurement struct {
	// Required.
	BSSID                string  `json:"bssid"`
	MeasurementTimestamp int64   `json:"measurement_timestamp"`
	EventID              string  `json:"event_id"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	RSSI                 int     `json:"rssi"`
	ConnectionStatus     string  `json:"connection_status"`
	QualityWeight        float64 `json:"quality_weight"`
	IngestionTimestamp   int64   `json:"ingestion_timestamp"`
	ProcessingBatchID    string  `json:"processing_batch_id"`

	// Device.
	DeviceID           *string `json:"device_id"` // SHA-256 hex, never raw
	DeviceModel        *string `json:"device_model"`
	DeviceManufacturer *string `json:"device_manufacturer"`
	OSVersion          *string `json:"os_version"`
	AppVersion         *string `json:"app_version"`

	// Location.
	Altitude          *float64 `json:"altitude"`
	LocationAccuracy  *float64 `json:"location_accuracy"`
	LocationTimestamp *int64   `json:"location_timestamp"`
	LocationProvider  *string  `json:"location_provider"`
	LocationSource    *string  `json:"location_source"`
	Speed             *float64 `json:"speed"`
	Bearing           *float64 `json:"bearing"`

	// WiFi.
	SSID          *string `json:"ssid"`
	Frequency     *int    `json:"frequency"`
	ScanTimestamp *int64  `json:"scan_timestamp"`

	// Connected-only enrichment.
	LinkSpeed            *int    `json:"link_speed"`
	ChannelWidth         *int    `json:"channel_width"`
	CenterFreq0          *int    `json:"center_freq0"`
	CenterFreq1          *int    `json:"center_freq1"`
	Capabilities         *string `json:"capabilities"`
	Is80211mcResponder   *bool   `json:"is_80211mc_responder"`
	IsPasspointNetwork   *bool   `json:"is_passpoint_network"`
	OperatorFriendlyName *string `json:"operator_friendly_name"`
	VenueName            *string `json:"venue_name"`
	IsCaptive            *bool   `json:"is_captive"`
	NumScanResults       *int    `json:"num_scan_results"`

	// Processing.
	DataVersion  *string `json:"data_version"`
	QualityScore float64 `json:"quality_score"`

	// Global-outlier columns are computed by a separate offline job and
	// always null at ingest time.
	GlobalOutlierScore  *float64 `json:"global_outlier_score"`
	GlobalOutlierReason *string  `json:"global_outlier_reason"`
}
