// Package scan models one decoded WiFi-scan document and the two
// decoding steps that precede parsing (base64 + gzip).
//
// A Document lives only for the duration of one line's processing frame;
// nothing in this package retains state between lines.
package scan

// Document is one parsed JSON document from one decoded line. All
// fields are optional on the wire; numeric fields use pointers so that
// absence is distinguishable from zero.
type Document struct {
	DeviceID     string `json:"deviceId"`
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer"`
	OSVersion    string `json:"osVersion"`
	AppVersion   string `json:"appVersion"`
	DataVersion  string `json:"dataVersion"`

	WifiConnectedEvents []ConnectedEvent `json:"wifiConnectedEvents"`
	ScanResults         []ScanResult     `json:"scanResults"`
}

// ConnectedEvent is one association event with its enrichment info.
type ConnectedEvent struct {
	Timestamp *int64         `json:"timestamp"`
	EventID   string         `json:"eventId"`
	Info      *ConnectedInfo `json:"wifiConnectedInfo"`
	Location  *Location      `json:"location"`
}

// ConnectedInfo carries the connected-only enrichment fields.
type ConnectedInfo struct {
	SSID                 string `json:"ssid"`
	BSSID                string `json:"bssid"`
	RSSI                 *int   `json:"rssi"`
	Frequency            *int   `json:"frequency"`
	LinkSpeed            *int   `json:"linkSpeed"`
	ChannelWidth         *int   `json:"channelWidth"`
	CenterFreq0          *int   `json:"centerFreq0"`
	CenterFreq1          *int   `json:"centerFreq1"`
	Capabilities         string `json:"capabilities"`
	Is80211mcResponder   *bool  `json:"is80211mcResponder"`
	IsPasspointNetwork   *bool  `json:"isPasspointNetwork"`
	OperatorFriendlyName string `json:"operatorFriendlyName"`
	VenueName            string `json:"venueName"`
	IsCaptive            *bool  `json:"isCaptive"`
	NumScanResults       *int   `json:"numScanResults"`
}

// ScanResult is one passive scan sweep with its observed networks.
type ScanResult struct {
	Timestamp *int64      `json:"timestamp"`
	Location  *Location   `json:"location"`
	Results   []ScanEntry `json:"results"`
}

// ScanEntry is one network observed during a scan sweep.
type ScanEntry struct {
	BSSID     string `json:"bssid"`
	SSID      string `json:"ssid"`
	RSSI      *int   `json:"rssi"`
	Frequency *int   `json:"frequency"`
	ScanTime  *int64 `json:"scantime"`
}

// Location is a device position fix.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Accuracy  *float64 `json:"accuracy"`
	Time      *int64   `json:"time"`
	Provider  string   `json:"provider"`
	Source    string   `json:"source"`
	Speed     *float64 `json:"speed"`
	Bearing   *float64 `json:"bearing"`
}
