package models

import "encoding/json"

// ScanRequest asks the device for WiFi observations. UsePrevious lets the
// device answer from its cached scan instead of running a fresh one.
type ScanRequest struct {
	UsePrevious bool `json:"usePrevious"`
}

// ScanResult carries the device's observations back to the agent.
type ScanResult struct {
	Networks []NetworkObservation `json:"networks"`
}

// LocateResult is the final payload the agent pushes to the device replica.
// TimezoneData is nil when the timezone stage was skipped. A non-empty Error
// reports a terminally failed cycle; the other fields are meaningless then.
type LocateResult struct {
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	PlaceData    json.RawMessage `json:"placeData,omitempty"`
	TimezoneData *TimezoneResult `json:"timezoneData,omitempty"`
	Error        string          `json:"error,omitempty"`
}
