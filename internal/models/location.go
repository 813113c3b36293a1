package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NetworkObservation is a single WiFi access point seen by the device scan.
type NetworkObservation struct {
	MACAddress        string `json:"macAddress"`
	SignalStrengthDbm int    `json:"signalStrengthDbm"`
}

// LocationResult holds the coordinates resolved for the device, plus the raw
// reverse-geocoding payload returned by the provider. PlaceData is opaque to
// this system and may be empty.
type LocationResult struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	PlaceData json.RawMessage `json:"placeData,omitempty"`
}

// TimezoneResult holds the local-time data derived from a LocationResult's
// coordinates.
type TimezoneResult struct {
	EpochTime        int64  `json:"epochTime"`
	GmtOffsetSeconds int    `json:"gmtOffsetSeconds"`
	OffsetLabel      string `json:"offsetLabel"`
	LocalDateLabel   string `json:"localDateLabel"`
}

// NewTimezoneResult derives the timezone fields from the provider's raw and
// DST offsets, relative to now. The offset label keeps truncated integer
// hours ("GMT-7" for -25200 seconds).
func NewTimezoneResult(now time.Time, rawOffsetSeconds, dstOffsetSeconds int) TimezoneResult {
	total := rawOffsetSeconds + dstOffsetSeconds
	epoch := now.Unix() + int64(total)

	return TimezoneResult{
		EpochTime:        epoch,
		GmtOffsetSeconds: total,
		OffsetLabel:      fmt.Sprintf("GMT%+d", total/3600),
		LocalDateLabel:   time.Unix(epoch, 0).UTC().Format("2006-01-02 15:04:05"),
	}
}
