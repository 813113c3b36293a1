package geoservice

import "errors"

// APIKeySet holds one key per provider endpoint. The same key may fill all
// three slots. Keys are immutable after construction.
type APIKeySet struct {
	GeolocationKey string
	GeocodingKey   string
	TimezoneKey    string
}

// NewAPIKeySet validates and returns a three-key set. Every slot must be
// non-empty; a missing key makes every call to its endpoint pointless, so
// this is the one failure that is fatal at construction time.
func NewAPIKeySet(geolocationKey, geocodingKey, timezoneKey string) (APIKeySet, error) {
	if geolocationKey == "" || geocodingKey == "" || timezoneKey == "" {
		return APIKeySet{}, errors.New("geoservice: all three API keys must be non-empty")
	}
	return APIKeySet{
		GeolocationKey: geolocationKey,
		GeocodingKey:   geocodingKey,
		TimezoneKey:    timezoneKey,
	}, nil
}

// NewSharedAPIKeySet builds a key set reusing a single key for all three
// endpoints.
func NewSharedAPIKeySet(key string) (APIKeySet, error) {
	return NewAPIKeySet(key, key, key)
}
