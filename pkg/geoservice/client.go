package geoservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geolink/edge-locator/internal/models"
	"github.com/rs/zerolog"
)

// Default provider endpoints. Overridable for tests and self-hosted proxies.
const (
	DefaultGeolocationEndpoint = "https://www.googleapis.com/geolocation/v1/geolocate"
	DefaultGeocodingEndpoint   = "https://maps.googleapis.com/maps/api/geocode/json"
	DefaultTimezoneEndpoint    = "https://maps.googleapis.com/maps/api/timezone/json"
)

// Coordinates is the payload of a successful geolocation call.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// TimezoneOffsets is the payload of a timezone call. Status carries the
// provider's own verdict; callers must check it before using the offsets.
type TimezoneOffsets struct {
	Status    string
	RawOffset int
	DSTOffset int
}

// Client wraps the three provider endpoints. Implementations return
// *APIError for provider-reported failures and *DecodeError for responses
// that were not valid JSON.
type Client interface {
	Geolocate(ctx context.Context, networks []models.NetworkObservation) (Coordinates, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (json.RawMessage, error)
	Timezone(ctx context.Context, lat, lng float64, timestamp int64) (TimezoneOffsets, error)
}

// Endpoints groups the three endpoint URLs.
type Endpoints struct {
	Geolocation string
	Geocoding   string
	Timezone    string
}

// DefaultEndpoints returns the public provider URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Geolocation: DefaultGeolocationEndpoint,
		Geocoding:   DefaultGeocodingEndpoint,
		Timezone:    DefaultTimezoneEndpoint,
	}
}

// HTTPClient is the production Client backed by net/http.
type HTTPClient struct {
	httpClient *http.Client
	endpoints  Endpoints
	keys       APIKeySet
	logger     zerolog.Logger
}

// NewHTTPClient creates a provider client with a 10 second per-call timeout.
func NewHTTPClient(endpoints Endpoints, keys APIKeySet, logger zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoints:  endpoints,
		keys:       keys,
		logger:     logger,
	}
}

// wifiAccessPoint matches the provider's geolocation request schema. The
// signal strength travels as a decimal string.
type wifiAccessPoint struct {
	MACAddress     string `json:"macAddress"`
	SignalStrength string `json:"signalStrength"`
}

type geolocateRequest struct {
	WiFiAccessPoints []wifiAccessPoint `json:"wifiAccessPoints"`
}

type geolocateResponse struct {
	Location *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

type geocodeResponse struct {
	Results json.RawMessage `json:"results"`
}

type timezoneResponse struct {
	Status    string `json:"status"`
	RawOffset int    `json:"rawOffset"`
	DSTOffset int    `json:"dstOffset"`
}

// errorEnvelope matches the provider's standard error body.
type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// Geolocate resolves coordinates from WiFi observations.
func (c *HTTPClient) Geolocate(ctx context.Context, networks []models.NetworkObservation) (Coordinates, error) {
	reqBody := geolocateRequest{WiFiAccessPoints: make([]wifiAccessPoint, 0, len(networks))}
	for _, n := range networks {
		reqBody.WiFiAccessPoints = append(reqBody.WiFiAccessPoints, wifiAccessPoint{
			MACAddress:     n.MACAddress,
			SignalStrength: strconv.Itoa(n.SignalStrengthDbm),
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to serialize geolocation request: %w", err)
	}

	endpoint := c.endpoints.Geolocation + "?key=" + url.QueryEscape(c.keys.GeolocationKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Coordinates{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp geolocateResponse
	if err := c.do(req, &resp); err != nil {
		return Coordinates{}, err
	}
	if resp.Location == nil {
		return Coordinates{}, &DecodeError{HTTPStatus: http.StatusOK, Err: fmt.Errorf("response missing location object")}
	}

	c.logger.Debug().
		Float64("lat", resp.Location.Lat).
		Float64("lng", resp.Location.Lng).
		Int("networks", len(networks)).
		Msg("Geolocation resolved")
	return Coordinates{Latitude: resp.Location.Lat, Longitude: resp.Location.Lng}, nil
}

// ReverseGeocode fetches place data for the coordinates. An empty result
// list is not an error; the raw results are returned untouched.
func (c *HTTPClient) ReverseGeocode(ctx context.Context, lat, lng float64) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s?latlng=%s,%s&key=%s",
		c.endpoints.Geocoding, formatCoord(lat), formatCoord(lng), url.QueryEscape(c.keys.GeocodingKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp geocodeResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("bytes", len(resp.Results)).Msg("Reverse geocoding completed")
	return resp.Results, nil
}

// Timezone fetches the UTC offsets in effect at the coordinates.
func (c *HTTPClient) Timezone(ctx context.Context, lat, lng float64, timestamp int64) (TimezoneOffsets, error) {
	endpoint := fmt.Sprintf("%s?location=%s,%s&timestamp=%d&key=%s",
		c.endpoints.Timezone, formatCoord(lat), formatCoord(lng), timestamp, url.QueryEscape(c.keys.TimezoneKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return TimezoneOffsets{}, err
	}

	var resp timezoneResponse
	if err := c.do(req, &resp); err != nil {
		return TimezoneOffsets{}, err
	}

	c.logger.Debug().Str("status", resp.Status).Int("raw_offset", resp.RawOffset).Msg("Timezone lookup completed")
	return TimezoneOffsets{Status: resp.Status, RawOffset: resp.RawOffset, DSTOffset: resp.DSTOffset}, nil
}

// do executes the request and decodes the body into out, converting provider
// error envelopes and unparseable bodies into their typed error forms.
func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DecodeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &DecodeError{HTTPStatus: resp.StatusCode, Err: err}
	}

	if !json.Valid(body) {
		return &DecodeError{HTTPStatus: resp.StatusCode, Err: fmt.Errorf("body is not valid JSON")}
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		apiErr := &APIError{
			HTTPStatus:   resp.StatusCode,
			ProviderCode: envelope.Error.Code,
			Message:      envelope.Error.Message,
		}
		if len(envelope.Error.Errors) > 0 {
			apiErr.ProviderReason = envelope.Error.Errors[0].Reason
		}
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{HTTPStatus: resp.StatusCode}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{HTTPStatus: resp.StatusCode, Err: err}
	}
	return nil
}

// formatCoord renders a coordinate without exponent notation.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
