package geoservice_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geolink/edge-locator/internal/models"
	"github.com/geolink/edge-locator/pkg/geoservice"
)

func testKeys(t *testing.T) geoservice.APIKeySet {
	t.Helper()
	keys, err := geoservice.NewSharedAPIKeySet("test-key")
	require.NoError(t, err)
	return keys
}

func newTestClient(t *testing.T, server *httptest.Server) *geoservice.HTTPClient {
	t.Helper()
	endpoints := geoservice.Endpoints{
		Geolocation: server.URL + "/geolocate",
		Geocoding:   server.URL + "/geocode",
		Timezone:    server.URL + "/timezone",
	}
	return geoservice.NewHTTPClient(endpoints, testKeys(t), zerolog.Nop())
}

func TestAPIKeySet_RejectsEmptyKeys(t *testing.T) {
	_, err := geoservice.NewAPIKeySet("a", "", "c")
	assert.Error(t, err)

	_, err = geoservice.NewSharedAPIKeySet("")
	assert.Error(t, err)

	keys, err := geoservice.NewSharedAPIKeySet("k")
	require.NoError(t, err)
	assert.Equal(t, "k", keys.GeolocationKey)
	assert.Equal(t, "k", keys.GeocodingKey)
	assert.Equal(t, "k", keys.TimezoneKey)
}

func TestGeolocate_BuildsRequestAndParsesResponse(t *testing.T) {
	var gotBody []byte
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"location":{"lat":37.1,"lng":-122.1},"accuracy":20.5}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	coords, err := client.Geolocate(context.Background(), []models.NetworkObservation{
		{MACAddress: "AA:BB:CC:DD:EE:FF", SignalStrengthDbm: -61},
	})

	require.NoError(t, err)
	assert.Equal(t, 37.1, coords.Latitude)
	assert.Equal(t, -122.1, coords.Longitude)
	assert.Equal(t, "test-key", gotKey)

	// The provider schema wants the signal strength as a decimal string.
	assert.JSONEq(t,
		`{"wifiAccessPoints":[{"macAddress":"AA:BB:CC:DD:EE:FF","signalStrength":"-61"}]}`,
		string(gotBody))
}

func TestGeolocate_ErrorEnvelope_YieldsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"quota","errors":[{"reason":"dailyLimitExceeded"}]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Geolocate(context.Background(), nil)

	var apiErr *geoservice.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatus)
	assert.Equal(t, 403, apiErr.ProviderCode)
	assert.Equal(t, "dailyLimitExceeded", apiErr.ProviderReason)
}

func TestGeolocate_InvalidJSON_YieldsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Geolocate(context.Background(), nil)

	var decodeErr *geoservice.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestGeolocate_BareServerError_YieldsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Geolocate(context.Background(), nil)

	var apiErr *geoservice.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatus)
	assert.Zero(t, apiErr.ProviderCode)
}

func TestReverseGeocode_ReturnsRawResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "37.1,-122.1", r.URL.Query().Get("latlng"))
		w.Write([]byte(`{"results":[{"formatted_address":"1 Example St"}],"status":"OK"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	results, err := client.ReverseGeocode(context.Background(), 37.1, -122.1)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"formatted_address":"1 Example St"}]`, string(results))
}

func TestReverseGeocode_EmptyResults_IsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[],"status":"ZERO_RESULTS"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	results, err := client.ReverseGeocode(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(results))
}

func TestTimezone_ParsesOffsetsAndStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "37.1,-122.1", r.URL.Query().Get("location"))
		assert.Equal(t, "1756000000", r.URL.Query().Get("timestamp"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK", "rawOffset": -28800, "dstOffset": 3600,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	offsets, err := client.Timezone(context.Background(), 37.1, -122.1, 1756000000)

	require.NoError(t, err)
	assert.Equal(t, "OK", offsets.Status)
	assert.Equal(t, -28800, offsets.RawOffset)
	assert.Equal(t, 3600, offsets.DSTOffset)
}

func TestTimezone_NonOKStatus_IsReturnedNotErrored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	offsets, err := client.Timezone(context.Background(), 0, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, "ZERO_RESULTS", offsets.Status)
}
