package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/geolink/edge-locator/internal/models"
	"github.com/geolink/edge-locator/pkg/location"
	"github.com/geolink/edge-locator/pkg/scanner"
	"github.com/geolink/edge-locator/pkg/transport"
)

// EdgeDevice is the edge-node half of the locator. It owns the WiFi scan,
// caches the latest observations and keeps a local replica of the results
// the agent pushes back. The replica is read-only convenience for the host
// application; the agent's copy stays authoritative.
type EdgeDevice struct {
	deviceID    string
	transport   transport.Transport
	scanner     scanner.WiFiScanner
	sensor      location.Provider // optional GPS sensor, bypasses the agent
	scanTimeout time.Duration
	logger      zerolog.Logger

	mu         sync.Mutex
	state      State
	cache      []models.NetworkObservation
	location   *models.LocationResult
	timezone   *models.TimezoneResult
	locErr     string
	onComplete func()
}

// NewEdgeDevice creates a device node. sensor may be nil; when set, Locate
// reads the position locally instead of going through the agent pipeline.
func NewEdgeDevice(deviceID string, tp transport.Transport, wifiScanner scanner.WiFiScanner,
	sensor location.Provider, scanTimeout time.Duration, logger zerolog.Logger) *EdgeDevice {
	return &EdgeDevice{
		deviceID:    deviceID,
		transport:   tp,
		scanner:     wifiScanner,
		sensor:      sensor,
		scanTimeout: scanTimeout,
		logger:      logger,
		state:       StateIdle,
	}
}

// Start registers the device's transport handlers.
func (d *EdgeDevice) Start() error {
	if err := d.transport.OnMessage(TopicRequestScan(d.deviceID), d.handleScanRequest); err != nil {
		return fmt.Errorf("failed to register request-scan handler: %w", err)
	}
	if err := d.transport.OnMessage(TopicLocateResult(d.deviceID), d.handleLocateResult); err != nil {
		return fmt.Errorf("failed to register locate-result handler: %w", err)
	}
	d.logger.Info().Str("device_id", d.deviceID).Msg("EdgeDevice started")
	return nil
}

// Locate begins a device-initiated locate cycle: scan (or reuse the cached
// scan), forward the observations to the agent and wait for the pushed
// result. Calls while a cycle is in flight are silently ignored.
func (d *EdgeDevice) Locate(usePrevious bool, onComplete func()) {
	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		d.logger.Debug().Str("state", d.state.String()).Msg("Locate ignored, cycle already in flight")
		return
	}
	d.onComplete = onComplete
	d.state = StateAwaitingScan
	d.mu.Unlock()

	if d.sensor != nil {
		go d.locateFromSensor()
		return
	}
	go d.performScan(usePrevious)
}

// GetLocation returns the device's replica of the location.
func (d *EdgeDevice) GetLocation() (models.LocationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateIdle {
		return models.LocationResult{}, ErrLocateInProgress
	}
	if d.locErr != "" {
		return models.LocationResult{}, fmt.Errorf("last locate attempt failed: %s", d.locErr)
	}
	if d.location == nil {
		return models.LocationResult{}, ErrNotLocated
	}
	return *d.location, nil
}

// GetTimezone returns the device's replica of the timezone.
func (d *EdgeDevice) GetTimezone() (models.TimezoneResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateIdle {
		return models.TimezoneResult{}, ErrLocateInProgress
	}
	if d.timezone == nil {
		return models.TimezoneResult{}, ErrNoTimezone
	}
	return *d.timezone, nil
}

// handleScanRequest serves the agent's request-scan message. It behaves like
// a locally-initiated Locate, except no local callback is registered: the
// device is a pure relay in that direction.
func (d *EdgeDevice) handleScanRequest(payload []byte) {
	var req models.ScanRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		d.logger.Error().Err(err).Msg("Failed to parse request-scan payload")
		return
	}

	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		d.logger.Debug().Str("state", d.state.String()).Msg("Scan request ignored, cycle already in flight")
		return
	}
	d.state = StateAwaitingScan
	d.mu.Unlock()

	d.performScan(req.UsePrevious)
}

// handleLocateResult fills the local replicas from the agent's push, clears
// the in-flight state and fires the device's registered callback, if any.
// A pushed failure ends an in-flight cycle the same way a local one does.
func (d *EdgeDevice) handleLocateResult(payload []byte) {
	var result models.LocateResult
	if err := json.Unmarshal(payload, &result); err != nil {
		d.logger.Error().Err(err).Msg("Failed to parse locate-result payload")
		return
	}

	if result.Error != "" {
		d.mu.Lock()
		if d.state == StateIdle {
			// A failure for an agent-side cycle this device never joined;
			// the replica stays as it is.
			d.mu.Unlock()
			d.logger.Warn().Str("reason", result.Error).Msg("Agent reported a failed locate cycle")
			return
		}
		d.mu.Unlock()

		d.logger.Error().Str("reason", result.Error).Msg("Agent reported locate failure")
		d.fail(result.Error)
		return
	}

	d.mu.Lock()
	d.location = &models.LocationResult{
		Latitude:  result.Latitude,
		Longitude: result.Longitude,
		PlaceData: result.PlaceData,
	}
	if result.TimezoneData != nil {
		d.timezone = result.TimezoneData
	}
	d.locErr = ""
	d.state = StateDone

	cb := d.onComplete
	d.onComplete = nil
	d.state = StateIdle
	d.mu.Unlock()

	d.logger.Info().
		Float64("latitude", result.Latitude).
		Float64("longitude", result.Longitude).
		Msg("Locate result received from agent")

	if cb != nil {
		cb()
	}
}

// performScan produces observations (fresh or cached) and forwards them to
// the agent, then waits for the pushed result.
func (d *EdgeDevice) performScan(usePrevious bool) {
	d.mu.Lock()
	cached := d.cache
	d.mu.Unlock()

	networks := cached
	if !usePrevious || len(cached) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), d.scanTimeout)
		fresh, err := d.scanner.Scan(ctx)
		cancel()
		if err != nil {
			d.logger.Error().Err(err).Msg("WiFi scan failed")
			if len(cached) == 0 {
				d.fail("wifi scan failed")
				return
			}
			// Fall back to the cached observations.
			fresh = cached
		}
		networks = fresh
	}

	if len(networks) == 0 {
		// Terminal, no retry: nothing to geolocate against.
		d.logger.Error().Msg("No WiFi networks observed and no cached scan exists")
		d.fail(ErrNoNetworks.Error())
		return
	}

	d.mu.Lock()
	d.cache = networks
	d.state = StateAwaitingGeolocation
	d.mu.Unlock()

	payload, err := json.Marshal(models.ScanResult{Networks: networks})
	if err != nil {
		d.fail(err.Error())
		return
	}
	if err := d.transport.Send(TopicScanResult(d.deviceID), payload); err != nil {
		d.logger.Error().Err(err).Msg("Failed to forward scan result to agent")
		d.fail("failed to reach agent")
		return
	}
	d.logger.Debug().Int("networks", len(networks)).Msg("Scan result forwarded to agent")
}

// locateFromSensor fills the replica from the local GPS sensor, skipping the
// agent round-trip entirely.
func (d *EdgeDevice) locateFromSensor() {
	pos, err := d.sensor.GetPosition()
	if err != nil {
		d.logger.Error().Err(err).Msg("GPS sensor read failed")
		d.fail("gps sensor read failed")
		return
	}

	d.mu.Lock()
	d.location = &models.LocationResult{Latitude: pos.Latitude, Longitude: pos.Longitude}
	d.locErr = ""
	d.state = StateDone

	cb := d.onComplete
	d.onComplete = nil
	d.state = StateIdle
	d.mu.Unlock()

	d.logger.Info().
		Float64("latitude", pos.Latitude).
		Float64("longitude", pos.Longitude).
		Msg("Position read from GPS sensor")

	if cb != nil {
		cb()
	}
}

// fail terminates the current device-side cycle.
func (d *EdgeDevice) fail(reason string) {
	d.mu.Lock()
	d.locErr = reason
	d.state = StateFailed

	cb := d.onComplete
	d.onComplete = nil
	d.state = StateIdle
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
}
