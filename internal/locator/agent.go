package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/geolink/edge-locator/internal/models"
	"github.com/geolink/edge-locator/pkg/geoservice"
	"github.com/geolink/edge-locator/pkg/transport"
)

// EdgeAgent is the relay-node half of the locator. It owns the provider
// credentials, drives the three-stage pipeline against the external services
// and holds the authoritative location and timezone results. The device's
// copies are replicas pushed over the transport.
type EdgeAgent struct {
	deviceID  string
	transport transport.Transport
	geoClient geoservice.Client
	logger    zerolog.Logger

	mu         sync.Mutex
	state      State
	cache      []models.NetworkObservation
	location   *models.LocationResult
	timezone   *models.TimezoneResult
	locErr     string
	tzErr      string
	tzOnly     bool
	onComplete func()

	// Injectable for tests.
	now      func() time.Time
	schedule func(d time.Duration, f func()) *time.Timer
}

// NewEdgeAgent creates an agent for the given device id. Handlers are not
// registered until Start.
func NewEdgeAgent(deviceID string, tp transport.Transport, geoClient geoservice.Client, logger zerolog.Logger) *EdgeAgent {
	return &EdgeAgent{
		deviceID:  deviceID,
		transport: tp,
		geoClient: geoClient,
		logger:    logger,
		state:     StateIdle,
		now:       time.Now,
		schedule:  time.AfterFunc,
	}
}

// Start registers the agent's transport handlers.
func (a *EdgeAgent) Start() error {
	if err := a.transport.OnMessage(TopicScanResult(a.deviceID), a.handleScanResult); err != nil {
		return fmt.Errorf("failed to register scan-result handler: %w", err)
	}
	a.logger.Info().Str("device_id", a.deviceID).Msg("EdgeAgent started")
	return nil
}

// Locate begins a locate cycle. While a cycle is in flight further calls are
// silently ignored; callers poll the accessors or rely on onComplete, which
// fires exactly once per cycle with no arguments.
func (a *EdgeAgent) Locate(usePrevious bool, onComplete func()) {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		a.logger.Debug().Str("state", a.state.String()).Msg("Locate ignored, cycle already in flight")
		return
	}
	a.onComplete = onComplete
	a.tzOnly = false

	if usePrevious && len(a.cache) > 0 {
		// Cached observations let the agent skip the device round-trip.
		a.state = StateAwaitingGeolocation
		networks := a.cache
		a.mu.Unlock()
		go a.runGeolocation(networks)
		return
	}

	a.state = StateAwaitingScan
	a.mu.Unlock()

	payload, err := json.Marshal(models.ScanRequest{UsePrevious: usePrevious})
	if err != nil {
		a.fail(err.Error())
		return
	}
	if err := a.transport.Send(TopicRequestScan(a.deviceID), payload); err != nil {
		a.logger.Error().Err(err).Msg("Failed to request scan from device")
		a.fail("failed to reach device")
		return
	}
	a.logger.Debug().Bool("use_previous", usePrevious).Msg("Scan requested from device")
}

// LocateTimezone runs the timezone stage alone against the last known
// coordinates, without disturbing the stored location. It shares the
// at-most-one-in-flight guard with Locate.
func (a *EdgeAgent) LocateTimezone(onComplete func()) {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		a.logger.Debug().Str("state", a.state.String()).Msg("LocateTimezone ignored, cycle already in flight")
		return
	}
	if a.location == nil {
		a.mu.Unlock()
		a.logger.Warn().Msg("LocateTimezone ignored, no location to derive timezone from")
		if onComplete != nil {
			onComplete()
		}
		return
	}
	a.onComplete = onComplete
	a.tzOnly = true
	a.state = StateAwaitingTimezone
	loc := *a.location
	a.mu.Unlock()

	go a.runTimezone(loc)
}

// GetLocation returns the authoritative location, or an error while a cycle
// is in flight, after a terminal failure, or before the first success.
func (a *EdgeAgent) GetLocation() (models.LocationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateIdle {
		return models.LocationResult{}, ErrLocateInProgress
	}
	if a.locErr != "" {
		return models.LocationResult{}, fmt.Errorf("last locate attempt failed: %s", a.locErr)
	}
	if a.location == nil {
		return models.LocationResult{}, ErrNotLocated
	}
	return *a.location, nil
}

// GetTimezone returns the derived timezone. Its staleness is tracked
// independently of the location: a failed timezone stage does not block a
// fresh location read, and vice versa.
func (a *EdgeAgent) GetTimezone() (models.TimezoneResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateIdle {
		return models.TimezoneResult{}, ErrLocateInProgress
	}
	if a.tzErr != "" {
		return models.TimezoneResult{}, fmt.Errorf("last timezone attempt failed: %s", a.tzErr)
	}
	if a.timezone == nil {
		return models.TimezoneResult{}, ErrNoTimezone
	}
	return *a.timezone, nil
}

// handleScanResult receives observations from the device and enters the
// pipeline. The cycle may be one this agent requested or one the device
// started on its own; either way the device is now waiting for a push on the
// locate-result topic.
func (a *EdgeAgent) handleScanResult(payload []byte) {
	var res models.ScanResult
	if err := json.Unmarshal(payload, &res); err != nil {
		a.logger.Error().Err(err).Msg("Failed to parse scan-result payload")
		return
	}

	a.mu.Lock()
	if len(res.Networks) > 0 {
		a.cache = res.Networks
	}

	switch a.state {
	case StateAwaitingScan:
		// The scan this agent requested.
	case StateIdle:
		// Device-initiated cycle; no local callback is involved.
		a.onComplete = nil
		a.tzOnly = false
	default:
		// Mid-pipeline delivery only refreshes the cache.
		a.mu.Unlock()
		return
	}

	if len(a.cache) == 0 {
		// Terminal: an empty scan with no cache cannot be retried into
		// existence.
		a.mu.Unlock()
		a.logger.Error().Msg("Device reported no WiFi networks and no cached scan exists")
		a.fail(ErrNoNetworks.Error())
		return
	}

	a.state = StateAwaitingGeolocation
	networks := a.cache
	a.mu.Unlock()

	a.runGeolocation(networks)
}

// fail terminates the current cycle. The failure reason is surfaced through
// the accessors, never as a panic or returned error to the host. Location
// cycles additionally push the reason to the device so a device-initiated
// cycle is not left waiting for a result that will never arrive.
func (a *EdgeAgent) fail(reason string) {
	a.mu.Lock()
	tzOnly := a.tzOnly
	if tzOnly {
		a.tzErr = reason
	} else {
		a.locErr = reason
	}
	a.tzOnly = false
	a.state = StateFailed

	cb := a.onComplete
	a.onComplete = nil
	a.state = StateIdle
	a.mu.Unlock()

	if !tzOnly {
		payload, err := json.Marshal(models.LocateResult{Error: reason})
		if err != nil {
			a.logger.Error().Err(err).Msg("Failed to serialize locate failure payload")
		} else if err := a.transport.Send(TopicLocateResult(a.deviceID), payload); err != nil {
			a.logger.Error().Err(err).Msg("Failed to push locate failure to device")
		}
	}

	if cb != nil {
		cb()
	}
}

// finish completes the current cycle, pushes the result to the device and
// fires the completion callback exactly once.
func (a *EdgeAgent) finish(loc models.LocationResult, tz *models.TimezoneResult) {
	a.mu.Lock()
	if !a.tzOnly {
		a.location = &loc
		a.locErr = ""
	}
	if tz != nil {
		a.timezone = tz
	}
	a.tzErr = ""
	a.tzOnly = false
	a.state = StateDone

	// Clear the stored callback before invoking it so a re-entrant Locate
	// from inside the callback starts from a clean slate.
	cb := a.onComplete
	a.onComplete = nil
	a.state = StateIdle
	a.mu.Unlock()

	result := models.LocateResult{
		Latitude:     loc.Latitude,
		Longitude:    loc.Longitude,
		PlaceData:    loc.PlaceData,
		TimezoneData: tz,
	}
	payload, err := json.Marshal(result)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to serialize locate-result payload")
	} else if err := a.transport.Send(TopicLocateResult(a.deviceID), payload); err != nil {
		a.logger.Error().Err(err).Msg("Failed to push locate-result to device")
	}

	a.logger.Info().
		Float64("latitude", loc.Latitude).
		Float64("longitude", loc.Longitude).
		Bool("timezone_set", tz != nil).
		Msg("Locate cycle completed")

	if cb != nil {
		cb()
	}
}

// handleStageFailure applies the recovery policy for a failed provider call.
// Transient failures re-run the same stage after the classified delay with
// the state left in its current Awaiting phase.
func (a *EdgeAgent) handleStageFailure(stage State, err error, retry func()) {
	c := classifyFailure(err, a.now())
	switch c.Action {
	case actionRetry:
		a.logger.Warn().
			Err(err).
			Str("stage", stage.String()).
			Dur("retry_in", c.Delay).
			Msg("Transient provider failure, stage will be retried")
		a.schedule(c.Delay, retry)
	case actionFail:
		a.logger.Error().
			Err(err).
			Str("stage", stage.String()).
			Msg("Terminal provider failure, aborting locate cycle")
		a.fail(c.Reason)
	}
}

// pipelineContext bounds a single provider call.
func (a *EdgeAgent) pipelineContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
