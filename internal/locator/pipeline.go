package locator

import (
	"github.com/geolink/edge-locator/internal/models"
)

// The three pipeline stages run strictly in order; each stage only starts
// after the previous stage's response was handled. Intermediate results
// travel through the call chain rather than shared fields, so a retried
// stage always re-runs with the inputs it originally had.

// runGeolocation resolves coordinates from the observations (stage 1).
func (a *EdgeAgent) runGeolocation(networks []models.NetworkObservation) {
	ctx, cancel := a.pipelineContext()
	defer cancel()

	coords, err := a.geoClient.Geolocate(ctx, networks)
	if err != nil {
		a.handleStageFailure(StateAwaitingGeolocation, err, func() { a.runGeolocation(networks) })
		return
	}

	loc := models.LocationResult{Latitude: coords.Latitude, Longitude: coords.Longitude}

	a.mu.Lock()
	a.state = StateAwaitingPlace
	a.mu.Unlock()

	a.runGeocode(loc)
}

// runGeocode attaches the provider's reverse-geocoding payload (stage 2).
// The place data is opaque to this layer; an empty result list is not an
// error.
func (a *EdgeAgent) runGeocode(loc models.LocationResult) {
	ctx, cancel := a.pipelineContext()
	defer cancel()

	place, err := a.geoClient.ReverseGeocode(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		a.handleStageFailure(StateAwaitingPlace, err, func() { a.runGeocode(loc) })
		return
	}
	if len(place) > 0 && string(place) != "null" {
		loc.PlaceData = place
	}

	a.mu.Lock()
	a.state = StateAwaitingTimezone
	a.mu.Unlock()

	a.runTimezone(loc)
}

// runTimezone derives the local-time data for the coordinates (stage 3).
// A non-OK provider status leaves the timezone unset without failing the
// cycle: location success is independent of timezone success.
func (a *EdgeAgent) runTimezone(loc models.LocationResult) {
	ctx, cancel := a.pipelineContext()
	defer cancel()

	now := a.now()
	offsets, err := a.geoClient.Timezone(ctx, loc.Latitude, loc.Longitude, now.Unix())
	if err != nil {
		a.handleStageFailure(StateAwaitingTimezone, err, func() { a.runTimezone(loc) })
		return
	}

	var tz *models.TimezoneResult
	if offsets.Status == "OK" {
		derived := models.NewTimezoneResult(now, offsets.RawOffset, offsets.DSTOffset)
		tz = &derived
	} else {
		a.logger.Warn().Str("status", offsets.Status).Msg("Timezone lookup returned non-OK status, leaving timezone unset")
	}

	a.finish(loc, tz)
}
