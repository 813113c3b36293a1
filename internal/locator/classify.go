package locator

import (
	"errors"
	"time"

	"github.com/geolink/edge-locator/pkg/geoservice"
)

// recoveryAction is the policy decision for a failed provider call.
type recoveryAction int

const (
	// actionRetry re-runs the failing stage after Delay. State stays in its
	// current Awaiting phase and no callback fires. Retries are unlimited;
	// intermittent network noise is expected to clear on its own.
	actionRetry recoveryAction = iota

	// actionFail aborts the cycle. A bad key or rejected request never
	// becomes valid by waiting.
	actionFail
)

const (
	transientRetryDelay = 60 * time.Second
	rateLimitRetryDelay = 10 * time.Second
)

// Provider reason strings from the error envelope.
const (
	reasonKeyInvalid    = "keyInvalid"
	reasonUserRateLimit = "userRateLimitExceeded"
	reasonDailyLimit    = "dailyLimitExceeded"
)

// classification is the outcome of classifying one failed provider call.
type classification struct {
	Action recoveryAction
	Delay  time.Duration
	Reason string
}

// classifyFailure maps a provider-client error to its recovery policy.
//
// Unrecognized error shapes (4xx codes other than 400/403, unexpected
// envelope contents) are classified terminal rather than left stalled, so a
// cycle always reaches Done or Failed.
func classifyFailure(err error, now time.Time) classification {
	var decodeErr *geoservice.DecodeError
	if errors.As(err, &decodeErr) {
		return classification{Action: actionRetry, Delay: transientRetryDelay, Reason: "malformed provider response"}
	}

	var apiErr *geoservice.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatus >= 500:
			return classification{Action: actionRetry, Delay: transientRetryDelay, Reason: "provider server error"}

		case apiErr.ProviderCode == 403 && apiErr.ProviderReason == reasonUserRateLimit:
			return classification{Action: actionRetry, Delay: rateLimitRetryDelay, Reason: "rate limited"}

		case apiErr.ProviderCode == 403 && apiErr.ProviderReason == reasonDailyLimit:
			return classification{Action: actionRetry, Delay: untilMidnight(now), Reason: "daily quota exhausted"}

		case apiErr.ProviderCode == 400:
			// keyInvalid, parseError and every other 400 reason.
			return classification{Action: actionFail, Reason: "provider rejected request: " + apiErr.ProviderReason}

		default:
			return classification{Action: actionFail, Reason: "unclassified provider error"}
		}
	}

	return classification{Action: actionFail, Reason: err.Error()}
}

// untilMidnight computes the wait for a daily quota reset from the current
// hour: (24 - hour) whole hours.
func untilMidnight(now time.Time) time.Duration {
	return time.Duration(24-now.Hour()) * time.Hour
}
