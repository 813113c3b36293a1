package locator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/geolink/edge-locator/pkg/geoservice"
)

func TestClassifyFailure_MalformedBody_RetriesAfterFixedDelay(t *testing.T) {
	err := &geoservice.DecodeError{HTTPStatus: 200, Err: errors.New("body is not valid JSON")}

	c := classifyFailure(err, time.Now())

	assert.Equal(t, actionRetry, c.Action)
	assert.Equal(t, 60*time.Second, c.Delay)
}

func TestClassifyFailure_ServerError_RetriesAfterFixedDelay(t *testing.T) {
	err := &geoservice.APIError{HTTPStatus: 503}

	c := classifyFailure(err, time.Now())

	assert.Equal(t, actionRetry, c.Action)
	assert.Equal(t, 60*time.Second, c.Delay)
}

func TestClassifyFailure_RateLimited_RetriesAfterShortDelay(t *testing.T) {
	err := &geoservice.APIError{HTTPStatus: 403, ProviderCode: 403, ProviderReason: "userRateLimitExceeded"}

	c := classifyFailure(err, time.Now())

	assert.Equal(t, actionRetry, c.Action)
	assert.Equal(t, 10*time.Second, c.Delay)
}

func TestClassifyFailure_DailyLimit_WaitsUntilMidnight(t *testing.T) {
	err := &geoservice.APIError{HTTPStatus: 403, ProviderCode: 403, ProviderReason: "dailyLimitExceeded"}
	now := time.Date(2026, 8, 24, 22, 45, 0, 0, time.UTC)

	c := classifyFailure(err, now)

	assert.Equal(t, actionRetry, c.Action)
	assert.Equal(t, 2*time.Hour, c.Delay) // (24 - 22) * 3600 seconds
}

func TestClassifyFailure_InvalidKey_IsTerminal(t *testing.T) {
	err := &geoservice.APIError{HTTPStatus: 400, ProviderCode: 400, ProviderReason: "keyInvalid"}

	c := classifyFailure(err, time.Now())

	assert.Equal(t, actionFail, c.Action)
	assert.Contains(t, c.Reason, "keyInvalid")
}

func TestClassifyFailure_ParseError_IsTerminal(t *testing.T) {
	err := &geoservice.APIError{HTTPStatus: 400, ProviderCode: 400, ProviderReason: "parseError"}

	c := classifyFailure(err, time.Now())

	assert.Equal(t, actionFail, c.Action)
}

func TestClassifyFailure_UnrecognizedProviderError_IsTerminal(t *testing.T) {
	// 4xx codes other than 400/403 have no recovery path; failing the cycle
	// beats leaving it stalled forever.
	err := &geoservice.APIError{HTTPStatus: 404}

	c := classifyFailure(err, time.Now())

	assert.Equal(t, actionFail, c.Action)
}

func TestClassifyFailure_UnknownErrorShape_IsTerminal(t *testing.T) {
	c := classifyFailure(errors.New("context deadline exceeded"), time.Now())

	assert.Equal(t, actionFail, c.Action)
}
