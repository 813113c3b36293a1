package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/geolink/edge-locator/internal/models"
)

func TestNewTimezoneResult_OffsetFormatting(t *testing.T) {
	now := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC) // unix 1700000000

	tz := models.NewTimezoneResult(now, -28800, 3600)

	assert.Equal(t, -25200, tz.GmtOffsetSeconds)
	assert.Equal(t, "GMT-7", tz.OffsetLabel)
	assert.Equal(t, int64(1700000000-25200), tz.EpochTime)
	assert.Equal(t, "2023-11-14 15:13:20", tz.LocalDateLabel)
}

func TestNewTimezoneResult_PositiveOffsetTruncatesToWholeHours(t *testing.T) {
	now := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	// India: UTC+5:30 truncates to GMT+5.
	tz := models.NewTimezoneResult(now, 19800, 0)

	assert.Equal(t, 19800, tz.GmtOffsetSeconds)
	assert.Equal(t, "GMT+5", tz.OffsetLabel)
}

func TestNewTimezoneResult_ZeroOffset(t *testing.T) {
	now := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	tz := models.NewTimezoneResult(now, 0, 0)

	assert.Equal(t, "GMT+0", tz.OffsetLabel)
	assert.Equal(t, now.Unix(), tz.EpochTime)
	assert.Equal(t, "2023-11-14 22:13:20", tz.LocalDateLabel)
}
