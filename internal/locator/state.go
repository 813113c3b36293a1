package locator

import (
	"errors"
	"fmt"
)

// State tracks the progress of the node's current locate cycle. At most one
// cycle is in flight per node; every cycle ends back at StateIdle.
type State int

const (
	StateIdle State = iota
	StateAwaitingScan
	StateAwaitingGeolocation
	StateAwaitingPlace
	StateAwaitingTimezone
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingScan:
		return "awaiting-scan"
	case StateAwaitingGeolocation:
		return "awaiting-geolocation"
	case StateAwaitingPlace:
		return "awaiting-place"
	case StateAwaitingTimezone:
		return "awaiting-timezone"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Accessor errors. Terminal cycle failures are reported as their own error
// strings through the same channel.
var (
	ErrLocateInProgress = errors.New("location update in progress")
	ErrNotLocated       = errors.New("location not yet determined")
	ErrNoTimezone       = errors.New("timezone not yet determined")
	ErrNoNetworks       = errors.New("no networks available")
)
