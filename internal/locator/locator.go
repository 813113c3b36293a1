package locator

import (
	"github.com/geolink/edge-locator/internal/models"
)

// Node is the role-independent locator surface exposed to the host
// application. Both EdgeAgent and EdgeDevice implement it; the role is fixed
// at construction and the two halves cooperate only through the transport.
type Node interface {
	// Start registers the node's transport handlers.
	Start() error

	// Locate begins a locate cycle. Safe to call at any time; a call while
	// a cycle is in flight is a silent no-op.
	Locate(usePrevious bool, onComplete func())

	// GetLocation and GetTimezone are pure reads against the node's own
	// copy of the results. They return either a well-formed result or an
	// error, never both and never neither.
	GetLocation() (models.LocationResult, error)
	GetTimezone() (models.TimezoneResult, error)
}

var (
	_ Node = (*EdgeAgent)(nil)
	_ Node = (*EdgeDevice)(nil)
)
