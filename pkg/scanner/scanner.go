package scanner

import (
	"context"

	"github.com/geolink/edge-locator/internal/models"
)

// WiFiScanner produces the WiFi access points currently visible to the node.
type WiFiScanner interface {
	Scan(ctx context.Context) ([]models.NetworkObservation, error)
}
