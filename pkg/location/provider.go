package location

// Position is a raw geographic fix from a local sensor.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// Provider interface defines the methods for local position providers.
type Provider interface {
	GetPosition() (Position, error)
}
