package location

import (
	"bufio"
	"errors"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// DeviceSensorProvider reads position fixes from a GPS device connected via
// serial port.
type DeviceSensorProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	return &DeviceSensorProvider{
		port:     port,
		baudRate: baudRate,
	}
}

// GetPosition reads GPS data from the device and returns the first valid fix.
func (d *DeviceSensorProvider) GetPosition() (Position, error) {
	c := &serial.Config{Name: d.port, Baud: d.baudRate}
	s, err := serial.OpenPort(c)
	if err != nil {
		return Position{}, err
	}
	defer s.Close()

	scanner := bufio.NewScanner(s)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "$GPGGA") { // GGA sentences carry the fix
			sentence, err := nmea.Parse(line)
			if err != nil {
				return Position{}, err
			}

			if gga, ok := sentence.(nmea.GGA); ok {
				return Position{
					Latitude:  gga.Latitude,
					Longitude: gga.Longitude,
					Accuracy:  float64(gga.HDOP), // HDOP as a proxy for accuracy
				}, nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return Position{}, err
	}

	return Position{}, errors.New("no valid GPS data found")
}
