package utils

import (
	"fmt"
	"time"

	"github.com/geolink/edge-locator/pkg/file"
)

// Roles a node can run as.
const (
	RoleAgent  = "agent"
	RoleDevice = "device"
)

// Config represents the structure of the configuration file.
type Config struct {
	Role string `yaml:"role"` // "agent" (relay node) or "device" (edge node)

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, empty for plain TCP
		QOS           int    `yaml:"qos"`            // QoS level for all locator topics
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Geo struct {
		APIKey              string `yaml:"api_key"`              // Single key reused for all three endpoints
		GeolocationKey      string `yaml:"geolocation_key"`      // Per-endpoint keys, override api_key
		GeocodingKey        string `yaml:"geocoding_key"`        //
		TimezoneKey         string `yaml:"timezone_key"`         //
		GeolocationEndpoint string `yaml:"geolocation_endpoint"` // Endpoint overrides, default to the public URLs
		GeocodingEndpoint   string `yaml:"geocoding_endpoint"`   //
		TimezoneEndpoint    string `yaml:"timezone_endpoint"`    //
	} `yaml:"geo"`

	Services struct {
		Locator struct {
			Interval          time.Duration `yaml:"interval"`        // Re-locate interval, 0 disables periodic locates
			UsePrevious       bool          `yaml:"use_previous"`    // Reuse cached observations on periodic locates
			ScanTimeout       time.Duration `yaml:"scan_timeout"`    // Per-scan timeout on the device
			SensorBased       bool          `yaml:"sensor_based"`    // Use the GPS sensor instead of the agent pipeline
			GPSDevicePort     string        `yaml:"gps_device_port"` // UNIX port where the GPS sensor is mounted
			GPSDeviceBaudRate int           `yaml:"gps_baud_rate"`   // Baud rate for the GPS sensor
		} `yaml:"locator"`

		Heartbeat struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for heartbeat messages
			Enabled  bool          `yaml:"enabled"`  // Enable/disable heartbeat service
			Interval time.Duration `yaml:"interval"` // Interval between heartbeats
		} `yaml:"heartbeat"`

		Metrics struct {
			Topic         string        `yaml:"topic"`          // MQTT topic for metrics messages
			Enabled       bool          `yaml:"enabled"`        // Enable/disable metrics service
			Interval      time.Duration `yaml:"interval"`       // Interval between metrics snapshots
			MonitorCPU    bool          `yaml:"monitor_cpu"`    // Collect CPU usage
			MonitorMemory bool          `yaml:"monitor_memory"` // Collect memory usage
		} `yaml:"metrics"`
	} `yaml:"services"`

	Logging struct {
		Debug bool `yaml:"debug"` // Enable debug-level logging
	} `yaml:"logging"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	if config.Role != RoleAgent && config.Role != RoleDevice {
		return nil, fmt.Errorf("invalid role %q: must be %q or %q", config.Role, RoleAgent, RoleDevice)
	}

	return &config, nil
}

// GeolocationKey returns the effective key for the geolocation endpoint.
func (c *Config) GeolocationKey() string {
	if c.Geo.GeolocationKey != "" {
		return c.Geo.GeolocationKey
	}
	return c.Geo.APIKey
}

// GeocodingKey returns the effective key for the geocoding endpoint.
func (c *Config) GeocodingKey() string {
	if c.Geo.GeocodingKey != "" {
		return c.Geo.GeocodingKey
	}
	return c.Geo.APIKey
}

// TimezoneKey returns the effective key for the timezone endpoint.
func (c *Config) TimezoneKey() string {
	if c.Geo.TimezoneKey != "" {
		return c.Geo.TimezoneKey
	}
	return c.Geo.APIKey
}
