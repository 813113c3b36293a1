package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/geolink/edge-locator/internal/locator"
	"github.com/geolink/edge-locator/internal/service_registry"
	"github.com/geolink/edge-locator/internal/utils"
	"github.com/geolink/edge-locator/pkg/file"
	"github.com/geolink/edge-locator/pkg/geoservice"
	"github.com/geolink/edge-locator/pkg/identity"
	"github.com/geolink/edge-locator/pkg/location"
	"github.com/geolink/edge-locator/pkg/scanner"
	"github.com/geolink/edge-locator/pkg/transport"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Set up structured logging
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if config.Logging.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Initialize DeviceInfo
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device information")
	}
	deviceID := deviceInfo.GetDeviceID()
	if deviceID == "" {
		logger.Fatal().Str("device_file", config.Identity.DeviceFile).Msg("Device file carries no device id")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	clientID := config.MQTT.ClientID + "-" + uuid.New().String()
	logger.Info().Str("client_id", clientID).Str("role", config.Role).Msg("Starting edge locator")

	// Initialize the shared transport
	mqttTransport := transport.NewMQTTTransport(byte(config.MQTT.QOS), fileClient, logger)
	if err := mqttTransport.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT transport")
	}

	// Build the locator node for the configured role
	node, err := buildNode(config, deviceID, mqttTransport, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build locator node")
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttTransport, logger)
	serviceRegistry.RegisterServices(config, node, deviceInfo)

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop all services cleanly")
	}
	mqttTransport.Disconnect(250)
}

// buildNode constructs the EdgeAgent or EdgeDevice for the configured role.
func buildNode(config *utils.Config, deviceID string, tp transport.Transport, logger zerolog.Logger) (locator.Node, error) {
	switch config.Role {
	case utils.RoleAgent:
		// Missing keys make every provider call pointless, so this is the
		// one failure that aborts at construction time.
		keys, err := geoservice.NewAPIKeySet(config.GeolocationKey(), config.GeocodingKey(), config.TimezoneKey())
		if err != nil {
			return nil, err
		}

		endpoints := geoservice.DefaultEndpoints()
		if config.Geo.GeolocationEndpoint != "" {
			endpoints.Geolocation = config.Geo.GeolocationEndpoint
		}
		if config.Geo.GeocodingEndpoint != "" {
			endpoints.Geocoding = config.Geo.GeocodingEndpoint
		}
		if config.Geo.TimezoneEndpoint != "" {
			endpoints.Timezone = config.Geo.TimezoneEndpoint
		}

		geoClient := geoservice.NewHTTPClient(endpoints, keys, logger)
		return locator.NewEdgeAgent(deviceID, tp, geoClient, logger), nil

	case utils.RoleDevice:
		var sensor location.Provider
		if config.Services.Locator.SensorBased {
			sensor = location.NewDeviceSensorProvider(
				config.Services.Locator.GPSDevicePort,
				config.Services.Locator.GPSDeviceBaudRate,
			)
		}

		scanTimeout := config.Services.Locator.ScanTimeout * time.Second
		if scanTimeout == 0 {
			scanTimeout = 15 * time.Second
		}

		return locator.NewEdgeDevice(deviceID, tp, scanner.NewNmcliScanner(logger), sensor, scanTimeout, logger), nil
	}

	// LoadConfig already validated the role.
	return nil, nil
}
