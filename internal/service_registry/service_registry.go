package service_registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/geolink/edge-locator/internal/locator"
	"github.com/geolink/edge-locator/internal/models"
	"github.com/geolink/edge-locator/internal/services"
	"github.com/geolink/edge-locator/internal/utils"
	"github.com/geolink/edge-locator/pkg/identity"
	"github.com/geolink/edge-locator/pkg/transport"
)

// Service is the interface for all plug-in services.
type Service interface {
	Start() error
	Stop() error
}

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]Service // Stores registered services
	serviceKeys []string           // Maintains order of service registration
	transport   transport.Transport
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(tp transport.Transport, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:  make(map[string]Service),
		transport: tp,
		Logger:    logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
// The locator node is always registered; heartbeat and metrics are optional.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, node locator.Node, deviceInfo identity.DeviceInfoInterface) {
	sr.RegisterService("locator", services.NewLocatorService(
		node,
		config.Services.Locator.Interval*time.Second,
		config.Services.Locator.UsePrevious,
		sr.Logger,
	))

	if config.Services.Heartbeat.Enabled {
		sr.RegisterService("heartbeat", services.NewHeartbeatService(
			config.Services.Heartbeat.Topic,
			config.Services.Heartbeat.Interval*time.Second,
			deviceInfo,
			sr.transport,
			sr.Logger,
		))
	}

	if config.Services.Metrics.Enabled {
		sr.RegisterService("metrics", services.NewMetricsService(
			config.Services.Metrics.Topic,
			config.Services.Metrics.Interval*time.Second,
			models.MetricsConfig{
				MonitorCPU:    config.Services.Metrics.MonitorCPU,
				MonitorMemory: config.Services.Metrics.MonitorMemory,
			},
			deviceInfo,
			sr.transport,
			sr.Logger,
		))
	}
}
