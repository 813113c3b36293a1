package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/geolink/edge-locator/internal/models"
	"github.com/geolink/edge-locator/pkg/identity"
	"github.com/geolink/edge-locator/pkg/transport"
)

// MetricsService handles system telemetry collection and publishing.
type MetricsService struct {
	pubTopic      string
	interval      time.Duration
	metricsConfig models.MetricsConfig
	deviceInfo    identity.DeviceInfoInterface
	transport     transport.Transport
	logger        zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMetricsService initializes and returns a new instance of MetricsService.
func NewMetricsService(pubTopic string, interval time.Duration, metricsConfig models.MetricsConfig,
	deviceInfo identity.DeviceInfoInterface, tp transport.Transport, logger zerolog.Logger) *MetricsService {

	return &MetricsService{
		pubTopic:      pubTopic,
		interval:      interval,
		metricsConfig: metricsConfig,
		deviceInfo:    deviceInfo,
		transport:     tp,
		logger:        logger,
	}
}

// Start initiates periodic metrics collection and publishing.
func (m *MetricsService) Start() error {
	if m.ctx != nil {
		m.logger.Warn().Msg("MetricsService is already running")
		return errors.New("metrics service is already running")
	}

	if !m.metricsConfig.MonitorCPU && !m.metricsConfig.MonitorMemory {
		return errors.New("metrics service is enabled but no metrics are selected")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runMetricsCollectionLoop()
	}()

	m.logger.Info().Str("topic", m.pubTopic).Msg("MetricsService started successfully")
	return nil
}

// Stop gracefully stops the metrics service.
func (m *MetricsService) Stop() error {
	if m.ctx == nil {
		m.logger.Warn().Msg("MetricsService is not running")
		return errors.New("metrics service is not running")
	}

	m.cancel()
	m.wg.Wait()

	m.ctx = nil
	m.cancel = nil

	m.logger.Info().Msg("MetricsService stopped successfully")
	return nil
}

// runMetricsCollectionLoop collects and publishes metrics at the configured interval.
func (m *MetricsService) runMetricsCollectionLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collectAndPublish()
		case <-m.ctx.Done():
			m.logger.Info().Msg("MetricsService stopping gracefully")
			return
		}
	}
}

// collectAndPublish gathers the selected metrics and publishes one snapshot.
func (m *MetricsService) collectAndPublish() {
	snapshot := models.SystemMetrics{
		Timestamp: time.Now(),
		DeviceID:  m.deviceInfo.GetDeviceID(),
	}

	if m.metricsConfig.MonitorCPU {
		if percentages, err := cpu.Percent(0, false); err != nil {
			m.logger.Error().Err(err).Msg("Failed to collect CPU usage")
		} else if len(percentages) > 0 {
			snapshot.CPUUsage = &percentages[0]
		}
	}

	if m.metricsConfig.MonitorMemory {
		if memStats, err := mem.VirtualMemory(); err != nil {
			m.logger.Error().Err(err).Msg("Failed to collect memory usage")
		} else {
			snapshot.Memory = &memStats.UsedPercent
		}
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to serialize metrics snapshot")
		return
	}

	if err := m.transport.Send(m.pubTopic, payload); err != nil {
		m.logger.Error().Err(err).Msg("Failed to publish metrics snapshot")
	} else {
		m.logger.Debug().Msg("Metrics snapshot published successfully")
	}
}
