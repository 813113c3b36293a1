package models

import "time"

// SystemMetrics represents the system metrics collected at a specific time.
type SystemMetrics struct {
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	CPUUsage  *float64  `json:"cpu_usage,omitempty"`
	Memory    *float64  `json:"memory,omitempty"`
}

// MetricsConfig selects which system metrics the metrics service collects.
type MetricsConfig struct {
	MonitorCPU    bool `yaml:"monitor_cpu"`
	MonitorMemory bool `yaml:"monitor_memory"`
}
