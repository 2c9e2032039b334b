package services

import (
	"context"
	"os"
	"runtime"
	"time"
)

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    float64                `json:"uptime_seconds"`
	Checks    map[string]string      `json:"checks,omitempty"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	dataDir   string
	clients   ClientCounter
	startTime time.Time
}

// NewHealthService creates a health service. clients may be nil.
func NewHealthService(version, dataDir string, clients ClientCounter) *HealthService {
	return &HealthService{
		version:   version,
		dataDir:   dataDir,
		clients:   clients,
		startTime: time.Now(),
	}
}

// HealthCheck reports "ok" when the data directory is readable and "degraded" otherwise.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Seconds(),
		Checks:    map[string]string{},
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}

	if info, err := os.Stat(hs.dataDir); err != nil || !info.IsDir() {
		status.Status = "degraded"
		status.Checks["data_dir"] = "unavailable"
	} else {
		status.Checks["data_dir"] = "ok"
	}

	if hs.clients != nil {
		status.Runtime["websocket_clients"] = hs.clients.ClientCount()
	}

	return status
}
