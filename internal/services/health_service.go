package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"sharkclean/internal/config"
	"sharkclean/internal/infrastructure"
	"sharkclean/pkg/contracts"
	"sharkclean/pkg/contracts/domain"
)

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// QueueStats reports job queue occupancy
type QueueStats interface {
	GetQueueStats() map[string]int
}

// HealthService provides health check functionality
type HealthService struct {
	paths     *config.Paths
	hub       ClientCounter
	queue     QueueStats
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64                    `json:"uptime_seconds"`
	RawFiles         int                        `json:"raw_files"`
	CleanFiles       int                        `json:"clean_files"`
	TotalSizeBytes   int64                      `json:"total_size_bytes"`
	WebSocketClients int                        `json:"websocket_clients"`
	Queue            map[string]int             `json:"queue,omitempty"`
	Runtime          infrastructure.SystemStats `json:"runtime"`
}

// NewHealthService creates a health service. hub and queue may be nil in
// tools that run without them.
func NewHealthService(paths *config.Paths, hub ClientCounter, queue QueueStats, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version),
		slog.String("data_dir", paths.DataDir))

	return &HealthService{
		paths:     paths,
		hub:       hub,
		queue:     queue,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
	hs.logger.DebugContext(ctx, "HealthCheck: completed", slog.String("status", status.Status))
	return status
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]interface{}),
	}

	checks := map[string]ServiceHealth{
		"websocket": hs.checkWebSocketHealth(),
		"jobs":      hs.checkQueueHealth(),
		"data":      hs.checkDataHealth(),
	}
	for name, check := range checks {
		status.Services[name] = check
		if check.Status != "ready" {
			status.Status = "not_ready"
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// VersionResponse is the body of GET /api/version
type VersionResponse struct {
	contracts.BuildInfo
	TimeCategories []domain.TimeCategory `json:"time_categories"`
	Uptime         float64               `json:"uptime_seconds"`
	StartTime      time.Time             `json:"start_time"`
}

// Version reports the build and the category codes this build emits
func (hs *HealthService) Version() VersionResponse {
	return VersionResponse{
		BuildInfo:      contracts.ReadBuildInfo(),
		TimeCategories: domain.AllTimeCategories,
		Uptime:         time.Since(hs.startTime).Seconds(),
		StartTime:      hs.startTime,
	}
}

// SystemStats returns data directory and runtime statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	rawFiles, rawSize := countFiles(hs.paths.RawDir)
	cleanFiles, cleanSize := countFiles(hs.paths.CleanDir)

	stats := SystemStats{
		UptimeSeconds:  time.Since(hs.startTime).Seconds(),
		RawFiles:       rawFiles,
		CleanFiles:     cleanFiles,
		TotalSizeBytes: rawSize + cleanSize,
		Runtime:        infrastructure.CollectSystemStats(hs.startTime),
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	if hs.queue != nil {
		stats.Queue = hs.queue.GetQueueStats()
	}
	return stats
}

func countFiles(dir string) (int, int64) {
	var n int
	var size int64
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
			size += info.Size()
		}
		return nil
	})
	return n, size
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "WebSocket hub not configured"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// checkQueueHealth reports not_ready when the queue has no free slot
func (hs *HealthService) checkQueueHealth() ServiceHealth {
	if hs.queue == nil {
		return ServiceHealth{Status: "not_ready", Message: "job queue not initialized"}
	}
	stats := hs.queue.GetQueueStats()
	if stats["capacity"] > 0 && stats["queued"] >= stats["capacity"] {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("job queue full (%d/%d)", stats["queued"], stats["capacity"]),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d queued, %d running", stats["queued"], stats["active_jobs"]),
	}
}

// checkDataHealth verifies the raw and clean directories are usable
func (hs *HealthService) checkDataHealth() ServiceHealth {
	if _, err := os.Stat(hs.paths.RawDir); os.IsNotExist(err) {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Raw data directory not found: %s", hs.paths.RawDir),
		}
	}

	tmp, err := os.CreateTemp(hs.paths.CleanDir, ".health-*")
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Cannot write to clean directory: %v", err),
		}
	}
	tmp.Close()
	os.Remove(tmp.Name())

	return ServiceHealth{Status: "ready", Message: "Data directories are writable"}
}
