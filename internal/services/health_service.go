package services

import (
	"context"
	"log/slog"
	"time"

	"samarth/internal/dataset"
)

// HealthStatus reports service liveness and dataset cache readiness
type HealthStatus struct {
	Status         string    `json:"status"`
	DatasetsCached bool      `json:"datasets_cached"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

// HealthService provides health check functionality
type HealthService struct {
	loader  *dataset.Loader
	logger  *slog.Logger
	started time.Time
}

// NewHealthService creates a health service
func NewHealthService(loader *dataset.Loader, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		loader:  loader,
		logger:  logger.With(slog.String("component", "health_service")),
		started: time.Now(),
	}
}

// Status reports current health. The service is "ok" even before the dataset
// caches exist; readiness is reported separately so the UI can hint at a
// pending first fetch.
func (s *HealthService) Status(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:         "ok",
		DatasetsCached: s.loader.Ready(),
		UptimeSeconds:  time.Since(s.started).Seconds(),
		Timestamp:      time.Now().UTC(),
	}
}
