// Package system reports service health and request performance.
package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fablecraft/backend/internal/infrastructure/monitor"
	"github.com/fablecraft/backend/internal/infrastructure/telemetry"
)

// HealthReporter exposes the cached health report
type HealthReporter interface {
	Report(ctx context.Context) monitor.Report
	Refresh(ctx context.Context) monitor.Report
}

// PerformanceSource exposes the request performance aggregate
type PerformanceSource interface {
	Report() telemetry.PerformanceReport
	Reset()
}

// Liveness is the short form of the health report
type Liveness struct {
	Status    monitor.Status `json:"status"`
	Version   string         `json:"version,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Service serves the system endpoints
type Service struct {
	health      HealthReporter
	performance PerformanceSource
	logger      *zap.Logger
}

// NewService creates a system service
func NewService(health HealthReporter, performance PerformanceSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{health: health, performance: performance, logger: logger}
}

// Health returns the detailed report. With fresh the checks run now
// instead of returning the scheduled result.
func (s *Service) Health(ctx context.Context, fresh bool) monitor.Report {
	if fresh {
		return s.health.Refresh(ctx)
	}
	return s.health.Report(ctx)
}

// Liveness summarises the cached report
func (s *Service) Liveness(ctx context.Context) Liveness {
	r := s.health.Report(ctx)
	return Liveness{Status: r.Status, Version: r.Version, Timestamp: r.CheckedAt}
}

// Performance returns the per-route latency report
func (s *Service) Performance() telemetry.PerformanceReport {
	return s.performance.Report()
}

// ResetPerformance clears the collected latencies
func (s *Service) ResetPerformance() {
	s.performance.Reset()
	s.logger.Info("Performance report reset")
}
