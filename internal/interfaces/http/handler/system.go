package handler

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	systemapp "github.com/fablecraft/backend/internal/application/system"
	"github.com/fablecraft/backend/internal/infrastructure/monitor"
	"github.com/fablecraft/backend/internal/infrastructure/telemetry"
	"github.com/fablecraft/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemUseCases is the system service as seen by the HTTP layer
type SystemUseCases interface {
	Health(ctx context.Context, fresh bool) monitor.Report
	Liveness(ctx context.Context) systemapp.Liveness
	Performance() telemetry.PerformanceReport
	ResetPerformance()
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	systemService SystemUseCases
	name          string
	version       string
	startTime     time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService SystemUseCases, name, version string) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
		name:          name,
		version:       version,
		startTime:     time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns the build and uptime of the process
// GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Liveness answers load balancer probes from the cached health report.
// Degraded still answers 200.
// GET /health
func (h *SystemHandler) Liveness(c *gin.Context) {
	live := h.systemService.Liveness(c.Request.Context())
	status := http.StatusOK
	if live.Status == monitor.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, live)
}

// Health returns every check. fresh=true runs the checks now.
// GET /system/health
func (h *SystemHandler) Health(c *gin.Context) {
	fresh, _ := strconv.ParseBool(c.Query("fresh"))
	report := h.systemService.Health(c.Request.Context(), fresh)

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: report.Healthy(), Data: report})
}

// Performance returns request latencies per route
// GET /system/performance
func (h *SystemHandler) Performance(c *gin.Context) {
	h.Success(c, h.systemService.Performance())
}

// ResetPerformance clears the latency aggregate
// DELETE /system/performance
func (h *SystemHandler) ResetPerformance(c *gin.Context) {
	h.systemService.ResetPerformance()
	h.NoContent(c)
}
