package system

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fablecraft/backend/internal/infrastructure/monitor"
	"github.com/fablecraft/backend/internal/infrastructure/telemetry"
)

type stubCheck struct {
	name     string
	critical bool
	status   monitor.Status
	runs     int
}

func (c *stubCheck) Name() string   { return c.name }
func (c *stubCheck) Critical() bool { return c.critical }
func (c *stubCheck) Run(context.Context) monitor.CheckResult {
	c.runs++
	return monitor.CheckResult{Name: c.name, Status: c.status, Critical: c.critical}
}

func TestService_Health(t *testing.T) {
	db := &stubCheck{name: "database", critical: true, status: monitor.StatusHealthy}
	mon := monitor.New(monitor.Config{CheckTimeout: time.Second, Version: "1.2.3"}, nil, db)
	svc := NewService(mon, telemetry.NewPerformanceAggregator(10, time.Second), nil)

	report := svc.Health(context.Background(), false)
	assert.Equal(t, monitor.StatusHealthy, report.Status)
	assert.Equal(t, 1, db.runs)

	// cached
	svc.Health(context.Background(), false)
	assert.Equal(t, 1, db.runs)

	db.status = monitor.StatusUnhealthy
	report = svc.Health(context.Background(), true)
	assert.Equal(t, 2, db.runs)
	assert.Equal(t, monitor.StatusUnhealthy, report.Status)

	live := svc.Liveness(context.Background())
	assert.Equal(t, monitor.StatusUnhealthy, live.Status)
	assert.Equal(t, "1.2.3", live.Version)
	assert.False(t, live.Timestamp.IsZero())
}

func TestService_Performance(t *testing.T) {
	perf := telemetry.NewPerformanceAggregator(10, time.Second)
	mon := monitor.New(monitor.Config{CheckTimeout: time.Second}, nil)
	svc := NewService(mon, perf, nil)

	perf.Record("GET", "/api/v1/projects", 200, 20*time.Millisecond)
	perf.Record("GET", "/api/v1/projects", 500, 40*time.Millisecond)

	report := svc.Performance()
	assert.Equal(t, int64(2), report.TotalRequests)
	assert.Equal(t, int64(1), report.TotalErrors)

	svc.ResetPerformance()
	assert.Equal(t, int64(0), svc.Performance().TotalRequests)
}
