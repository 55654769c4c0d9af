// Package monitor runs the periodic health checks behind /health.
package monitor

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Status of a check or the whole service
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one check
type CheckResult struct {
	Name      string         `json:"name"`
	Status    Status         `json:"status"`
	Critical  bool           `json:"critical"`
	Message   string         `json:"message,omitempty"`
	LatencyMs float64        `json:"latency_ms"`
	Details   map[string]any `json:"details,omitempty"`
}

// Check is a single health probe
type Check interface {
	Name() string
	// Critical checks make the service unhealthy when they fail;
	// the others only degrade it
	Critical() bool
	Run(ctx context.Context) CheckResult
}

// Pinger is satisfied by *persistence.Database and *sql.DB
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseCheck pings the primary database
type DatabaseCheck struct {
	db Pinger
}

// NewDatabaseCheck creates the critical database check
func NewDatabaseCheck(db Pinger) *DatabaseCheck {
	return &DatabaseCheck{db: db}
}

func (c *DatabaseCheck) Name() string   { return "database" }
func (c *DatabaseCheck) Critical() bool { return true }

func (c *DatabaseCheck) Run(ctx context.Context) CheckResult {
	return timed(c, func() (Status, string, map[string]any) {
		if err := c.db.Ping(ctx); err != nil {
			return StatusUnhealthy, err.Error(), nil
		}
		return StatusHealthy, "", nil
	})
}

// RedisCheck pings redis
type RedisCheck struct {
	client redis.UniversalClient
}

// NewRedisCheck creates the non-critical redis check
func NewRedisCheck(client redis.UniversalClient) *RedisCheck {
	return &RedisCheck{client: client}
}

func (c *RedisCheck) Name() string   { return "redis" }
func (c *RedisCheck) Critical() bool { return false }

func (c *RedisCheck) Run(ctx context.Context) CheckResult {
	return timed(c, func() (Status, string, map[string]any) {
		if err := c.client.Ping(ctx).Err(); err != nil {
			return StatusUnhealthy, err.Error(), nil
		}
		return StatusHealthy, "", nil
	})
}

// SystemCheck reports host memory, CPU and this process's footprint
type SystemCheck struct {
	memoryWarnPercent float64
	pid               int32
}

// NewSystemCheck degrades when host memory use exceeds warnPercent
func NewSystemCheck(warnPercent float64) *SystemCheck {
	return &SystemCheck{memoryWarnPercent: warnPercent, pid: int32(os.Getpid())}
}

func (c *SystemCheck) Name() string   { return "system" }
func (c *SystemCheck) Critical() bool { return false }

func (c *SystemCheck) Run(ctx context.Context) CheckResult {
	return timed(c, func() (Status, string, map[string]any) {
		details := map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"num_cpu":    runtime.NumCPU(),
		}

		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return StatusDegraded, "memory stats unavailable: " + err.Error(), details
		}
		details["memory_used_percent"] = round1(vm.UsedPercent)
		details["memory_total_mb"] = vm.Total >> 20

		if proc, err := process.NewProcessWithContext(ctx, c.pid); err == nil {
			if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
				details["process_rss_mb"] = info.RSS >> 20
			}
		}
		// zero interval compares against the previous call
		if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
			details["cpu_percent"] = round1(pct[0])
		}

		if c.memoryWarnPercent > 0 && vm.UsedPercent >= c.memoryWarnPercent {
			return StatusDegraded, fmt.Sprintf("memory usage %.1f%% over %.0f%%", vm.UsedPercent, c.memoryWarnPercent), details
		}
		return StatusHealthy, "", details
	})
}

func timed(c Check, fn func() (Status, string, map[string]any)) CheckResult {
	start := time.Now()
	status, msg, details := fn()
	return CheckResult{
		Name:      c.Name(),
		Status:    status,
		Critical:  c.Critical(),
		Message:   msg,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		Details:   details,
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
