package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report is the aggregated health of the service
type Report struct {
	Status    Status        `json:"status"`
	Version   string        `json:"version,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	Uptime    string        `json:"uptime"`
	Checks    []CheckResult `json:"checks"`
}

// Healthy reports whether the service can take traffic. Degraded counts.
func (r Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// Monitor caches the latest report and refreshes it on a cron schedule
type Monitor struct {
	checks       []Check
	schedule     string
	checkTimeout time.Duration
	version      string
	logger       *zap.Logger
	started      time.Time
	now          func() time.Time

	mu     sync.RWMutex
	last   *Report
	cron   *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc
}

// Config for a Monitor
type Config struct {
	Schedule     string
	CheckTimeout time.Duration
	Version      string
}

// New creates a monitor over the given checks
func New(cfg Config, logger *zap.Logger, checks ...Check) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 30s"
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 3 * time.Second
	}
	return &Monitor{
		checks:       checks,
		schedule:     cfg.Schedule,
		checkTimeout: cfg.CheckTimeout,
		version:      cfg.Version,
		logger:       logger.Named("monitor"),
		started:      time.Now(),
		now:          time.Now,
	}
}

// Start runs the checks once and then on the schedule
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.cron != nil {
		m.mu.Unlock()
		return nil
	}
	m.runCtx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c := cron.New()
	if _, err := c.AddFunc(m.schedule, func() { m.Refresh(m.runCtx) }); err != nil {
		m.cancel()
		m.mu.Unlock()
		return fmt.Errorf("invalid monitor schedule %q: %w", m.schedule, err)
	}
	m.cron = c
	m.mu.Unlock()

	m.Refresh(ctx)
	c.Start()
	m.logger.Info("Health monitor started", zap.String("schedule", m.schedule), zap.Int("checks", len(m.checks)))
	return nil
}

// Stop halts the schedule and waits for a running refresh or ctx
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	cancel := m.cancel
	m.mu.Unlock()
	if c == nil {
		return nil
	}

	cancel()
	select {
	case <-c.Stop().Done():
		m.logger.Info("Health monitor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Report returns the cached report, running the checks when none exists
func (m *Monitor) Report(ctx context.Context) Report {
	m.mu.RLock()
	last := m.last
	m.mu.RUnlock()
	if last != nil {
		return *last
	}
	return m.Refresh(ctx)
}

// Refresh runs every check concurrently and caches the result
func (m *Monitor) Refresh(ctx context.Context) Report {
	results := make([]CheckResult, len(m.checks))

	g, gctx := errgroup.WithContext(ctx)
	for i, check := range m.checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, m.checkTimeout)
			defer cancel()
			results[i] = check.Run(cctx)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:    aggregate(results),
		Version:   m.version,
		CheckedAt: m.now(),
		Uptime:    m.now().Sub(m.started).Round(time.Second).String(),
		Checks:    results,
	}

	m.mu.Lock()
	prev := m.last
	m.last = &report
	m.mu.Unlock()

	if prev == nil || prev.Status != report.Status {
		level := zap.InfoLevel
		if report.Status != StatusHealthy {
			level = zap.WarnLevel
		}
		m.logger.Log(level, "Health status changed", zap.String("status", string(report.Status)))
	}
	return report
}

func aggregate(results []CheckResult) Status {
	status := StatusHealthy
	for _, r := range results {
		if r.Status == StatusHealthy {
			continue
		}
		if r.Critical && r.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		status = StatusDegraded
	}
	return status
}
