package telemetry

import (
	"sort"
	"sync"
	"time"
)

const slowestRoutesReported = 5

// routeStats keeps a ring of the latest durations for one route
type routeStats struct {
	method string
	route  string
	count  int64
	errors int64
	total  time.Duration
	max    time.Duration
	window []time.Duration
	next   int
	full   bool
}

func (s *routeStats) add(d time.Duration, isError bool) {
	s.count++
	s.total += d
	if isError {
		s.errors++
	}
	if d > s.max {
		s.max = d
	}
	s.window[s.next] = d
	s.next++
	if s.next == len(s.window) {
		s.next = 0
		s.full = true
	}
}

func (s *routeStats) samples() []time.Duration {
	n := s.next
	if s.full {
		n = len(s.window)
	}
	out := make([]time.Duration, n)
	copy(out, s.window[:n])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RouteReport summarises one route
type RouteReport struct {
	Method     string  `json:"method"`
	Route      string  `json:"route"`
	Count      int64   `json:"count"`
	ErrorCount int64   `json:"error_count"`
	AvgMs      float64 `json:"avg_ms"`
	P50Ms      float64 `json:"p50_ms"`
	P95Ms      float64 `json:"p95_ms"`
	P99Ms      float64 `json:"p99_ms"`
	MaxMs      float64 `json:"max_ms"`
	Slow       bool    `json:"slow"`
}

// PerformanceReport is the aggregate over every route
type PerformanceReport struct {
	Since         time.Time     `json:"since"`
	TotalRequests int64         `json:"total_requests"`
	TotalErrors   int64         `json:"total_errors"`
	AvgMs         float64       `json:"avg_ms"`
	Routes        []RouteReport `json:"routes"`
	SlowestRoutes []RouteReport `json:"slowest_routes"`
}

// PerformanceAggregator collects per-route latencies. Each route keeps at
// most windowSize recent samples for the percentiles; counts and averages
// cover every request since the last reset.
type PerformanceAggregator struct {
	mu            sync.Mutex
	windowSize    int
	slowThreshold time.Duration
	routes        map[string]*routeStats
	since         time.Time
	now           func() time.Time
}

// NewPerformanceAggregator creates an aggregator
func NewPerformanceAggregator(windowSize int, slowThreshold time.Duration) *PerformanceAggregator {
	if windowSize < 1 {
		windowSize = 500
	}
	a := &PerformanceAggregator{
		windowSize:    windowSize,
		slowThreshold: slowThreshold,
		routes:        make(map[string]*routeStats),
		now:           time.Now,
	}
	a.since = a.now()
	return a
}

// Record adds one request. Status 5xx counts as an error.
func (a *PerformanceAggregator) Record(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	key := method + " " + route

	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.routes[key]
	if !ok {
		s = &routeStats{method: method, route: route, window: make([]time.Duration, a.windowSize)}
		a.routes[key] = s
	}
	s.add(d, status >= 500)
}

// Report computes the current summary
func (a *PerformanceAggregator) Report() PerformanceReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	report := PerformanceReport{
		Since:  a.since,
		Routes: make([]RouteReport, 0, len(a.routes)),
	}
	var total time.Duration
	for _, s := range a.routes {
		samples := s.samples()
		rr := RouteReport{
			Method:     s.method,
			Route:      s.route,
			Count:      s.count,
			ErrorCount: s.errors,
			AvgMs:      ms(s.total) / float64(s.count),
			P50Ms:      ms(percentile(samples, 50)),
			P95Ms:      ms(percentile(samples, 95)),
			P99Ms:      ms(percentile(samples, 99)),
			MaxMs:      ms(s.max),
		}
		rr.Slow = a.slowThreshold > 0 && percentile(samples, 95) >= a.slowThreshold
		report.Routes = append(report.Routes, rr)
		report.TotalRequests += s.count
		report.TotalErrors += s.errors
		total += s.total
	}
	if report.TotalRequests > 0 {
		report.AvgMs = ms(total) / float64(report.TotalRequests)
	}

	sort.Slice(report.Routes, func(i, j int) bool {
		if report.Routes[i].Route == report.Routes[j].Route {
			return report.Routes[i].Method < report.Routes[j].Method
		}
		return report.Routes[i].Route < report.Routes[j].Route
	})

	slowest := make([]RouteReport, len(report.Routes))
	copy(slowest, report.Routes)
	sort.SliceStable(slowest, func(i, j int) bool { return slowest[i].P95Ms > slowest[j].P95Ms })
	if len(slowest) > slowestRoutesReported {
		slowest = slowest[:slowestRoutesReported]
	}
	report.SlowestRoutes = slowest
	return report
}

// Reset drops every sample and restarts the window
func (a *PerformanceAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes = make(map[string]*routeStats)
	a.since = a.now()
}

// percentile uses nearest rank on sorted samples
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
