// Package middleware provides the HTTP middleware of the fablecraft API.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests no route matched, keeping label cardinality bounded
const unmatchedRoute = "unmatched"

// RequestObserver receives one observation per finished request
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// InFlightTracker counts requests being served
type InFlightTracker interface {
	RequestStarted() func()
}

// PerformanceRecorder feeds the in-process performance report
type PerformanceRecorder interface {
	Record(method, route string, status int, d time.Duration)
}

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// Observer exports request counts and latency, usually to Prometheus
	Observer RequestObserver
	// InFlight tracks concurrent requests; optional
	InFlight InFlightTracker
	// Performance keeps per-route latency windows; optional
	Performance PerformanceRecorder
	// SkipPaths are not measured
	SkipPaths []string
}

// DefaultHTTPMetricsConfig does not measure the scrape and probe endpoints
func DefaultHTTPMetricsConfig() HTTPMetricsConfig {
	return HTTPMetricsConfig{SkipPaths: []string{"/metrics", "/health"}}
}

// HTTPMetrics measures each request by its route pattern
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok || (cfg.Observer == nil && cfg.Performance == nil) {
			c.Next()
			return
		}

		if cfg.InFlight != nil {
			done := cfg.InFlight.RequestStarted()
			defer done()
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := getRoutePattern(c)
		method := c.Request.Method
		status := c.Writer.Status()

		if cfg.Observer != nil {
			cfg.Observer.ObserveRequest(method, route, status, elapsed)
		}
		if cfg.Performance != nil {
			cfg.Performance.Record(method, route, status, elapsed)
		}
	}
}

// getRoutePattern returns the registered pattern, e.g. /api/v1/projects/:id
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
