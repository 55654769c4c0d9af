package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics("fabletest")

	done := m.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))

	m.ObserveRequest("GET", "/api/v1/projects", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/projects", 200, 40*time.Millisecond)
	m.ObserveGeneration("generate", "ok")
	m.ObserveCache(true)
	m.ObserveCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/projects", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aiRequests.WithLabelValues("generate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("fabletest")
	m.ObserveRequest("POST", "/api/v1/auth/login", 401, time.Millisecond)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, m.RegisterDB(db, "fablecraft"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `fabletest_http_requests_total{method="POST",route="/api/v1/auth/login",status="401"} 1`)
	assert.Contains(t, body, "fabletest_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
	assert.True(t, strings.Contains(body, "go_sql_open_connections"))
}

