package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(m *Metrics, h *HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	RegisterRoutes(r, m, h)
	r.GET("/tasks/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestMetricsMiddleware_CountsByRoute(t *testing.T) {
	m := NewMetrics()
	r := setupRouter(m, NewHealthChecker(m))

	get(r, "/tasks/1")
	get(r, "/tasks/2")
	get(r, "/nowhere")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/tasks/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRequests))
}

func TestMetrics_CacheObserver(t *testing.T) {
	m := NewMetrics()

	m.CacheHit("l1")
	m.CacheHit("l1")
	m.CacheHit("l2")
	m.CacheMiss()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("l1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("l2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses))
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics()
	r := setupRouter(m, NewHealthChecker(m))

	get(r, "/tasks/1")
	w := get(r, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "task_tracker_http_requests_total"))
}

func TestHealthChecker_Run(t *testing.T) {
	h := NewHealthChecker(nil)
	h.Register("database", func(ctx context.Context) error { return nil })
	h.RegisterOptional("cache", func(ctx context.Context) error { return errors.New("redis down") })

	checks, err := h.Run(context.Background())
	require.NoError(t, err, "optional failures do not fail the run")
	require.Len(t, checks, 2)
	assert.Equal(t, "cache", checks[0].Name)
	assert.Equal(t, "degraded", checks[0].Status)
	assert.Equal(t, "redis down", checks[0].Message)
	assert.Equal(t, "healthy", checks[1].Status)

	h.Register("database", func(ctx context.Context) error { return errors.New("db down") })
	h.Register("disk", func(ctx context.Context) error { return errors.New("disk full") })

	_, err = h.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Contains(t, err.Error(), "disk full")
}

func TestHealthEndpoints(t *testing.T) {
	m := NewMetrics()
	h := NewHealthChecker(m)
	healthy := true
	h.Register("database", func(ctx context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("db down")
	})
	r := setupRouter(m, h)

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	assert.Equal(t, http.StatusOK, get(r, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(r, "/live").Code)

	healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(r, "/live").Code)
}
