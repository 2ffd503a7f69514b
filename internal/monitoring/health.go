package monitoring

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultCheckTimeout = 5 * time.Second

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

// HealthChecker runs its registered checks on every request. Optional
// checks are reported but never make the service unready.
type HealthChecker struct {
	mu       sync.RWMutex
	checks   map[string]HealthCheckFunc
	optional map[string]bool
	timeout  time.Duration
	metrics  *Metrics
}

func NewHealthChecker(metrics *Metrics) *HealthChecker {
	return &HealthChecker{
		checks:   make(map[string]HealthCheckFunc),
		optional: make(map[string]bool),
		timeout:  defaultCheckTimeout,
		metrics:  metrics,
	}
}

func (h *HealthChecker) Register(name string, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
	delete(h.optional, name)
}

func (h *HealthChecker) RegisterOptional(name string, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
	h.optional[name] = true
}

// Run executes every check concurrently. The returned error aggregates the
// failures of required checks.
func (h *HealthChecker) Run(ctx context.Context) ([]HealthCheck, error) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheckFunc, len(h.checks))
	optional := make(map[string]bool, len(h.optional))
	for name, fn := range h.checks {
		checks[name] = fn
		optional[name] = h.optional[name]
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]HealthCheck, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			result := HealthCheck{Name: name, Status: "healthy", LastRun: time.Now()}
			if err := checks[name](ctx); err != nil {
				result.Status = "unhealthy"
				if optional[name] {
					result.Status = "degraded"
				}
				result.Message = err.Error()
				errs[i] = err
			}
			results[i] = result
		}(i, name)
	}
	wg.Wait()

	var result *multierror.Error
	for i, err := range errs {
		if err != nil && !optional[names[i]] {
			result = multierror.Append(result, err)
		}
	}
	return results, result.ErrorOrNil()
}

func (h *HealthChecker) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, err := h.Run(c.Request.Context())

		status := http.StatusOK
		overall := "healthy"
		if err != nil {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}

		response := gin.H{
			"status":    overall,
			"timestamp": time.Now(),
			"checks":    checks,
		}
		if h.metrics != nil {
			response["uptime"] = h.metrics.Uptime().String()
		}
		c.JSON(status, response)
	}
}

func (h *HealthChecker) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := h.Run(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"message":   err.Error(),
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

func MetricsHandler(m *Metrics) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
}

// RegisterRoutes mounts /health, /ready, /live and /metrics.
func RegisterRoutes(r gin.IRoutes, m *Metrics, h *HealthChecker) {
	r.GET("/health", h.HealthHandler())
	r.GET("/ready", h.ReadinessHandler())
	r.GET("/live", LivenessHandler())
	r.GET("/metrics", MetricsHandler(m))
}
