package monitoring

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// CheckFunc performs a single named health check.
type CheckFunc func(ctx context.Context) error

// HealthChecker aggregates named checks into a /health response.
type HealthChecker struct {
	service string
	version string

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		service: service,
		version: version,
		checks:  make(map[string]CheckFunc),
	}
}

func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Handler returns a gin handler that runs every registered check with a
// bounded deadline and reports per-check status.
func (h *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		h.mu.RLock()
		checks := make(map[string]CheckFunc, len(h.checks))
		for name, check := range h.checks {
			checks[name] = check
		}
		h.mu.RUnlock()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				results[name] = "ok"
			}
		}

		healthy := "healthy"
		if status != http.StatusOK {
			healthy = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":  healthy,
			"service": h.service,
			"version": h.version,
			"checks":  results,
		})
	}
}

// DatabaseHealthCheck pings the database connection.
func DatabaseHealthCheck(db *sql.DB) CheckFunc {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// ConfigurationHealthCheck verifies that required configuration values are set.
func ConfigurationHealthCheck(required map[string]string) CheckFunc {
	return func(ctx context.Context) error {
		for name, value := range required {
			if value == "" {
				return &MissingConfigError{Name: name}
			}
		}
		return nil
	}
}

type MissingConfigError struct {
	Name string
}

func (e *MissingConfigError) Error() string {
	return "missing required configuration: " + e.Name
}
