// Package health implements the /health, /health/ready, and /health/live
// endpoints, adapted from the teacher's backend/pkg/health package.
package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Status is the JSON body returned by the aggregate health endpoint.
type Status struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is one named health check's outcome.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker performs a single health check.
type Checker func() CheckResult

// Config configures the aggregate health handler.
type Config struct {
	ServiceName string
	Version     string
	Checks      map[string]Checker
}

// Handler returns a gin handler running every configured check.
func Handler(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := Status{
			Status:  "healthy",
			Service: cfg.ServiceName,
			Version: cfg.Version,
			Uptime:  time.Since(startTime).String(),
			Checks:  make(map[string]CheckResult),
		}

		allHealthy := true
		for name, checker := range cfg.Checks {
			result := checker()
			status.Checks[name] = result
			if result.Status != "healthy" {
				allHealthy = false
			}
		}

		if !allHealthy {
			status.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// ReadinessHandler returns a simple readiness probe.
func ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// LivenessHandler returns a simple liveness probe.
func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	}
}
