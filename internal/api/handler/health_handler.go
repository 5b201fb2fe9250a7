package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health
// Responds 503 when any registered dependency check fails
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := make(gin.H, len(h.checks))

	for name, checker := range h.checks {
		if err := checker.HealthCheck(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":  state,
		"service": h.service,
		"checks":  checks,
	})
}
