package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck is one named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

const healthCheckTimeout = 3 * time.Second

func (h *Handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.health))

	for _, check := range h.health {
		if err := check.Check(ctx); err != nil {
			deps[check.Name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[check.Name] = "healthy"
		}
	}

	body := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}

	c.JSON(status, body)
}
