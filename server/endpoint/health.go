package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/version"
)

// Health returns a handler that reports service health including component
// statuses. Any component that is down turns the response into a 503.
func Health(serviceName string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := observability.NewServiceHealth(serviceName, version.Version)
		for _, checker := range checkers {
			health.AddComponent(checker.CheckHealth(c.Request.Context()))
		}

		status := http.StatusOK
		if health.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	}
}
