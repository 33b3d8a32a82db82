package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/logger"
)

// ServiceKeyHeader carries the shared credential on service-to-service calls.
const ServiceKeyHeader = "X-Service-Token"

// RequireServiceKey guards internal routes with a shared service key.
// An empty key disables the check and the route relies on network isolation.
func RequireServiceKey(key string, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("service-auth")
	expected := []byte(key)

	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := []byte(c.GetHeader(ServiceKeyHeader))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			log.WithContext(c.Request.Context()).Warn("Service credential rejected", map[string]interface{}{
				logger.FieldPath: c.Request.URL.Path,
			})
			appErr := errors.Unauthorized("Unauthorized: Invalid service credential")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}
