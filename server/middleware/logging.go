package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
)

// RequestLogger returns a Gin middleware that logs every request with method,
// path, status code, and latency. Health-check paths are silently skipped.
func RequestLogger(log *logger.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("http")

	return func(c *gin.Context) {
		if isHealthEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":           c.Request.Method,
			logger.FieldPath:   path,
			logger.FieldStatus: status,
			"latency":          latency.String(),
			"client":           c.ClientIP(),
		}
		if status >= 500 {
			fields["size"] = c.Writer.Size()
		}
		if latency > 500*time.Millisecond {
			fields["slow"] = true
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Context(), c.Request.Method, route, status, latency)
		logByStatus(log.WithContext(c.Request.Context()), fields, status)
	}
}

func isHealthEndpoint(path string) bool {
	switch path {
	case "/health", "/info":
		return true
	}
	return false
}

// logByStatus logs request fields at the appropriate level based on HTTP status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
