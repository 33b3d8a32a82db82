package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultMaxBodySize = 1 << 20 // 1MB

// BodySizeLimit returns a Gin middleware that restricts the request body to
// the given size string (e.g. "1MB", "512KB").
func BodySizeLimit(maxSize string) gin.HandlerFunc {
	size := ParseSize(maxSize, defaultMaxBodySize)
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, size)
		c.Next()
	}
}

// ParseSize converts "10MB", "512KB", "1GB" or a plain byte count to bytes.
// Empty or unparsable input yields def.
func ParseSize(s string, def int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	units := []struct {
		suffix string
		mult   int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}}
	mult := int64(1)
	for _, u := range units {
		if trimmed, ok := strings.CutSuffix(s, u.suffix); ok {
			s, mult = strings.TrimSpace(trimmed), u.mult
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n * mult
}
