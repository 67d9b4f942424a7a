package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/metrics"
)

// Logger logs request details and records request metrics
func Logger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, path, fmt.Sprintf("%d", status), latency.Seconds())

		evt := logger.
			WithField("method", c.Request.Method).
			WithField("path", path).
			WithField("status", status).
			WithField("duration", latency.String()).
			WithField("ip", c.ClientIP())

		if status >= 500 {
			evt.Error("Request failed")
		} else {
			evt.Info("Request handled")
		}
	}
}
