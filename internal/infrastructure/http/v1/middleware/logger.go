package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"fiskalis/pkg/logger"
)

// Logger writes one access-log line per request after the handler
// chain finishes. Trace and user fields come from the context, so
// lines correlate with the service logs of the same request.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "error", errs)
		}

		log.WithContext(c.Request.Context()).Infow("http request", fields...)
	}
}
