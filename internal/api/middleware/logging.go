package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"video-qa/internal/app/common"
)

// StructuredLogging logs one line per request through the engine logger
func StructuredLogging(logger common.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			return
		}

		status := c.Writer.Status()
		fields := []interface{}{
			"requestID", c.GetString(RequestIDKey),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latencyMs", time.Since(start).Milliseconds(),
			"clientIP", c.ClientIP(),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, "error", msg)
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}
