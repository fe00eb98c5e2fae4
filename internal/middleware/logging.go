package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sparkmatch/sparkmatch/internal/telemetry"
)

// LoggingConfig holds the configuration for the request logging middleware.
type LoggingConfig struct {
	SkipPaths []string `json:"skip_paths"`
}

// DefaultLoggingConfig returns the default logging middleware configuration.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SkipPaths: []string{"/health"},
	}
}

// Logging logs every request with a correlation ID that is generated when
// the caller did not supply one, and propagated on the response and through
// the request context.
func Logging(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		start := time.Now()

		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = telemetry.NewCorrelationID()
		}
		c.Header("X-Correlation-ID", correlationID)

		ctx := telemetry.WithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)

		logger := telemetry.LogFromContext(ctx).WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"remote_ip": c.ClientIP(),
		})

		logger.Debug("Request started")

		c.Next()

		fields := logrus.Fields{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if userID := UserID(c); userID != "" {
			fields["user_id"] = userID
		}

		completed := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			completed.Error("Request failed")
		case c.Writer.Status() >= 400:
			completed.Warn("Request rejected")
		default:
			completed.Info("Request completed")
		}
	}
}
