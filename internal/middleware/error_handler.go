package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/sparkmatch/sparkmatch/internal/errors"
	"github.com/sparkmatch/sparkmatch/internal/telemetry"
)

// Recovery converts panics into a logged internal error response instead of
// tearing down the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				ctx := c.Request.Context()
				correlationID := telemetry.GetCorrelationID(ctx)

				telemetry.LogFromContext(ctx).WithFields(logrus.Fields{
					"panic_value": fmt.Sprintf("%v", r),
					"stack_trace": string(debug.Stack()),
					"path":        c.Request.URL.Path,
				}).Error("Panic recovered in handler")

				appErr := apperrors.NewInternalError("internal server error", nil).
					WithCorrelationID(correlationID)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": appErr})
			}
		}()

		c.Next()
	}
}

// RenderError writes err as a JSON error response. Unknown error values are
// wrapped as internal errors so raw messages never leak to callers.
func RenderError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)

	if appErr.CorrelationID == "" {
		appErr = appErr.WithCorrelationID(telemetry.GetCorrelationID(c.Request.Context()))
	}

	if appErr.Type == apperrors.ErrorTypeDatabase || appErr.Type == apperrors.ErrorTypeInternal {
		telemetry.LogFromContext(c.Request.Context()).WithError(err).WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
		}).Error("Request failed with internal error")
	}

	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr})
}
