package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/sparkmatch/sparkmatch/internal/errors"
)

// UserIDHeader carries the authenticated user ID. Authentication itself is
// handled upstream (gateway); this middleware only extracts and validates
// the identity it forwards.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// RequireUser rejects requests without a valid authenticated user ID and
// stores it on the gin context for handlers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			appErr := apperrors.NewAppError(apperrors.ErrorTypeAuthorization, "MISSING_USER", "missing user identity")
			appErr.HTTPStatus = http.StatusUnauthorized
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": appErr})
			return
		}
		if err := uuid.Validate(userID); err != nil {
			appErr := apperrors.NewValidationError("invalid user id")
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": appErr})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user ID set by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
