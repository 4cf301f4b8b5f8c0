package api

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/service"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextIdentityKey holds the *domain.Identity of the request, nil for guests.
const ContextIdentityKey = "identity"

// OptionalAuthMiddleware resolves the identity a request acts for. A bearer token
// wins; without one the signed-in session identity is used, and without that the
// request runs as guest. A malformed or invalid token is rejected.
func OptionalAuthMiddleware(sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(ContextIdentityKey, sessions.Current())
			c.Next()
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		user, err := sessions.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		c.Set(ContextIdentityKey, user)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// getIdentityFromContext returns the request identity, nil for guests.
func getIdentityFromContext(c *gin.Context) *domain.Identity {
	raw, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	user, _ := raw.(*domain.Identity)
	return user
}

// getOwnerIDFromContext returns the id user-scoped records are stored under.
func getOwnerIDFromContext(c *gin.Context) string {
	return domain.OwnerID(getIdentityFromContext(c))
}
