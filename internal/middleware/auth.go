package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/auth"
)

// UserIDKey is the context key holding the authenticated user's id.
const UserIDKey = "user_id"

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "code": "UNAUTHORIZED"})
			return
		}

		userID, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "UNAUTHORIZED"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth sets the user id when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if userID, err := tokens.Parse(raw); err == nil {
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// UserID returns the authenticated user's id, or 0 for anonymous requests.
func UserID(c *gin.Context) int {
	return c.GetInt(UserIDKey)
}
