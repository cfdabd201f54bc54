package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the authenticated user id, set by the upstream
// authentication proxy.
const UserIDHeader = "X-User-ID"

const userIDKey = "userID"

// RequireUser rejects requests without a user id and stores it on the context.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireCronSecret guards internal endpoints with a shared bearer token. An
// empty secret disables the endpoint entirely.
func RequireCronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
