package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the upstream identity provider.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleSuperadmin = "superadmin"

	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

// Identity rejects requests that carry no user id.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing user identity"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole))))
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) string { return c.GetString(ctxUserID) }

func isSuperadmin(c *gin.Context) bool { return c.GetString(ctxUserRole) == RoleSuperadmin }
