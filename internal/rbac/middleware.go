package rbac

import (
	"net/http"

	"callpulse/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAdmin gates admin-only endpoints.
// Rules:
//   - Only token-authenticated callers qualify; the static service key
//     carries no user identity and is never an admin credential.
//   - ADMIN and SUPERADMIN both pass.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		method, err := auth.AuthMethod(c.Request.Context())
		if err != nil || method != auth.MethodToken {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   true,
				"message": "admin access requires a user token",
			})
			return
		}

		role, err := auth.Role(c.Request.Context())
		if err != nil || !IsAdmin(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   true,
				"message": "admin role required",
			})
			return
		}
		c.Next()
	}
}
