package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	serviceKeyHeader    = "X-API-Key"
)

// RequireAuth verifies the caller and injects identity into the request
// context. Verification order:
//  1. Bearer access token, if the Authorization header is present.
//  2. Static service key via X-API-Key, compared in constant time.
//  3. Otherwise 401.
//
// A present-but-invalid bearer token still falls through to the service
// key check, so a service caller may send both headers safely.
func RequireAuth(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if strings.HasPrefix(raw, bearerPrefix) {
			tok := strings.TrimPrefix(raw, bearerPrefix)
			claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
			if err == nil {
				attach(c, claims.UserID, claims.Email, claims.Role, MethodToken)
				c.Next()
				return
			}
		}

		key := c.GetHeader(serviceKeyHeader)
		if m.serviceKey != "" && key != "" &&
			subtle.ConstantTimeCompare([]byte(key), []byte(m.serviceKey)) == 1 {
			attach(c, "", "", "", MethodServiceKey)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   true,
			"message": "authentication required",
		})
	}
}

func attach(c *gin.Context, userID, email, role string, method Method) {
	ctx := WithIdentity(c.Request.Context(), userID, email, role, method)
	c.Request = c.Request.WithContext(ctx)

	// Also store on gin context for handler convenience.
	c.Set("user_id", userID)
	c.Set("email", email)
	c.Set("role", role)
	c.Set("auth_method", string(method))
}
