package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docintake-backend/internal/shared/auth"
	"docintake-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// Auth resolves an optional caller identity from a bearer token. A missing
// Authorization header leaves the request anonymous; a present but invalid
// token is rejected.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Sub)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		c.Next()
	}
}

// RequireIdentity rejects anonymous requests. Used by the audit and
// failed-upload surfaces, which are scoped to a caller.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFromContext(c) == nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the caller identity, or nil for anonymous requests.
func IdentityFromContext(c *gin.Context) *auth.Identity {
	if c == nil {
		return nil
	}
	val, _ := c.Get(userIDKey)
	userID, ok := val.(string)
	if !ok || userID == "" {
		return nil
	}
	identity := &auth.Identity{UserID: userID}
	if raw, ok := c.Get(userEmailKey); ok {
		if email, ok := raw.(string); ok {
			identity.Email = email
		}
	}
	return identity
}
