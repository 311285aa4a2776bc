// Package auth guards the HTTP surfaces with a static bearer token.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// BearerTokenAuth checks the Authorization header against a configured token.
// An empty token disables the check.
type BearerTokenAuth struct {
	token string
}

// NewBearerTokenAuth creates a bearer token authenticator
func NewBearerTokenAuth(token string) *BearerTokenAuth {
	return &BearerTokenAuth{token: token}
}

// Enabled reports whether a token is configured
func (b *BearerTokenAuth) Enabled() bool {
	return b.token != ""
}

// IsAuthorized validates the bearer token of r
func (b *BearerTokenAuth) IsAuthorized(r *http.Request) bool {
	if !b.Enabled() {
		return true
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return false
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(b.token)) == 1
}

// Middleware rejects unauthorized gin requests with 401
func (b *BearerTokenAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !b.IsAuthorized(c.Request) {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// Wrap guards a plain http.Handler, such as the MCP endpoint
func (b *BearerTokenAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.IsAuthorized(r) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
