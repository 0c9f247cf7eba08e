package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"classtrack/internal/httpx"
)

const claimsKey = "claims"

// Require enforces bearer JWT tokens signed with HS256 and stores the
// claims on the request context.
func Require(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			httpx.FailStatus(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			httpx.FailStatus(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole allows only callers whose token carries one of the given
// roles. It must run after Require.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CallerClaims(c)
		if !ok {
			httpx.FailStatus(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		httpx.FailStatus(c, http.StatusForbidden, "insufficient role")
		c.Abort()
	}
}

// CallerClaims returns the parsed claims set by Require.
func CallerClaims(c *gin.Context) (Claims, bool) {
	val, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := val.(Claims)
	return claims, ok
}

// CallerID returns the authenticated caller's user id.
func CallerID(c *gin.Context) string {
	claims, _ := CallerClaims(c)
	return claims.Subject
}
