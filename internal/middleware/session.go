package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/pkg/response"
)

// Session extracts and verifies the session token from the Authorization
// header or the session cookie, placing verified claims into the context.
// It never aborts: admission decisions belong to the guard and to
// RequireSession, so public routes can share the chain. A tampered or
// expired token leaves the request fully unauthenticated.
func Session(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			c.Next()
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			c.Next()
			return
		}
		if _, ok := claims.UserID(); !ok {
			c.Next()
			return
		}
		c.Set(auth.ContextClaims, claims)
		c.Next()
	}
}

// RequireSession aborts with 401 when no valid session is present.
// Use after Session for authenticated routes without a role requirement.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.ClaimsFrom(c) == nil {
			response.Unauthorized(c, "missing or invalid session")
			c.Abort()
			return
		}
		c.Next()
	}
}

// tokenFromRequest prefers the Authorization bearer header and falls back to
// the session cookie.
func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1]
		}
		return ""
	}
	cookie, err := c.Cookie(auth.SessionCookie)
	if err != nil {
		return ""
	}
	return cookie
}
