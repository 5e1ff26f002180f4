package auth

import (
	"github.com/gin-gonic/gin"
)

// Gin context keys and CSRF transport names. They live here so both the
// middleware and the handlers share one definition without a package cycle.
const (
	// ContextClaims is the gin context key for verified session claims.
	ContextClaims = "session_claims"
	// CSRFCookie is the cookie half of the double-submit pair.
	CSRFCookie = "csrf-token"
	// CSRFHeader is the header half of the double-submit pair.
	CSRFHeader = "x-csrf-token"
)

// ClaimsFrom returns the verified session claims set by the session
// middleware, or nil when the request carried no valid token.
func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
