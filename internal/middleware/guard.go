package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/internal/models"
	"github.com/reflectus-app/backend/pkg/response"
)

// GuardConfig carries the guard's injected dependencies. The admin allowlist
// is a constructor parameter (not read from globals) so tests can substitute
// it.
type GuardConfig struct {
	AdminEmails []string
}

// Guard is the single admission decision for state-changing and sensitive
// endpoints: CSRF double-submit, origin check, session presence, and coarse
// role, in that strict order. Guards are pure precondition checks: nothing
// is persisted before every check passes.
type Guard struct {
	cfg GuardConfig
}

// NewGuard creates a guard.
func NewGuard(cfg GuardConfig) *Guard {
	return &Guard{cfg: cfg}
}

// GuardOption adjusts a single RequireRole invocation.
type GuardOption func(*guardOpts)

type guardOpts struct {
	requireLegacyOrg bool
}

// WithLegacyOrg demands legacy-organization claims in the session; their
// absence yields 401 (the token predates the legacy context or was issued
// without it).
func WithLegacyOrg() GuardOption {
	return func(o *guardOpts) { o.requireLegacyOrg = true }
}

// RequireRole returns middleware enforcing the admission checks for the
// given coarse role. The admin role implicitly satisfies any lesser
// requirement. Check order is fixed and non-skippable:
//
//  1. non-safe methods: CSRF cookie/header pair (403, before anything else)
//  2. non-safe methods: declared Origin matches serving host (403)
//  3. session presence + coarse role (401 / 403)
//  4. legacy-org context when demanded (401)
func (g *Guard) RequireRole(role models.Role, opts ...GuardOption) gin.HandlerFunc {
	var o guardOpts
	for _, opt := range opts {
		opt(&o)
	}
	return func(c *gin.Context) {
		if !isSafeMethod(c.Request.Method) {
			if !csrfPairValid(c) {
				response.Forbidden(c, "csrf token missing or mismatched")
				c.Abort()
				return
			}
			if !originMatchesHost(c.Request) {
				response.Forbidden(c, "origin not allowed")
				c.Abort()
				return
			}
		}

		claims := auth.ClaimsFrom(c)
		if claims == nil {
			response.Unauthorized(c, "missing or invalid session")
			c.Abort()
			return
		}

		effective := claims.Role
		if auth.IsAdminEmail(g.cfg.AdminEmails, claims.Email) {
			effective = models.RoleAdmin
		}
		if !effective.Satisfies(role) {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}

		if o.requireLegacyOrg && (claims.OrgID == "" || claims.OrgRole == "") {
			response.Unauthorized(c, "legacy organization context required")
			c.Abort()
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// csrfPairValid implements the double-submit contract: the csrf-token cookie
// value must literally equal the x-csrf-token header value.
func csrfPairValid(c *gin.Context) bool {
	cookie, err := c.Cookie(auth.CSRFCookie)
	if err != nil || cookie == "" {
		return false
	}
	header := c.GetHeader(auth.CSRFHeader)
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) == 1
}

// originMatchesHost accepts requests without an Origin header (non-browser
// clients) and otherwise requires the origin host to equal the serving host.
func originMatchesHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
