package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/reflectus-app/backend/internal/models"
)

// ErrInvalidToken is returned for any token that cannot be fully trusted:
// bad signature, malformed structure, or expiry. Callers must treat all of
// these identically (fully unauthenticated).
var ErrInvalidToken = errors.New("invalid token")

// SessionCookie is the cookie fallback for the Authorization header.
const SessionCookie = "reflectus_session"

// DefaultTTL is the default session token lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// Claims are the enumerated session token fields. The legacy organization
// pair and the active-workspace pair are optional; when absent they stay
// absent and never default to a value implying access.
type Claims struct {
	Email         string      `json:"email"`
	Role          models.Role `json:"role"`
	OrgID         string      `json:"org_id,omitempty"`         // legacy tenant id
	OrgRole       string      `json:"org_role,omitempty"`       // legacy tenant role
	WorkspaceID   string      `json:"workspace_id,omitempty"`   // active workspace
	WorkspaceRole string      `json:"workspace_role,omitempty"` // role in active workspace
	jwt.RegisteredClaims
}

// UserID parses the token subject. Returns uuid.Nil and false for a
// missing or malformed subject.
func (c *Claims) UserID() (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// TokenService signs and verifies session tokens with a server-held HMAC
// secret. Tokens are stateless; the server holds no session table.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service. The secret is validated at config
// load; ttlDays <= 0 falls back to the 7-day default.
func NewTokenService(secret string, ttlDays int) *TokenService {
	ttl := DefaultTTL
	if ttlDays > 0 {
		ttl = time.Duration(ttlDays) * 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Sign produces a signed token for the claims. A zero ttl uses the service
// default. IssuedAt/ExpiresAt are always set here, never by the caller.
func (s *TokenService) Sign(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.New().String()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token. It fails closed: any signature
// mismatch, malformed structure, or expiry yields ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsAdminEmail reports whether email is on the admin allowlist
// (case-insensitive).
func IsAdminEmail(allowlist []string, email string) bool {
	for _, a := range allowlist {
		if strings.EqualFold(strings.TrimSpace(a), email) {
			return true
		}
	}
	return false
}
