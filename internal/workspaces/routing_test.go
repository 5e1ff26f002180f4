package workspaces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/internal/middleware"
	"github.com/reflectus-app/backend/internal/models"
)

// countingLister counts membership-store reads so the tests can assert
// nothing is read before the admission checks pass.
type countingLister struct {
	calls       int
	memberships []models.MembershipWithWorkspace
}

func (l *countingLister) ListForUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.MembershipWithWorkspace, error) {
	l.calls++
	return l.memberships, nil
}

// newScopedRouter mirrors the server wiring for workspace-scoped mutations
// and the admin listing: session extraction first, then guard, then
// workspace resolution, then the handler.
func newScopedRouter(tokens *auth.TokenService, lister *countingLister, h *Handler) *gin.Engine {
	guard := middleware.NewGuard(middleware.GuardConfig{AdminEmails: []string{"admin@school.example"}})
	requireActive := RequireWorkspace(NewResolver(lister), true)

	r := gin.New()
	r.Use(middleware.Session(tokens))
	r.PATCH("/workspaces/current", guard.RequireRole(models.RoleStaff), requireActive, h.Rename)
	r.GET("/admin/users", guard.RequireRole(models.RoleAdmin), requireActive, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func signSession(t *testing.T, tokens *auth.TokenService, userID uuid.UUID, email string, role models.Role) string {
	t.Helper()
	claims := auth.Claims{Email: email, Role: role}
	claims.Subject = userID.String()
	token, err := tokens.Sign(claims, 0)
	require.NoError(t, err)
	return token
}

func activeMembership(wsID, userID uuid.UUID, role models.WorkspaceRole) models.MembershipWithWorkspace {
	now := time.Now()
	m := models.MembershipWithWorkspace{WorkspaceName: "Northside High", WorkspaceType: models.WorkspaceOrganization}
	m.ID = uuid.New()
	m.WorkspaceID = wsID
	m.UserID = userID
	m.Role = role
	m.Status = models.MembershipActive
	m.ActivatedAt = &now
	return m
}

// TestMutationChainOrder pins the middleware order on mutating routes: the
// CSRF check decides first, before session validation and before any
// membership-store read.
func TestMutationChainOrder(t *testing.T) {
	tokens := auth.NewTokenService("routing-test-secret", 1)
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	userID := uuid.New()
	wsID := uuid.New()

	lister := &countingLister{memberships: []models.MembershipWithWorkspace{
		activeMembership(wsID, userID, models.WorkspaceRoleOrgAdmin),
	}}
	r := newScopedRouter(tokens, lister, h)
	token := signSession(t, tokens, userID, "user@school.example", models.RoleStaff)

	// no session, no csrf pair: the csrf failure decides, not the missing
	// session, and the membership store is never touched
	req := httptest.NewRequest(http.MethodPatch, "/workspaces/current", strings.NewReader(`{"name":"Renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, lister.calls)

	// valid session but no csrf pair: still the csrf failure, still no read
	req = httptest.NewRequest(http.MethodPatch, "/workspaces/current", strings.NewReader(`{"name":"Renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, lister.calls)
	assert.False(t, store.renamed)

	// full chain: session + csrf pair + active admin membership
	csrf := uuid.New().String()
	req = httptest.NewRequest(http.MethodPatch, "/workspaces/current", strings.NewReader(`{"name":"Renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(auth.CSRFHeader, csrf)
	req.AddCookie(&http.Cookie{Name: auth.CSRFCookie, Value: csrf})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, lister.calls)
	assert.True(t, store.renamed)
}

// TestAdminListingRequiresMembership: the allowlist elevates the coarse role
// but never substitutes for workspace resolution, so an admin with zero
// memberships is rejected.
func TestAdminListingRequiresMembership(t *testing.T) {
	tokens := auth.NewTokenService("routing-test-secret", 1)
	h := NewHandler(newFakeStore(), nil, zap.NewNop())
	userID := uuid.New()

	lister := &countingLister{}
	r := newScopedRouter(tokens, lister, h)
	token := signSession(t, tokens, userID, "admin@school.example", models.RoleParticipant)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1, lister.calls)

	// with a membership the same call goes through
	lister.memberships = []models.MembershipWithWorkspace{
		activeMembership(uuid.New(), userID, models.WorkspaceRoleOrgAdmin),
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code) // sanity: no token, no access

	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
