package workspaces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	invites     map[string]*models.WorkspaceInvite
	memberships map[uuid.UUID]*models.WorkspaceMembership // keyed by user id
	renamed     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invites:     make(map[string]*models.WorkspaceInvite),
		memberships: make(map[uuid.UUID]*models.WorkspaceMembership),
	}
}

func (f *fakeStore) Create(ctx context.Context, name string, wsType models.WorkspaceType) (*models.Workspace, error) {
	return &models.Workspace{ID: uuid.New(), Name: name, Type: wsType}, nil
}

func (f *fakeStore) Rename(ctx context.Context, id uuid.UUID, name string) error {
	f.renamed = true
	return nil
}

func (f *fakeStore) ListForUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.MembershipWithWorkspace, error) {
	return nil, nil
}

func (f *fakeStore) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]Member, error) {
	return nil, nil
}

func (f *fakeStore) CreateMembership(ctx context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole, status models.MembershipStatus) (*models.WorkspaceMembership, error) {
	m := &models.WorkspaceMembership{ID: uuid.New(), WorkspaceID: workspaceID, UserID: userID, Role: role, Status: status}
	f.memberships[userID] = m
	return m, nil
}

func (f *fakeStore) GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMembership, error) {
	return f.memberships[userID], nil
}

func (f *fakeStore) ActivateMembership(ctx context.Context, id uuid.UUID) error {
	for _, m := range f.memberships {
		if m.ID == id {
			if m.Status != models.MembershipInvited {
				return ErrNoTransition
			}
			m.Status = models.MembershipActive
			return nil
		}
	}
	return ErrNoTransition
}

func (f *fakeStore) DisableMembership(ctx context.Context, workspaceID, userID uuid.UUID) error {
	m := f.memberships[userID]
	if m == nil || m.Status == models.MembershipDisabled {
		return ErrNoTransition
	}
	m.Status = models.MembershipDisabled
	return nil
}

func (f *fakeStore) CreateInvite(ctx context.Context, workspaceID uuid.UUID, email string, role models.WorkspaceRole, createdBy uuid.UUID) (*models.WorkspaceInvite, error) {
	inv := &models.WorkspaceInvite{ID: uuid.New(), WorkspaceID: workspaceID, Email: email, Role: role, Token: uuid.New().String(), CreatedBy: createdBy}
	f.invites[inv.Token] = inv
	return inv, nil
}

func (f *fakeStore) GetInviteByToken(ctx context.Context, token string) (*models.WorkspaceInvite, error) {
	return f.invites[token], nil
}

func (f *fakeStore) MarkInviteUsed(ctx context.Context, id, usedBy uuid.UUID) error {
	for _, inv := range f.invites {
		if inv.ID == id {
			if inv.Used {
				return ErrNoTransition
			}
			inv.Used = true
			inv.UsedBy = &usedBy
			return nil
		}
	}
	return ErrNoTransition
}

func (f *fakeStore) UserIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	return uuid.Nil, nil
}

// testRouter wires the handler behind fixed claims and workspace context so
// the handler-level role checks are exercised in isolation.
func testRouter(h *Handler, userID uuid.UUID, ws *Context) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		claims := &auth.Claims{Email: "user@school.example", Role: models.RoleStaff}
		claims.Subject = userID.String()
		c.Set(auth.ContextClaims, claims)
		if ws != nil {
			c.Set(ContextWorkspace, ws)
		}
		c.Next()
	})
	r.PATCH("/workspaces/current", h.Rename)
	r.POST("/invites/:token/accept", h.AcceptInvite)
	r.DELETE("/workspaces/current/members/:id", h.DisableMember)
	return r
}

func TestRenameRequiresWorkspaceAdmin(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	userID := uuid.New()

	staff := &Context{WorkspaceID: uuid.New(), WorkspaceType: models.WorkspaceOrganization, Role: models.WorkspaceRoleStaff, Status: models.MembershipActive}
	r := testRouter(h, userID, staff)

	req := httptest.NewRequest(http.MethodPatch, "/workspaces/current", strings.NewReader(`{"name":"New Name"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, store.renamed)

	admin := &Context{WorkspaceID: staff.WorkspaceID, WorkspaceType: models.WorkspaceOrganization, Role: models.WorkspaceRoleOrgAdmin, Status: models.MembershipActive}
	r = testRouter(h, userID, admin)
	req = httptest.NewRequest(http.MethodPatch, "/workspaces/current", strings.NewReader(`{"name":"New Name"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.renamed)
}

func TestAcceptInviteIsSingleUse(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	userID := uuid.New()
	wsID := uuid.New()

	inv, err := store.CreateInvite(context.Background(), wsID, "user@school.example", models.WorkspaceRoleStaff, uuid.New())
	assert.NoError(t, err)

	r := testRouter(h, userID, nil)

	req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.Token+"/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	m := store.memberships[userID]
	assert.NotNil(t, m)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, models.WorkspaceRoleStaff, m.Role)

	// second accept of the same token
	req = httptest.NewRequest(http.MethodPost, "/invites/"+inv.Token+"/accept", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already used")
}

func TestAcceptInviteActivatesInvitedMembership(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	userID := uuid.New()
	wsID := uuid.New()

	_, err := store.CreateMembership(context.Background(), wsID, userID, models.WorkspaceRoleParticipant, models.MembershipInvited)
	assert.NoError(t, err)
	inv, err := store.CreateInvite(context.Background(), wsID, "user@school.example", models.WorkspaceRoleParticipant, uuid.New())
	assert.NoError(t, err)

	r := testRouter(h, userID, nil)
	req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.Token+"/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.MembershipActive, store.memberships[userID].Status)
}

func TestAcceptInviteRejectsDisabledMembership(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	userID := uuid.New()
	wsID := uuid.New()

	_, err := store.CreateMembership(context.Background(), wsID, userID, models.WorkspaceRoleParticipant, models.MembershipDisabled)
	assert.NoError(t, err)
	inv, err := store.CreateInvite(context.Background(), wsID, "user@school.example", models.WorkspaceRoleParticipant, uuid.New())
	assert.NoError(t, err)

	r := testRouter(h, userID, nil)
	req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.Token+"/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.MembershipDisabled, store.memberships[userID].Status)

	// the rejected accept must not consume the token
	assert.False(t, store.invites[inv.Token].Used)
}

func TestAcceptInviteRequiresInvitedEmail(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	userID := uuid.New()
	wsID := uuid.New()

	// claims carry user@school.example; the invite was issued elsewhere
	inv, err := store.CreateInvite(context.Background(), wsID, "someone-else@school.example", models.WorkspaceRoleStaff, uuid.New())
	assert.NoError(t, err)

	r := testRouter(h, userID, nil)
	req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.Token+"/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, store.memberships[userID])
	assert.False(t, store.invites[inv.Token].Used)

	// the comparison is case-insensitive
	upper, err := store.CreateInvite(context.Background(), wsID, "USER@School.Example", models.WorkspaceRoleStaff, uuid.New())
	assert.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/invites/"+upper.Token+"/accept", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.invites[upper.Token].Used)
}

func TestAcceptInviteUnknownToken(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	r := testRouter(h, uuid.New(), nil)

	req := httptest.NewRequest(http.MethodPost, "/invites/nope/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDisableMember(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, nil, zap.NewNop())
	actorID := uuid.New()
	targetID := uuid.New()
	wsID := uuid.New()

	_, err := store.CreateMembership(context.Background(), wsID, targetID, models.WorkspaceRoleParticipant, models.MembershipActive)
	assert.NoError(t, err)

	admin := &Context{WorkspaceID: wsID, WorkspaceType: models.WorkspaceOrganization, Role: models.WorkspaceRoleOrgAdmin, Status: models.MembershipActive}
	r := testRouter(h, actorID, admin)

	req := httptest.NewRequest(http.MethodDelete, "/workspaces/current/members/"+targetID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.MembershipDisabled, store.memberships[targetID].Status)

	// disabling is terminal; a repeat renders 404
	req = httptest.NewRequest(http.MethodDelete, "/workspaces/current/members/"+targetID.String(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// cannot disable yourself
	req = httptest.NewRequest(http.MethodDelete, "/workspaces/current/members/"+actorID.String(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
