package workspaces

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectus-app/backend/internal/models"
)

type fakeLister struct {
	memberships []models.MembershipWithWorkspace
	err         error
}

func (f *fakeLister) ListForUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.MembershipWithWorkspace, error) {
	return f.memberships, f.err
}

func membership(wsType models.WorkspaceType, role models.WorkspaceRole, status models.MembershipStatus, activated *time.Time) models.MembershipWithWorkspace {
	m := models.MembershipWithWorkspace{
		WorkspaceType: wsType,
		WorkspaceName: "ws",
	}
	m.ID = uuid.New()
	m.WorkspaceID = uuid.New()
	m.Role = role
	m.Status = status
	m.ActivatedAt = activated
	return m
}

func ts(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func TestResolveZeroMemberships(t *testing.T) {
	r := NewResolver(&fakeLister{})
	_, rerr := r.Resolve(context.Background(), uuid.New(), "", "", true)
	require.NotNil(t, rerr)
	assert.Equal(t, http.StatusForbidden, rerr.Status)
}

func TestResolveDefaultPrefersPersonal(t *testing.T) {
	org := membership(models.WorkspaceOrganization, models.WorkspaceRoleStaff, models.MembershipActive, ts("2025-06-01T00:00:00Z"))
	personal := membership(models.WorkspacePersonal, models.WorkspaceRoleOwner, models.MembershipActive, ts("2024-01-01T00:00:00Z"))
	r := NewResolver(&fakeLister{memberships: []models.MembershipWithWorkspace{org, personal}})

	ws, rerr := r.Resolve(context.Background(), uuid.New(), "", "", true)
	require.Nil(t, rerr)
	assert.Equal(t, personal.WorkspaceID, ws.WorkspaceID)
	assert.Equal(t, models.WorkspaceRoleOwner, ws.Role)
}

func TestResolveDefaultOrdersByActivation(t *testing.T) {
	older := membership(models.WorkspaceOrganization, models.WorkspaceRoleStaff, models.MembershipActive, ts("2024-01-01T00:00:00Z"))
	newer := membership(models.WorkspaceOrganization, models.WorkspaceRoleParticipant, models.MembershipActive, ts("2025-06-01T00:00:00Z"))
	r := NewResolver(&fakeLister{memberships: []models.MembershipWithWorkspace{older, newer}})

	ws, rerr := r.Resolve(context.Background(), uuid.New(), "", "", true)
	require.Nil(t, rerr)
	assert.Equal(t, newer.WorkspaceID, ws.WorkspaceID)
}

func TestResolveUnknownWorkspaceIs404(t *testing.T) {
	m := membership(models.WorkspacePersonal, models.WorkspaceRoleOwner, models.MembershipActive, ts("2024-01-01T00:00:00Z"))
	r := NewResolver(&fakeLister{memberships: []models.MembershipWithWorkspace{m}})

	_, rerr := r.Resolve(context.Background(), uuid.New(), uuid.New().String(), "", true)
	require.NotNil(t, rerr)
	assert.Equal(t, http.StatusNotFound, rerr.Status)

	// malformed id probes look the same as foreign ones
	_, rerr = r.Resolve(context.Background(), uuid.New(), "not-a-uuid", "", true)
	require.NotNil(t, rerr)
	assert.Equal(t, http.StatusNotFound, rerr.Status)
}

func TestResolveInactiveMembershipIs403(t *testing.T) {
	m := membership(models.WorkspaceOrganization, models.WorkspaceRoleStaff, models.MembershipDisabled, ts("2024-01-01T00:00:00Z"))
	r := NewResolver(&fakeLister{memberships: []models.MembershipWithWorkspace{m}})

	_, rerr := r.Resolve(context.Background(), uuid.New(), m.WorkspaceID.String(), "", true)
	require.NotNil(t, rerr)
	assert.Equal(t, http.StatusForbidden, rerr.Status)

	// without requireActive the membership resolves with its real status
	ws, rerr := r.Resolve(context.Background(), uuid.New(), m.WorkspaceID.String(), "", false)
	require.Nil(t, rerr)
	assert.Equal(t, models.MembershipDisabled, ws.Status)
}

func TestResolveHeaderOverridesClaim(t *testing.T) {
	a := membership(models.WorkspaceOrganization, models.WorkspaceRoleStaff, models.MembershipActive, ts("2024-01-01T00:00:00Z"))
	b := membership(models.WorkspaceOrganization, models.WorkspaceRoleParticipant, models.MembershipActive, ts("2024-02-01T00:00:00Z"))
	r := NewResolver(&fakeLister{memberships: []models.MembershipWithWorkspace{a, b}})

	// claim alone selects a
	ws, rerr := r.Resolve(context.Background(), uuid.New(), "", a.WorkspaceID.String(), true)
	require.Nil(t, rerr)
	assert.Equal(t, a.WorkspaceID, ws.WorkspaceID)

	// header wins over the claim
	ws, rerr = r.Resolve(context.Background(), uuid.New(), b.WorkspaceID.String(), a.WorkspaceID.String(), true)
	require.Nil(t, rerr)
	assert.Equal(t, b.WorkspaceID, ws.WorkspaceID)
	assert.Equal(t, models.WorkspaceRoleParticipant, ws.Role)
}

func TestResolveSwitchThenGrant(t *testing.T) {
	// a workspace the caller had no membership in yields 404 until a
	// membership appears; the next request sees it without re-login
	target := membership(models.WorkspaceOrganization, models.WorkspaceRoleStaff, models.MembershipActive, ts("2025-01-01T00:00:00Z"))
	personal := membership(models.WorkspacePersonal, models.WorkspaceRoleOwner, models.MembershipActive, ts("2024-01-01T00:00:00Z"))

	lister := &fakeLister{memberships: []models.MembershipWithWorkspace{personal}}
	r := NewResolver(lister)

	_, rerr := r.Resolve(context.Background(), uuid.New(), target.WorkspaceID.String(), "", true)
	require.NotNil(t, rerr)
	assert.Equal(t, http.StatusNotFound, rerr.Status)

	lister.memberships = append(lister.memberships, target)
	ws, rerr := r.Resolve(context.Background(), uuid.New(), target.WorkspaceID.String(), "", true)
	require.Nil(t, rerr)
	assert.Equal(t, target.WorkspaceID, ws.WorkspaceID)
}

func TestResolveStoreErrorIs500(t *testing.T) {
	r := NewResolver(&fakeLister{err: errors.New("boom")})
	_, rerr := r.Resolve(context.Background(), uuid.New(), "", "", true)
	require.NotNil(t, rerr)
	assert.Equal(t, http.StatusInternalServerError, rerr.Status)
}
