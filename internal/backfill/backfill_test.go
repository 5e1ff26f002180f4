package backfill

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reflectus-app/backend/internal/models"
)

// fakeStore is an in-memory Store tracking every write.
type fakeStore struct {
	orgs       []models.Organization
	members    []models.OrgMember
	groups     []models.Group
	activities []models.Activity
	responses  []models.Response
	exports    []models.Export

	workspaces      map[uuid.UUID]string
	membershipRoles map[string]models.WorkspaceRole // ws|user -> role
	writes          int
}

func newStore() *fakeStore {
	return &fakeStore{
		workspaces:      make(map[uuid.UUID]string),
		membershipRoles: make(map[string]models.WorkspaceRole),
	}
}

func key(ws, user uuid.UUID) string { return ws.String() + "|" + user.String() }

func (f *fakeStore) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	return f.orgs, nil
}
func (f *fakeStore) WorkspaceExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.workspaces[id]
	return ok, nil
}
func (f *fakeStore) CreateWorkspaceWithID(ctx context.Context, id uuid.UUID, name string) error {
	f.workspaces[id] = name
	f.writes++
	return nil
}
func (f *fakeStore) ListOrgMembers(ctx context.Context) ([]models.OrgMember, error) {
	return f.members, nil
}
func (f *fakeStore) MembershipExists(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	_, ok := f.membershipRoles[key(workspaceID, userID)]
	return ok, nil
}
func (f *fakeStore) CreateActiveMembership(ctx context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole) error {
	f.membershipRoles[key(workspaceID, userID)] = role
	f.writes++
	return nil
}
func (f *fakeStore) ListGroupsMissingWorkspace(ctx context.Context) ([]models.Group, error) {
	var out []models.Group
	for _, g := range f.groups {
		if g.WorkspaceID == nil {
			out = append(out, g)
		}
	}
	return out, nil
}
func (f *fakeStore) SetGroupWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error {
	for i := range f.groups {
		if f.groups[i].ID == id {
			ws := workspaceID
			f.groups[i].WorkspaceID = &ws
		}
	}
	f.writes++
	return nil
}
func (f *fakeStore) ListActivitiesMissingWorkspace(ctx context.Context) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range f.activities {
		if a.WorkspaceID == nil {
			out = append(out, a)
		}
	}
	return out, nil
}
func (f *fakeStore) SetActivityWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error {
	for i := range f.activities {
		if f.activities[i].ID == id {
			ws := workspaceID
			f.activities[i].WorkspaceID = &ws
		}
	}
	f.writes++
	return nil
}
func (f *fakeStore) GroupTenant(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	for _, g := range f.groups {
		if g.ID == id {
			if g.WorkspaceID != nil {
				return g.WorkspaceID, nil
			}
			return g.OrganizationID, nil
		}
	}
	return nil, nil
}
func (f *fakeStore) ListResponsesMissingWorkspace(ctx context.Context) ([]models.Response, error) {
	var out []models.Response
	for _, r := range f.responses {
		if r.WorkspaceID == nil {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeStore) SetResponseWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error {
	for i := range f.responses {
		if f.responses[i].ID == id {
			ws := workspaceID
			f.responses[i].WorkspaceID = &ws
		}
	}
	f.writes++
	return nil
}
func (f *fakeStore) ActivityTenant(ctx context.Context, id uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	for _, a := range f.activities {
		if a.ID == id {
			g := a.GroupID
			if a.WorkspaceID != nil {
				return a.WorkspaceID, &g, nil
			}
			return a.OrganizationID, &g, nil
		}
	}
	return nil, nil, nil
}
func (f *fakeStore) ListExportsMissingWorkspace(ctx context.Context) ([]models.Export, error) {
	var out []models.Export
	for _, e := range f.exports {
		if e.WorkspaceID == nil {
			out = append(out, e)
		}
	}
	return out, nil
}
func (f *fakeStore) SetExportWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error {
	for i := range f.exports {
		if f.exports[i].ID == id {
			ws := workspaceID
			f.exports[i].WorkspaceID = &ws
		}
	}
	f.writes++
	return nil
}

// seed builds a legacy dataset: one org with three members, a group and
// activity without tenant columns, a response relying on the full parent
// chain, and one export with and one without a legacy tenant.
func seed() (*fakeStore, uuid.UUID) {
	store := newStore()
	orgID := uuid.New()
	store.orgs = []models.Organization{{ID: orgID, Name: "Northside High"}}
	store.members = []models.OrgMember{
		{ID: uuid.New(), OrganizationID: orgID, UserID: uuid.New(), Role: models.LegacyRoleAdmin},
		{ID: uuid.New(), OrganizationID: orgID, UserID: uuid.New(), Role: models.LegacyRoleTeacher},
		{ID: uuid.New(), OrganizationID: orgID, UserID: uuid.New(), Role: "mystery"},
	}

	org := orgID
	groupID := uuid.New()
	store.groups = []models.Group{{ID: groupID, Name: "7B", OrganizationID: &org}}

	activityID := uuid.New()
	store.activities = []models.Activity{{ID: activityID, GroupID: groupID}}

	store.responses = []models.Response{{ID: uuid.New(), ActivityID: activityID}}
	store.exports = []models.Export{
		{ID: uuid.New(), OrganizationID: &org},
		{ID: uuid.New()}, // no tenant to infer
	}
	return store, orgID
}

func TestBackfillExecute(t *testing.T) {
	store, orgID := seed()
	runner := NewRunner(store, true, zap.NewNop())

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Workspaces.Written)
	assert.Equal(t, 3, report.Memberships.Written)
	assert.Equal(t, 1, report.Groups.Written)
	assert.Equal(t, 1, report.Activities.Written)
	assert.Equal(t, 1, report.Responses.Written)
	assert.Equal(t, 1, report.Exports.Written)
	assert.Equal(t, 1, report.Exports.Skipped)

	// the workspace reuses the organization id
	assert.Equal(t, "Northside High", store.workspaces[orgID])

	// roles translated through the legacy map; unknown role noted, not fatal
	roles := make(map[models.WorkspaceRole]int)
	for _, r := range store.membershipRoles {
		roles[r]++
	}
	assert.Equal(t, 1, roles[models.WorkspaceRoleOrgAdmin])
	assert.Equal(t, 1, roles[models.WorkspaceRoleStaff])
	assert.Equal(t, 1, roles[models.WorkspaceRoleParticipant])
	assert.Len(t, report.Memberships.Notes, 1)

	// tenant columns resolved through the parent chain
	assert.Equal(t, orgID, *store.groups[0].WorkspaceID)
	assert.Equal(t, orgID, *store.activities[0].WorkspaceID)
	assert.Equal(t, orgID, *store.responses[0].WorkspaceID)
	assert.Equal(t, orgID, *store.exports[0].WorkspaceID)
	assert.Nil(t, store.exports[1].WorkspaceID)
}

func TestBackfillSecondRunIsNoOp(t *testing.T) {
	store, _ := seed()
	runner := NewRunner(store, true, zap.NewNop())

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	writes := store.writes

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, writes, store.writes, "second run must not write")
	assert.Zero(t, report.Workspaces.Written)
	assert.Zero(t, report.Memberships.Written)
	assert.Zero(t, report.Groups.Written)
	assert.Zero(t, report.Activities.Written)
	assert.Zero(t, report.Responses.Written)
	assert.Zero(t, report.Exports.Written)
	assert.Equal(t, 1, report.Workspaces.Skipped)
	assert.Equal(t, 3, report.Memberships.Skipped)
}

func TestBackfillDryRunWritesNothing(t *testing.T) {
	store, _ := seed()
	dry := NewRunner(store, false, zap.NewNop())

	dryReport, err := dry.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, store.writes, "dry run must not mutate")
	assert.Empty(t, store.workspaces)

	// the dry-run report predicts exactly what execute then does
	exec := NewRunner(store, true, zap.NewNop())
	execReport, err := exec.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, execReport.Workspaces.Written, dryReport.Workspaces.Written)
	assert.Equal(t, execReport.Memberships.Written, dryReport.Memberships.Written)
	assert.Equal(t, execReport.Groups.Written, dryReport.Groups.Written)
	assert.Equal(t, execReport.Activities.Written, dryReport.Activities.Written)
	assert.Equal(t, execReport.Responses.Written, dryReport.Responses.Written)
	assert.Equal(t, execReport.Exports.Written, dryReport.Exports.Written)
}
