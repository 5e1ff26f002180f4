// Package backfill migrates legacy organization data into the workspace
// schema. Every step checks for existing rows before writing, so the job is
// safe to re-run and to resume after a partial failure.
package backfill

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reflectus-app/backend/internal/models"
)

// Store is the persistence surface the runner needs. Implemented by PGStore;
// tests use an in-memory fake.
type Store interface {
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	WorkspaceExists(ctx context.Context, id uuid.UUID) (bool, error)
	CreateWorkspaceWithID(ctx context.Context, id uuid.UUID, name string) error

	ListOrgMembers(ctx context.Context) ([]models.OrgMember, error)
	MembershipExists(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
	CreateActiveMembership(ctx context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole) error

	ListGroupsMissingWorkspace(ctx context.Context) ([]models.Group, error)
	SetGroupWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error

	ListActivitiesMissingWorkspace(ctx context.Context) ([]models.Activity, error)
	SetActivityWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error
	// GroupTenant returns the group's effective tenant (workspace_id, else
	// legacy organization_id), or nil when the group has neither or is absent.
	GroupTenant(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)

	ListResponsesMissingWorkspace(ctx context.Context) ([]models.Response, error)
	SetResponseWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error
	// ActivityTenant returns the activity's effective tenant plus its group id
	// for the next fallback level.
	ActivityTenant(ctx context.Context, id uuid.UUID) (tenant *uuid.UUID, groupID *uuid.UUID, err error)

	ListExportsMissingWorkspace(ctx context.Context) ([]models.Export, error)
	SetExportWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error
}

// StepResult counts one category's outcome.
type StepResult struct {
	Scanned int
	Written int
	Skipped int
	Errors  []string
	Notes   []string
}

// Report is the per-category summary of a run.
type Report struct {
	DryRun      bool
	Workspaces  StepResult
	Memberships StepResult
	Groups      StepResult
	Activities  StepResult
	Responses   StepResult
	Exports     StepResult
}

// Runner executes the migration. With Execute false (the default) no writes
// happen; the report shows what an execute run would do.
type Runner struct {
	store   Store
	execute bool
	logger  *zap.Logger
}

func NewRunner(store Store, execute bool, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{store: store, execute: execute, logger: logger}
}

// Run executes the six steps in order. Workspaces and memberships (steps 1-2)
// complete before resource tenant columns (steps 3-6) so membership checks
// against migrated workspaces hold mid-run. Per-row failures are collected in
// the report; a failed category enumeration aborts the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: !r.execute}

	if err := r.backfillWorkspaces(ctx, &report.Workspaces); err != nil {
		return report, fmt.Errorf("enumerate organizations: %w", err)
	}
	if err := r.backfillMemberships(ctx, &report.Memberships); err != nil {
		return report, fmt.Errorf("enumerate organization members: %w", err)
	}
	if err := r.backfillGroups(ctx, &report.Groups); err != nil {
		return report, fmt.Errorf("enumerate groups: %w", err)
	}
	if err := r.backfillActivities(ctx, &report.Activities); err != nil {
		return report, fmt.Errorf("enumerate activities: %w", err)
	}
	if err := r.backfillResponses(ctx, &report.Responses); err != nil {
		return report, fmt.Errorf("enumerate responses: %w", err)
	}
	if err := r.backfillExports(ctx, &report.Exports); err != nil {
		return report, fmt.Errorf("enumerate exports: %w", err)
	}
	return report, nil
}

// backfillWorkspaces creates an ORGANIZATION workspace per legacy org,
// reusing the organization's id so legacy tenant references keep working.
func (r *Runner) backfillWorkspaces(ctx context.Context, res *StepResult) error {
	orgs, err := r.store.ListOrganizations(ctx)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		res.Scanned++
		exists, err := r.store.WorkspaceExists(ctx, org.ID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("org %s: %v", org.ID, err))
			continue
		}
		if exists {
			res.Skipped++
			continue
		}
		if r.execute {
			if err := r.store.CreateWorkspaceWithID(ctx, org.ID, org.Name); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("org %s: %v", org.ID, err))
				continue
			}
		}
		res.Written++
	}
	return nil
}

// backfillMemberships creates an ACTIVE membership per legacy org member,
// translating roles through the legacy role map.
func (r *Runner) backfillMemberships(ctx context.Context, res *StepResult) error {
	members, err := r.store.ListOrgMembers(ctx)
	if err != nil {
		return err
	}
	for _, m := range members {
		res.Scanned++
		exists, err := r.store.MembershipExists(ctx, m.OrganizationID, m.UserID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("member %s: %v", m.ID, err))
			continue
		}
		if exists {
			res.Skipped++
			continue
		}
		role, known := models.MapLegacyRole(m.Role)
		if !known {
			res.Notes = append(res.Notes, fmt.Sprintf("member %s: unknown legacy role %q mapped to %s", m.ID, m.Role, role))
		}
		if r.execute {
			if err := r.store.CreateActiveMembership(ctx, m.OrganizationID, m.UserID, role); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("member %s: %v", m.ID, err))
				continue
			}
		}
		res.Written++
	}
	return nil
}

// backfillGroups copies each group's legacy organization reference into
// workspace_id.
func (r *Runner) backfillGroups(ctx context.Context, res *StepResult) error {
	groups, err := r.store.ListGroupsMissingWorkspace(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		res.Scanned++
		if g.OrganizationID == nil {
			res.Skipped++
			continue
		}
		if r.execute {
			if err := r.store.SetGroupWorkspace(ctx, g.ID, *g.OrganizationID); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("group %s: %v", g.ID, err))
				continue
			}
		}
		res.Written++
	}
	return nil
}

// backfillActivities resolves each activity's tenant from its own legacy
// field, else from its group.
func (r *Runner) backfillActivities(ctx context.Context, res *StepResult) error {
	activities, err := r.store.ListActivitiesMissingWorkspace(ctx)
	if err != nil {
		return err
	}
	for _, a := range activities {
		res.Scanned++
		tenant := a.OrganizationID
		if tenant == nil {
			t, err := r.store.GroupTenant(ctx, a.GroupID)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("activity %s: %v", a.ID, err))
				continue
			}
			tenant = t
		}
		if tenant == nil {
			res.Skipped++
			continue
		}
		if r.execute {
			if err := r.store.SetActivityWorkspace(ctx, a.ID, *tenant); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("activity %s: %v", a.ID, err))
				continue
			}
		}
		res.Written++
	}
	return nil
}

// backfillResponses resolves each response's tenant from its own legacy
// field, else the activity, else the activity's group. Same fallback order
// the tenancy validator uses at request time.
func (r *Runner) backfillResponses(ctx context.Context, res *StepResult) error {
	list, err := r.store.ListResponsesMissingWorkspace(ctx)
	if err != nil {
		return err
	}
	for _, resp := range list {
		res.Scanned++
		tenant := resp.OrganizationID
		if tenant == nil {
			t, groupID, err := r.store.ActivityTenant(ctx, resp.ActivityID)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("response %s: %v", resp.ID, err))
				continue
			}
			tenant = t
			if tenant == nil && groupID != nil {
				gt, err := r.store.GroupTenant(ctx, *groupID)
				if err != nil {
					res.Errors = append(res.Errors, fmt.Sprintf("response %s: %v", resp.ID, err))
					continue
				}
				tenant = gt
			}
		}
		if tenant == nil {
			res.Skipped++
			continue
		}
		if r.execute {
			if err := r.store.SetResponseWorkspace(ctx, resp.ID, *tenant); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("response %s: %v", resp.ID, err))
				continue
			}
		}
		res.Written++
	}
	return nil
}

// backfillExports uses only the export's own legacy field; exports without
// one are skipped silently, there is no parent to infer from.
func (r *Runner) backfillExports(ctx context.Context, res *StepResult) error {
	list, err := r.store.ListExportsMissingWorkspace(ctx)
	if err != nil {
		return err
	}
	for _, e := range list {
		res.Scanned++
		if e.OrganizationID == nil {
			res.Skipped++
			continue
		}
		if r.execute {
			if err := r.store.SetExportWorkspace(ctx, e.ID, *e.OrganizationID); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("export %s: %v", e.ID, err))
				continue
			}
		}
		res.Written++
	}
	return nil
}
