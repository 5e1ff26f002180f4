package backfill

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reflectus-app/backend/internal/models"
)

// PGStore is the Postgres-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	const q = `SELECT id, name, created_at FROM organizations ORDER BY created_at`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func (s *PGStore) WorkspaceExists(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM workspaces WHERE id = $1)`
	var exists bool
	err := s.pool.QueryRow(ctx, q, id).Scan(&exists)
	return exists, err
}

func (s *PGStore) CreateWorkspaceWithID(ctx context.Context, id uuid.UUID, name string) error {
	const q = `INSERT INTO workspaces (id, name, type) VALUES ($1, $2, 'ORGANIZATION')`
	_, err := s.pool.Exec(ctx, q, id, name)
	return err
}

func (s *PGStore) ListOrgMembers(ctx context.Context) ([]models.OrgMember, error) {
	const q = `SELECT id, organization_id, user_id, role, created_at FROM organization_members ORDER BY created_at`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.OrgMember
	for rows.Next() {
		var m models.OrgMember
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (s *PGStore) MembershipExists(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM workspace_memberships WHERE workspace_id = $1 AND user_id = $2)`
	var exists bool
	err := s.pool.QueryRow(ctx, q, workspaceID, userID).Scan(&exists)
	return exists, err
}

func (s *PGStore) CreateActiveMembership(ctx context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole) error {
	const q = `INSERT INTO workspace_memberships (workspace_id, user_id, role, status, activated_at)
		VALUES ($1, $2, $3, 'ACTIVE', NOW())`
	_, err := s.pool.Exec(ctx, q, workspaceID, userID, string(role))
	return err
}

func (s *PGStore) ListGroupsMissingWorkspace(ctx context.Context) ([]models.Group, error) {
	const q = `SELECT id, name, workspace_id, organization_id, created_by, created_at, updated_at
		FROM groups WHERE workspace_id IS NULL`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.WorkspaceID, &g.OrganizationID, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

func (s *PGStore) SetGroupWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error {
	const q = `UPDATE groups SET workspace_id = $2, updated_at = NOW() WHERE id = $1 AND workspace_id IS NULL`
	_, err := s.pool.Exec(ctx, q, id, workspaceID)
	return err
}

func (s *PGStore) ListActivitiesMissingWorkspace(ctx context.Context) ([]models.Activity, error) {
	const q = `SELECT id, group_id, title, opens_at, closes_at, workspace_id, organization_id, created_by, created_at, updated_at
		FROM activities WHERE workspace_id IS NULL`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.GroupID, &a.Title, &a.OpensAt, &a.ClosesAt, &a.WorkspaceID, &a.OrganizationID, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (s *PGStore) SetActivityWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error {
	const q = `UPDATE activities SET workspace_id = $2, updated_at = NOW() WHERE id = $1 AND workspace_id IS NULL`
	_, err := s.pool.Exec(ctx, q, id, workspaceID)
	return err
}

func (s *PGStore) GroupTenant(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	const q = `SELECT COALESCE(workspace_id, organization_id) FROM groups WHERE id = $1`
	var tenant *uuid.UUID
	err := s.pool.QueryRow(ctx, q, id).Scan(&tenant)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *PGStore) ListResponsesMissingWorkspace(ctx context.Context) ([]models.Response, error) {
	const q = `SELECT id, activity_id, user_id, body, submitted_at, workspace_id, organization_id
		FROM responses WHERE workspace_id IS NULL`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Response
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(&r.ID, &r.ActivityID, &r.UserID, &r.Body, &r.SubmittedAt, &r.WorkspaceID, &r.OrganizationID); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func (s *PGStore) SetResponseWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error {
	const q = `UPDATE responses SET workspace_id = $2 WHERE id = $1 AND workspace_id IS NULL`
	_, err := s.pool.Exec(ctx, q, id, workspaceID)
	return err
}

func (s *PGStore) ActivityTenant(ctx context.Context, id uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	const q = `SELECT COALESCE(workspace_id, organization_id), group_id FROM activities WHERE id = $1`
	var tenant *uuid.UUID
	var groupID uuid.UUID
	err := s.pool.QueryRow(ctx, q, id).Scan(&tenant, &groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return tenant, &groupID, nil
}

func (s *PGStore) ListExportsMissingWorkspace(ctx context.Context) ([]models.Export, error) {
	const q = `SELECT id, workspace_id, organization_id, requested_by, status, COALESCE(s3_key, ''), COALESCE(size, 0), created_at, updated_at
		FROM exports WHERE workspace_id IS NULL`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Export
	for rows.Next() {
		var e models.Export
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.OrganizationID, &e.RequestedBy, &e.Status, &e.S3Key, &e.Size, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (s *PGStore) SetExportWorkspace(ctx context.Context, id, workspaceID uuid.UUID) error {
	const q = `UPDATE exports SET workspace_id = $2, updated_at = NOW() WHERE id = $1 AND workspace_id IS NULL`
	_, err := s.pool.Exec(ctx, q, id, workspaceID)
	return err
}
