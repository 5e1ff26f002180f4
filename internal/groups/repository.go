package groups

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reflectus-app/backend/internal/models"
)

// Repository handles group persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// tenantFilter matches rows owned by the workspace under either schema:
// the new workspace_id, or the legacy organization_id when workspace_id has
// not been backfilled yet (backfilled workspaces reuse the org id).
const tenantFilter = `(workspace_id = $1 OR (workspace_id IS NULL AND organization_id = $1))`

// ListByWorkspace returns the workspace's groups, newest first.
func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Group, error) {
	const q = `SELECT id, name, workspace_id, organization_id, created_by, created_at, updated_at
		FROM groups WHERE ` + tenantFilter + ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, workspaceID)
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

// GetByID returns a group regardless of tenant, or nil if absent. Callers
// must validate ownership before acting on the result.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	const q = `SELECT id, name, workspace_id, organization_id, created_by, created_at, updated_at
		FROM groups WHERE id = $1`
	var g models.Group
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&g.ID, &g.Name, &g.WorkspaceID, &g.OrganizationID, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a group under the new schema only; legacy organization_id
// is never written by new code.
func (r *Repository) Create(ctx context.Context, workspaceID, createdBy uuid.UUID, name string) (*models.Group, error) {
	const q = `INSERT INTO groups (name, workspace_id, created_by) VALUES ($1, $2, $3)
		RETURNING id, name, workspace_id, organization_id, created_by, created_at, updated_at`
	var g models.Group
	err := r.pool.QueryRow(ctx, q, name, workspaceID, createdBy).
		Scan(&g.ID, &g.Name, &g.WorkspaceID, &g.OrganizationID, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
