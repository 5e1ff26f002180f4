package activities

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reflectus-app/backend/internal/models"
)

// Repository handles activity persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByGroup returns a group's activities, newest first. Tenancy of the
// group itself is validated by the caller before this runs.
func (r *Repository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Activity, error) {
	const q = `SELECT id, group_id, title, opens_at, closes_at, workspace_id, organization_id, created_by, created_at, updated_at
		FROM activities WHERE group_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, groupID)
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

// Create inserts an activity under the new schema, inheriting the resolved
// workspace explicitly rather than leaving tenancy to the parent chain.
func (r *Repository) Create(ctx context.Context, groupID, workspaceID, createdBy uuid.UUID, title string, opensAt, closesAt *time.Time) (*models.Activity, error) {
	const q = `INSERT INTO activities (group_id, title, opens_at, closes_at, workspace_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, group_id, title, opens_at, closes_at, workspace_id, organization_id, created_by, created_at, updated_at`
	var a models.Activity
	err := r.pool.QueryRow(ctx, q, groupID, title, opensAt, closesAt, workspaceID, createdBy).
		Scan(&a.ID, &a.GroupID, &a.Title, &a.OpensAt, &a.ClosesAt, &a.WorkspaceID, &a.OrganizationID, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
