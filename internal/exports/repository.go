package exports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reflectus-app/backend/internal/models"
)

// Repository handles export row persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending export for the workspace.
func (r *Repository) Create(ctx context.Context, workspaceID, requestedBy uuid.UUID) (*models.Export, error) {
	const q = `INSERT INTO exports (workspace_id, requested_by, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, workspace_id, organization_id, requested_by, status, COALESCE(s3_key, ''), COALESCE(size, 0), created_at, updated_at`
	var e models.Export
	err := r.pool.QueryRow(ctx, q, workspaceID, requestedBy).
		Scan(&e.ID, &e.WorkspaceID, &e.OrganizationID, &e.RequestedBy, &e.Status, &e.S3Key, &e.Size, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByID returns an export regardless of tenant, or nil if absent. Callers
// must validate ownership before acting on the result.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Export, error) {
	const q = `SELECT id, workspace_id, organization_id, requested_by, status, COALESCE(s3_key, ''), COALESCE(size, 0), created_at, updated_at
		FROM exports WHERE id = $1`
	var e models.Export
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&e.ID, &e.WorkspaceID, &e.OrganizationID, &e.RequestedBy, &e.Status, &e.S3Key, &e.Size, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByWorkspace returns the workspace's exports under either tenant schema,
// newest first.
func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Export, error) {
	const q = `SELECT id, workspace_id, organization_id, requested_by, status, COALESCE(s3_key, ''), COALESCE(size, 0), created_at, updated_at
		FROM exports
		WHERE workspace_id = $1 OR (workspace_id IS NULL AND organization_id = $1)
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, workspaceID)
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

// MarkCompleted records the uploaded artifact on the export row.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, s3Key string, size int64) error {
	const q = `UPDATE exports SET status = 'completed', s3_key = $2, size = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, s3Key, size)
	return err
}

// MarkFailed flags an export whose generation exhausted retries.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE exports SET status = 'failed', updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}
