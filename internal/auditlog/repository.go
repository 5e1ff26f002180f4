package auditlog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reflectus-app/backend/internal/models"
)

// Repository appends and reads audit trail rows.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record appends an audit row for a mutating action. New rows always carry
// workspace_id; organization_id exists only on rows written by the legacy
// system.
func (r *Repository) Record(ctx context.Context, workspaceID, actorID uuid.UUID, action, objectType string, objectID *uuid.UUID) error {
	const q = `INSERT INTO audit_logs (workspace_id, actor_id, action, object_type, object_id)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, q, workspaceID, actorID, action, objectType, objectID)
	return err
}

// ListByWorkspace returns the workspace's audit trail under either tenant
// schema, newest first, capped at limit.
func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, workspace_id, organization_id, actor_id, action, object_type, object_id, created_at
		FROM audit_logs
		WHERE workspace_id = $1 OR (workspace_id IS NULL AND organization_id = $1)
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, workspaceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AuditLog
	for rows.Next() {
		var a models.AuditLog
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.OrganizationID, &a.ActorID, &a.Action, &a.ObjectType, &a.ObjectID, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
