package responses

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reflectus-app/backend/internal/models"
)

// Repository handles response persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByActivity returns all submissions for an activity, newest first.
func (r *Repository) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]models.Response, error) {
	const q = `SELECT id, activity_id, user_id, body, submitted_at, workspace_id, organization_id
		FROM responses WHERE activity_id = $1 ORDER BY submitted_at DESC`
	return r.list(ctx, q, activityID)
}

// ListByActivityForUser returns one user's submissions for an activity.
func (r *Repository) ListByActivityForUser(ctx context.Context, activityID, userID uuid.UUID) ([]models.Response, error) {
	const q = `SELECT id, activity_id, user_id, body, submitted_at, workspace_id, organization_id
		FROM responses WHERE activity_id = $1 AND user_id = $2 ORDER BY submitted_at DESC`
	return r.list(ctx, q, activityID, userID)
}

// ListByWorkspace returns every response owned by the workspace under either
// tenant schema. Used by the export worker.
func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Response, error) {
	const q = `SELECT r.id, r.activity_id, r.user_id, r.body, r.submitted_at, r.workspace_id, r.organization_id
		FROM responses r
		WHERE r.workspace_id = $1
		   OR (r.workspace_id IS NULL AND r.organization_id = $1)
		   OR (r.workspace_id IS NULL AND r.organization_id IS NULL AND r.activity_id IN (
			SELECT a.id FROM activities a
			LEFT JOIN groups g ON g.id = a.group_id
			WHERE a.workspace_id = $1
			   OR (a.workspace_id IS NULL AND a.organization_id = $1)
			   OR (a.workspace_id IS NULL AND a.organization_id IS NULL AND
				(g.workspace_id = $1 OR (g.workspace_id IS NULL AND g.organization_id = $1)))))
		ORDER BY r.submitted_at DESC`
	return r.list(ctx, q, workspaceID)
}

// Create inserts a submission under the new schema.
func (r *Repository) Create(ctx context.Context, activityID, workspaceID, userID uuid.UUID, body string) (*models.Response, error) {
	const q = `INSERT INTO responses (activity_id, user_id, body, workspace_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, activity_id, user_id, body, submitted_at, workspace_id, organization_id`
	var resp models.Response
	err := r.pool.QueryRow(ctx, q, activityID, userID, body, workspaceID).
		Scan(&resp.ID, &resp.ActivityID, &resp.UserID, &resp.Body, &resp.SubmittedAt, &resp.WorkspaceID, &resp.OrganizationID)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Response, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Response
	for rows.Next() {
		var resp models.Response
		if err := rows.Scan(&resp.ID, &resp.ActivityID, &resp.UserID, &resp.Body, &resp.SubmittedAt, &resp.WorkspaceID, &resp.OrganizationID); err != nil {
			return nil, err
		}
		list = append(list, resp)
	}
	return list, rows.Err()
}
