package tenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore loads tenant columns from Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) GroupTenant(ctx context.Context, id uuid.UUID) (*ResourceTenant, error) {
	const q = `SELECT workspace_id, organization_id, NULL::uuid FROM groups WHERE id = $1`
	return s.one(ctx, q, id)
}

func (s *PGStore) ActivityTenant(ctx context.Context, id uuid.UUID) (*ResourceTenant, error) {
	const q = `SELECT workspace_id, organization_id, group_id FROM activities WHERE id = $1`
	return s.one(ctx, q, id)
}

func (s *PGStore) ResponseTenant(ctx context.Context, id uuid.UUID) (*ResourceTenant, error) {
	const q = `SELECT workspace_id, organization_id, activity_id FROM responses WHERE id = $1`
	return s.one(ctx, q, id)
}

func (s *PGStore) ExportTenant(ctx context.Context, id uuid.UUID) (*ResourceTenant, error) {
	const q = `SELECT workspace_id, organization_id, NULL::uuid FROM exports WHERE id = $1`
	return s.one(ctx, q, id)
}

func (s *PGStore) one(ctx context.Context, q string, id uuid.UUID) (*ResourceTenant, error) {
	var t ResourceTenant
	err := s.pool.QueryRow(ctx, q, id).Scan(&t.WorkspaceID, &t.OrganizationID, &t.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
