package workspaces

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reflectus-app/backend/internal/models"
)

// ErrNoTransition is returned when a membership status change is not allowed
// from its current state (DISABLED is terminal; only INVITED can activate).
var ErrNoTransition = errors.New("membership status transition not allowed")

// Repository handles workspace, membership, and invite persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a workspaces repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a workspace by ID, or nil if absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	const q = `SELECT id, name, type, created_at, updated_at FROM workspaces WHERE id = $1`
	var ws models.Workspace
	err := r.pool.QueryRow(ctx, q, id).Scan(&ws.ID, &ws.Name, &ws.Type, &ws.CreatedAt, &ws.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// Create creates a workspace.
func (r *Repository) Create(ctx context.Context, name string, wsType models.WorkspaceType) (*models.Workspace, error) {
	const q = `INSERT INTO workspaces (name, type) VALUES ($1, $2)
		RETURNING id, name, type, created_at, updated_at`
	var ws models.Workspace
	err := r.pool.QueryRow(ctx, q, name, string(wsType)).
		Scan(&ws.ID, &ws.Name, &ws.Type, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// Rename updates a workspace name.
func (r *Repository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	const q = `UPDATE workspaces SET name = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ProvisionPersonal creates the user's PERSONAL workspace with an ACTIVE
// OWNER membership. Called once at signup; uniqueness of the personal
// workspace is a convention, not a constraint.
func (r *Repository) ProvisionPersonal(ctx context.Context, userID uuid.UUID, name string) (*models.Workspace, error) {
	ws, err := r.Create(ctx, name, models.WorkspacePersonal)
	if err != nil {
		return nil, err
	}
	const q = `INSERT INTO workspace_memberships (workspace_id, user_id, role, status, activated_at)
		VALUES ($1, $2, $3, 'ACTIVE', NOW())`
	if _, err := r.pool.Exec(ctx, q, ws.ID, userID, string(models.WorkspaceRoleOwner)); err != nil {
		return nil, fmt.Errorf("create owner membership: %w", err)
	}
	return ws, nil
}

// CreateMembership inserts a membership in the given status. activated is
// set only for ACTIVE.
func (r *Repository) CreateMembership(ctx context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole, status models.MembershipStatus) (*models.WorkspaceMembership, error) {
	const q = `INSERT INTO workspace_memberships (workspace_id, user_id, role, status, activated_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $4 = 'ACTIVE' THEN NOW() END)
		RETURNING id, workspace_id, user_id, role, status, activated_at, created_at, updated_at`
	var m models.WorkspaceMembership
	err := r.pool.QueryRow(ctx, q, workspaceID, userID, string(role), string(status)).
		Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status, &m.ActivatedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForUser returns the caller's memberships joined with workspace name
// and type. With activeOnly, non-ACTIVE rows are filtered in SQL.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.MembershipWithWorkspace, error) {
	q := `SELECT m.id, m.workspace_id, m.user_id, m.role, m.status, m.activated_at, m.created_at, m.updated_at,
			w.name, w.type
		FROM workspace_memberships m
		INNER JOIN workspaces w ON w.id = m.workspace_id
		WHERE m.user_id = $1`
	if activeOnly {
		q += ` AND m.status = 'ACTIVE'`
	}
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.MembershipWithWorkspace
	for rows.Next() {
		var m models.MembershipWithWorkspace
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status, &m.ActivatedAt, &m.CreatedAt, &m.UpdatedAt,
			&m.WorkspaceName, &m.WorkspaceType); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetMembership returns the (workspace, user) membership, or nil if absent.
func (r *Repository) GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMembership, error) {
	const q = `SELECT id, workspace_id, user_id, role, status, activated_at, created_at, updated_at
		FROM workspace_memberships WHERE workspace_id = $1 AND user_id = $2`
	var m models.WorkspaceMembership
	err := r.pool.QueryRow(ctx, q, workspaceID, userID).
		Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status, &m.ActivatedAt, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ActivateMembership transitions INVITED → ACTIVE and stamps activated_at.
// Any other source state returns ErrNoTransition.
func (r *Repository) ActivateMembership(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE workspace_memberships
		SET status = 'ACTIVE', activated_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'INVITED'`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}
	return nil
}

// DisableMembership transitions a non-DISABLED membership to DISABLED.
// Memberships are never hard-deleted, preserving audit history.
func (r *Repository) DisableMembership(ctx context.Context, workspaceID, userID uuid.UUID) error {
	const q = `UPDATE workspace_memberships
		SET status = 'DISABLED', updated_at = NOW()
		WHERE workspace_id = $1 AND user_id = $2 AND status <> 'DISABLED'`
	tag, err := r.pool.Exec(ctx, q, workspaceID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}
	return nil
}

// Member is a workspace member with user details.
type Member struct {
	ID          uuid.UUID               `json:"id"`
	UserID      uuid.UUID               `json:"user_id"`
	Email       string                  `json:"email"`
	FullName    string                  `json:"full_name"`
	Role        models.WorkspaceRole    `json:"role"`
	Status      models.MembershipStatus `json:"status"`
	ActivatedAt *string                 `json:"activated_at,omitempty"`
}

// ListMembers returns members of a workspace (memberships joined with users).
func (r *Repository) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]Member, error) {
	const q = `SELECT m.id, m.user_id, u.email, u.full_name, m.role, m.status, to_char(m.activated_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
		FROM workspace_memberships m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = $1
		ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, q, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.FullName, &m.Role, &m.Status, &m.ActivatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// CreateInvite creates a single-use invite and its INVITED membership for an
// existing user with that email, when one exists. The invite token is the
// only way to activate the membership.
func (r *Repository) CreateInvite(ctx context.Context, workspaceID uuid.UUID, email string, role models.WorkspaceRole, createdBy uuid.UUID) (*models.WorkspaceInvite, error) {
	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}
	const q = `INSERT INTO workspace_invites (workspace_id, email, role, token, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, workspace_id, email, role, token, created_by, used, used_by, created_at`
	var inv models.WorkspaceInvite
	err = r.pool.QueryRow(ctx, q, workspaceID, email, string(role), token, createdBy).
		Scan(&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token, &inv.CreatedBy, &inv.Used, &inv.UsedBy, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInviteByToken returns an invite by token, or nil if absent.
func (r *Repository) GetInviteByToken(ctx context.Context, token string) (*models.WorkspaceInvite, error) {
	const q = `SELECT id, workspace_id, email, role, token, created_by, used, used_by, created_at
		FROM workspace_invites WHERE token = $1`
	var inv models.WorkspaceInvite
	err := r.pool.QueryRow(ctx, q, token).
		Scan(&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token, &inv.CreatedBy, &inv.Used, &inv.UsedBy, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkInviteUsed flips the invite's used flag exactly once; a second call
// affects zero rows and returns ErrNoTransition.
func (r *Repository) MarkInviteUsed(ctx context.Context, id, usedBy uuid.UUID) error {
	const q = `UPDATE workspace_invites SET used = TRUE, used_by = $2 WHERE id = $1 AND used = FALSE`
	tag, err := r.pool.Exec(ctx, q, id, usedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTransition
	}
	return nil
}

func newInviteToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// UserIDByEmail resolves an email to a user id, uuid.Nil when no user exists.
func (r *Repository) UserIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	const q = `SELECT id FROM users WHERE email = $1`
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, q, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
