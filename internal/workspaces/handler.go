package workspaces

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/internal/models"
	"github.com/reflectus-app/backend/pkg/response"
)

// Store is the persistence surface the handler needs. Implemented by
// Repository; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, name string, wsType models.WorkspaceType) (*models.Workspace, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	ListForUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.MembershipWithWorkspace, error)
	ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]Member, error)
	CreateMembership(ctx context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole, status models.MembershipStatus) (*models.WorkspaceMembership, error)
	GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMembership, error)
	ActivateMembership(ctx context.Context, id uuid.UUID) error
	DisableMembership(ctx context.Context, workspaceID, userID uuid.UUID) error
	CreateInvite(ctx context.Context, workspaceID uuid.UUID, email string, role models.WorkspaceRole, createdBy uuid.UUID) (*models.WorkspaceInvite, error)
	GetInviteByToken(ctx context.Context, token string) (*models.WorkspaceInvite, error)
	MarkInviteUsed(ctx context.Context, id, usedBy uuid.UUID) error
	UserIDByEmail(ctx context.Context, email string) (uuid.UUID, error)
}

// AuditRecorder appends audit trail rows for mutating workspace actions.
// Satisfied by the auditlog repository.
type AuditRecorder interface {
	Record(ctx context.Context, workspaceID, actorID uuid.UUID, action, objectType string, objectID *uuid.UUID) error
}

// Handler handles workspace, membership, and invite HTTP endpoints.
type Handler struct {
	store  Store
	audit  AuditRecorder
	logger *zap.Logger
}

// NewHandler creates a workspaces handler.
func NewHandler(store Store, audit AuditRecorder, logger *zap.Logger) *Handler {
	return &Handler{store: store, audit: audit, logger: logger}
}

// CreateRequest is the body for POST /workspaces.
type CreateRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// RenameRequest is the body for PATCH /workspaces/current.
type RenameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// InviteRequest is the body for POST /workspaces/current/invites.
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

// List handles GET /workspaces: the caller's memberships in default-workspace
// order (PERSONAL first, then most recently activated).
func (h *Handler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	list, err := h.store.ListForUser(c.Request.Context(), userID, false)
	if err != nil {
		response.Internal(c, "failed to list workspaces")
		return
	}
	sortMemberships(list)
	response.OK(c, list)
}

// Create handles POST /workspaces: a new ORGANIZATION workspace with the
// creator as its ORG_ADMIN.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ws, err := h.store.Create(c.Request.Context(), req.Name, models.WorkspaceOrganization)
	if err != nil {
		response.Internal(c, "failed to create workspace")
		return
	}
	if _, err := h.store.CreateMembership(c.Request.Context(), ws.ID, userID, models.WorkspaceRoleOrgAdmin, models.MembershipActive); err != nil {
		response.Internal(c, "failed to create membership")
		return
	}

	h.record(c, ws.ID, userID, "workspace.create", "workspace", &ws.ID)
	response.Created(c, ws)
}

// Rename handles PATCH /workspaces/current. Workspace managers only.
func (h *Handler) Rename(c *gin.Context) {
	ws := FromContext(c)
	userID, ok := callerID(c)
	if ws == nil || !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	if !ws.Role.CanManageWorkspace() {
		response.Forbidden(c, "workspace admin role required")
		return
	}
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.store.Rename(c.Request.Context(), ws.WorkspaceID, req.Name); err != nil {
		response.Internal(c, "failed to rename workspace")
		return
	}
	h.record(c, ws.WorkspaceID, userID, "workspace.rename", "workspace", &ws.WorkspaceID)
	response.OK(c, gin.H{"id": ws.WorkspaceID, "name": req.Name})
}

// Members handles GET /workspaces/current/members.
func (h *Handler) Members(c *gin.Context) {
	ws := FromContext(c)
	if ws == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	list, err := h.store.ListMembers(c.Request.Context(), ws.WorkspaceID)
	if err != nil {
		response.Internal(c, "failed to list members")
		return
	}
	response.OK(c, list)
}

// CreateInvite handles POST /workspaces/current/invites. Workspace managers
// only. When the invited email already belongs to a user, an INVITED
// membership is created alongside the single-use token.
func (h *Handler) CreateInvite(c *gin.Context) {
	ws := FromContext(c)
	userID, ok := callerID(c)
	if ws == nil || !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	if !ws.Role.CanManageWorkspace() {
		response.Forbidden(c, "workspace admin role required")
		return
	}
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role := models.WorkspaceRole(req.Role)
	if !role.Valid() || role == models.WorkspaceRoleOwner {
		response.BadRequest(c, "invalid role")
		return
	}

	inv, err := h.store.CreateInvite(c.Request.Context(), ws.WorkspaceID, req.Email, role, userID)
	if err != nil {
		response.Internal(c, "failed to create invite")
		return
	}
	if user, err := h.store.UserIDByEmail(c.Request.Context(), req.Email); err == nil && user != uuid.Nil {
		if _, err := h.store.CreateMembership(c.Request.Context(), ws.WorkspaceID, user, role, models.MembershipInvited); err != nil {
			h.logger.Warn("create invited membership", zap.Error(err), zap.String("workspace_id", ws.WorkspaceID.String()))
		}
	}

	h.record(c, ws.WorkspaceID, userID, "invite.create", "invite", &inv.ID)
	response.Created(c, inv)
}

// AcceptInvite handles POST /invites/:token/accept. The token is single-use
// and bound to the invited email; a second accept fails with 400. Every
// rejection happens before the used flag flips, so a failed accept never
// consumes the token.
func (h *Handler) AcceptInvite(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	userID, ok := callerID(c)
	if claims == nil || !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	inv, err := h.store.GetInviteByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Internal(c, "failed to load invite")
		return
	}
	if inv == nil {
		response.NotFound(c, "invite not found")
		return
	}
	if inv.Used {
		response.BadRequest(c, "invite already used")
		return
	}
	if !strings.EqualFold(claims.Email, inv.Email) {
		response.Forbidden(c, "invite was issued to a different email")
		return
	}

	m, err := h.store.GetMembership(c.Request.Context(), inv.WorkspaceID, userID)
	if err != nil {
		response.Internal(c, "failed to load membership")
		return
	}
	if m != nil && m.Status == models.MembershipDisabled {
		response.Forbidden(c, "membership is disabled")
		return
	}

	if err := h.store.MarkInviteUsed(c.Request.Context(), inv.ID, userID); err != nil {
		if errors.Is(err, ErrNoTransition) {
			response.BadRequest(c, "invite already used")
			return
		}
		response.Internal(c, "failed to accept invite")
		return
	}

	switch {
	case m == nil:
		if _, err := h.store.CreateMembership(c.Request.Context(), inv.WorkspaceID, userID, inv.Role, models.MembershipActive); err != nil {
			response.Internal(c, "failed to create membership")
			return
		}
	case m.Status == models.MembershipInvited:
		if err := h.store.ActivateMembership(c.Request.Context(), m.ID); err != nil {
			response.Internal(c, "failed to activate membership")
			return
		}
	}

	h.record(c, inv.WorkspaceID, userID, "invite.accept", "invite", &inv.ID)
	response.OK(c, gin.H{"workspace_id": inv.WorkspaceID, "role": inv.Role})
}

// DisableMember handles DELETE /workspaces/current/members/:id (a user id).
// Memberships are disabled, never deleted.
func (h *Handler) DisableMember(c *gin.Context) {
	ws := FromContext(c)
	userID, ok := callerID(c)
	if ws == nil || !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	if !ws.Role.CanManageWorkspace() {
		response.Forbidden(c, "workspace admin role required")
		return
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "member not found")
		return
	}
	if target == userID {
		response.BadRequest(c, "cannot disable your own membership")
		return
	}
	if err := h.store.DisableMembership(c.Request.Context(), ws.WorkspaceID, target); err != nil {
		if errors.Is(err, ErrNoTransition) {
			response.NotFound(c, "member not found")
			return
		}
		response.Internal(c, "failed to disable member")
		return
	}
	h.record(c, ws.WorkspaceID, userID, "member.disable", "membership", &target)
	response.NoContent(c)
}

func (h *Handler) record(c *gin.Context, workspaceID, actorID uuid.UUID, action, objectType string, objectID *uuid.UUID) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Record(c.Request.Context(), workspaceID, actorID, action, objectType, objectID); err != nil {
		h.logger.Warn("audit record", zap.Error(err), zap.String("action", action))
	}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return uuid.Nil, false
	}
	return claims.UserID()
}
