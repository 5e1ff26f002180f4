package activities

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/internal/tenancy"
	"github.com/reflectus-app/backend/internal/workspaces"
	"github.com/reflectus-app/backend/pkg/response"
)

// TenancyChecker answers whether a resource belongs to a workspace.
type TenancyChecker interface {
	ValidateResourceWorkspace(ctx context.Context, resourceID uuid.UUID, resourceType tenancy.ResourceType, workspaceID uuid.UUID) bool
}

// Handler handles activity HTTP endpoints, nested under a group.
type Handler struct {
	repo    *Repository
	tenants TenancyChecker
}

func NewHandler(repo *Repository, tenants TenancyChecker) *Handler {
	return &Handler{repo: repo, tenants: tenants}
}

// CreateRequest is the body for POST /groups/:id/activities.
type CreateRequest struct {
	Title    string     `json:"title" binding:"required,min=1,max=300"`
	OpensAt  *time.Time `json:"opens_at"`
	ClosesAt *time.Time `json:"closes_at"`
}

// List handles GET /groups/:id/activities. A group outside the resolved
// workspace renders 404, indistinguishable from a nonexistent one.
func (h *Handler) List(c *gin.Context) {
	ws := workspaces.FromContext(c)
	if ws == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.tenants.ValidateResourceWorkspace(c.Request.Context(), groupID, tenancy.TypeGroup, ws.WorkspaceID) {
		response.NotFound(c, "group not found")
		return
	}
	list, err := h.repo.ListByGroup(c.Request.Context(), groupID)
	if err != nil {
		response.Internal(c, "failed to list activities")
		return
	}
	response.OK(c, list)
}

// Create handles POST /groups/:id/activities. Content-manager roles only.
func (h *Handler) Create(c *gin.Context) {
	ws := workspaces.FromContext(c)
	claims := auth.ClaimsFrom(c)
	if ws == nil || claims == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	if !ws.Role.CanManageContent() {
		response.Forbidden(c, "staff workspace role required")
		return
	}
	userID, ok := claims.UserID()
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.tenants.ValidateResourceWorkspace(c.Request.Context(), groupID, tenancy.TypeGroup, ws.WorkspaceID) {
		response.NotFound(c, "group not found")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	a, err := h.repo.Create(c.Request.Context(), groupID, ws.WorkspaceID, userID, req.Title, req.OpensAt, req.ClosesAt)
	if err != nil {
		response.Internal(c, "failed to create activity")
		return
	}
	response.Created(c, a)
}

// parseID parses a path id, rendering 404 on malformed input so probing with
// garbage ids is indistinguishable from probing foreign ones.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.NotFound(c, "not found")
		return uuid.Nil, false
	}
	return id, true
}
