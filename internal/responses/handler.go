package responses

import (
	"context"

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

// Handler handles response HTTP endpoints, nested under an activity.
type Handler struct {
	repo    *Repository
	tenants TenancyChecker
}

func NewHandler(repo *Repository, tenants TenancyChecker) *Handler {
	return &Handler{repo: repo, tenants: tenants}
}

// SubmitRequest is the body for POST /activities/:id/responses.
type SubmitRequest struct {
	Body string `json:"body" binding:"required"`
}

// List handles GET /activities/:id/responses. Content managers see every
// submission; participants see only their own.
func (h *Handler) List(c *gin.Context) {
	ws := workspaces.FromContext(c)
	claims := auth.ClaimsFrom(c)
	if ws == nil || claims == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	userID, ok := claims.UserID()
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	activityID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.tenants.ValidateResourceWorkspace(c.Request.Context(), activityID, tenancy.TypeActivity, ws.WorkspaceID) {
		response.NotFound(c, "activity not found")
		return
	}

	var err error
	var list interface{}
	if ws.Role.CanManageContent() {
		list, err = h.repo.ListByActivity(c.Request.Context(), activityID)
	} else {
		list, err = h.repo.ListByActivityForUser(c.Request.Context(), activityID, userID)
	}
	if err != nil {
		response.Internal(c, "failed to list responses")
		return
	}
	response.OK(c, list)
}

// Submit handles POST /activities/:id/responses.
func (h *Handler) Submit(c *gin.Context) {
	ws := workspaces.FromContext(c)
	claims := auth.ClaimsFrom(c)
	if ws == nil || claims == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	userID, ok := claims.UserID()
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	activityID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.tenants.ValidateResourceWorkspace(c.Request.Context(), activityID, tenancy.TypeActivity, ws.WorkspaceID) {
		response.NotFound(c, "activity not found")
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	resp, err := h.repo.Create(c.Request.Context(), activityID, ws.WorkspaceID, userID, req.Body)
	if err != nil {
		response.Internal(c, "failed to save response")
		return
	}
	response.Created(c, resp)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.NotFound(c, "not found")
		return uuid.Nil, false
	}
	return id, true
}
