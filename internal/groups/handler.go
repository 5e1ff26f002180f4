package groups

import (
	"github.com/gin-gonic/gin"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/internal/workspaces"
	"github.com/reflectus-app/backend/pkg/response"
)

// Handler handles group HTTP endpoints. Routes run behind the session and
// workspace-resolution middleware.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateRequest is the body for POST /groups.
type CreateRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// List handles GET /groups.
func (h *Handler) List(c *gin.Context) {
	ws := workspaces.FromContext(c)
	if ws == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	list, err := h.repo.ListByWorkspace(c.Request.Context(), ws.WorkspaceID)
	if err != nil {
		response.Internal(c, "failed to list groups")
		return
	}
	response.OK(c, list)
}

// Create handles POST /groups. Content-manager workspace roles only.
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
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	g, err := h.repo.Create(c.Request.Context(), ws.WorkspaceID, userID, req.Name)
	if err != nil {
		response.Internal(c, "failed to create group")
		return
	}
	response.Created(c, g)
}
