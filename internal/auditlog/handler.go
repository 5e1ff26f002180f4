package auditlog

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reflectus-app/backend/internal/workspaces"
	"github.com/reflectus-app/backend/pkg/response"
)

// Handler serves the workspace audit trail.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /workspaces/current/audit-logs. Workspace managers only.
func (h *Handler) List(c *gin.Context) {
	ws := workspaces.FromContext(c)
	if ws == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	if !ws.Role.CanManageWorkspace() {
		response.Forbidden(c, "workspace admin role required")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.repo.ListByWorkspace(c.Request.Context(), ws.WorkspaceID, limit)
	if err != nil {
		response.Internal(c, "failed to list audit logs")
		return
	}
	response.OK(c, list)
}
