package exports

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/internal/models"
	"github.com/reflectus-app/backend/internal/tenancy"
	"github.com/reflectus-app/backend/internal/workspaces"
	"github.com/reflectus-app/backend/pkg/queue"
	"github.com/reflectus-app/backend/pkg/response"
	"github.com/reflectus-app/backend/pkg/storage"
)

// TenancyChecker answers whether a resource belongs to a workspace.
type TenancyChecker interface {
	ValidateResourceWorkspace(ctx context.Context, resourceID uuid.UUID, resourceType tenancy.ResourceType, workspaceID uuid.UUID) bool
}

// Handler handles export HTTP endpoints. Generation happens in the worker;
// the API only creates the row, enqueues the job, and serves download URLs.
type Handler struct {
	repo    *Repository
	tenants TenancyChecker
	queue   *queue.Queue
	store   *storage.S3
	audit   workspaces.AuditRecorder
	logger  *zap.Logger
}

func NewHandler(repo *Repository, tenants TenancyChecker, q *queue.Queue, store *storage.S3, audit workspaces.AuditRecorder, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, tenants: tenants, queue: q, store: store, audit: audit, logger: logger}
}

// Create handles POST /exports. Content-manager roles only.
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

	exp, err := h.repo.Create(c.Request.Context(), ws.WorkspaceID, userID)
	if err != nil {
		response.Internal(c, "failed to create export")
		return
	}
	if err := h.queue.EnqueueExport(c.Request.Context(), queue.ExportPayload{ExportID: exp.ID, WorkspaceID: ws.WorkspaceID}); err != nil {
		h.logger.Error("enqueue export", zap.Error(err), zap.String("export_id", exp.ID.String()))
		response.Internal(c, "failed to enqueue export")
		return
	}
	if h.audit != nil {
		if err := h.audit.Record(c.Request.Context(), ws.WorkspaceID, userID, "export.request", "export", &exp.ID); err != nil {
			h.logger.Warn("audit record", zap.Error(err))
		}
	}
	response.Created(c, exp)
}

// List handles GET /exports.
func (h *Handler) List(c *gin.Context) {
	ws := workspaces.FromContext(c)
	if ws == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	list, err := h.repo.ListByWorkspace(c.Request.Context(), ws.WorkspaceID)
	if err != nil {
		response.Internal(c, "failed to list exports")
		return
	}
	response.OK(c, list)
}

// DownloadURL handles GET /exports/:id/download-url. An export outside the
// resolved workspace renders 404, same as a nonexistent one.
func (h *Handler) DownloadURL(c *gin.Context) {
	ws := workspaces.FromContext(c)
	if ws == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "export not found")
		return
	}
	if !h.tenants.ValidateResourceWorkspace(c.Request.Context(), id, tenancy.TypeExport, ws.WorkspaceID) {
		response.NotFound(c, "export not found")
		return
	}
	exp, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || exp == nil {
		response.NotFound(c, "export not found")
		return
	}
	if exp.Status != models.ExportCompleted || exp.S3Key == "" {
		response.Conflict(c, "export is not ready")
		return
	}
	if h.store == nil {
		response.Internal(c, "storage not configured")
		return
	}
	url, err := h.store.GeneratePresignedDownloadURL(c.Request.Context(), h.store.ExportsBucket(), exp.S3Key)
	if err != nil {
		h.logger.Error("presign export", zap.Error(err), zap.String("export_id", id.String()))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{"url": url})
}
