package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reflectus-app/backend/internal/models"
	"github.com/reflectus-app/backend/pkg/response"
	"github.com/reflectus-app/backend/pkg/utils"
)

// WorkspaceProvisioner creates the PERSONAL workspace at signup. Satisfied by
// the workspaces repository; an interface here keeps the packages decoupled.
type WorkspaceProvisioner interface {
	ProvisionPersonal(ctx context.Context, userID uuid.UUID, name string) (*models.Workspace, error)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Staff    bool   `json:"staff"` // teachers self-identify at signup
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with the session token.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo        *Repository
	workspaces  WorkspaceProvisioner
	tokens      *TokenService
	adminEmails []string
	production  bool
	logger      *zap.Logger
}

// NewHandler creates an auth handler. adminEmails is the allowlist granting
// the admin coarse role at token issuance.
func NewHandler(repo *Repository, workspaces WorkspaceProvisioner, tokens *TokenService, adminEmails []string, production bool, logger *zap.Logger) *Handler {
	return &Handler{
		repo:        repo,
		workspaces:  workspaces,
		tokens:      tokens,
		adminEmails: adminEmails,
		production:  production,
		logger:      logger,
	}
}

// Register handles POST /auth/register. Creates the user, provisions their
// PERSONAL workspace, and issues session + CSRF cookies.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	existing, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to check email")
		return
	}
	if existing != nil {
		response.BadRequest(c, "email already registered")
		return
	}

	role := models.RoleParticipant
	if req.Staff {
		role = models.RoleStaff
	}
	if IsAdminEmail(h.adminEmails, req.Email) {
		role = models.RoleAdmin
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, role)
	if err != nil {
		response.Internal(c, "failed to create user")
		return
	}

	ws, err := h.workspaces.ProvisionPersonal(c.Request.Context(), user.ID, user.FullName)
	if err != nil {
		h.logger.Error("provision personal workspace", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to provision workspace")
		return
	}

	token, err := h.issueToken(c.Request.Context(), user, ws.ID.String(), string(models.WorkspaceRoleOwner))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	h.setSessionCookies(c, token)
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	if user == nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.issueToken(c.Request.Context(), user, "", "")
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	h.setSessionCookies(c, token)
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	claims := ClaimsFrom(c)
	if claims == nil {
		response.Unauthorized(c, "unauthenticated")
		return
	}
	userID, ok := claims.UserID()
	if !ok {
		response.Unauthorized(c, "unauthenticated")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		response.Internal(c, "failed to load user")
		return
	}
	response.OK(c, user.ToPublic())
}

// List handles GET /admin/users (admin coarse role).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// issueToken builds the claims for a user: coarse role (allowlist may
// elevate), the legacy organization pair when one exists, and the active
// workspace pair when known.
func (h *Handler) issueToken(ctx context.Context, user *models.User, workspaceID, workspaceRole string) (string, error) {
	role := user.Role
	if IsAdminEmail(h.adminEmails, user.Email) {
		role = models.RoleAdmin
	}
	orgID, orgRole, err := h.repo.LegacyOrgContext(ctx, user.ID)
	if err != nil {
		return "", err
	}
	claims := Claims{
		Email:         user.Email,
		Role:          role,
		OrgID:         orgID,
		OrgRole:       orgRole,
		WorkspaceID:   workspaceID,
		WorkspaceRole: workspaceRole,
	}
	claims.Subject = user.ID.String()
	return h.tokens.Sign(claims, 0)
}

// setSessionCookies sets the http-only session cookie and the JS-readable
// CSRF cookie whose value must be echoed in the x-csrf-token header on
// mutating requests.
func (h *Handler) setSessionCookies(c *gin.Context, token string) {
	maxAge := int(h.tokens.TTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", h.production, true)
	c.SetCookie(CSRFCookie, uuid.New().String(), maxAge, "/", "", h.production, false)
}
