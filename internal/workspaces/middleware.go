package workspaces

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reflectus-app/backend/internal/auth"
	"github.com/reflectus-app/backend/pkg/response"
)

// ContextWorkspace is the gin context key holding the resolved *Context.
const ContextWorkspace = "workspace_context"

// FromContext returns the workspace resolved for this request, or nil.
func FromContext(c *gin.Context) *Context {
	v, ok := c.Get(ContextWorkspace)
	if !ok {
		return nil
	}
	ws, ok := v.(*Context)
	if !ok {
		return nil
	}
	return ws
}

// RequireWorkspace resolves the request's workspace and stores it in the gin
// context. Runs after the session middleware; aborts with the status the
// resolver maps the failure to.
func RequireWorkspace(resolver *Resolver, requireActive bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.ClaimsFrom(c)
		if claims == nil {
			response.Error(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		userID, ok := claims.UserID()
		if !ok {
			response.Error(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		ws, rerr := resolver.Resolve(c.Request.Context(), userID, c.GetHeader(WorkspaceHeader), claims.WorkspaceID, requireActive)
		if rerr != nil {
			response.Error(c, rerr.Status, rerr.Message)
			c.Abort()
			return
		}

		c.Set(ContextWorkspace, ws)
		c.Next()
	}
}
