package workspaces

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/reflectus-app/backend/internal/models"
)

// WorkspaceHeader selects the workspace for a request. It takes precedence
// over the active-workspace claim baked into the session token.
const WorkspaceHeader = "X-Workspace-Id"

// Context is the tenant identity every scoped handler runs under.
type Context struct {
	WorkspaceID   uuid.UUID               `json:"workspace_id"`
	WorkspaceType models.WorkspaceType    `json:"workspace_type"`
	Role          models.WorkspaceRole    `json:"role"`
	Status        models.MembershipStatus `json:"status"`
}

// ResolveError carries the HTTP status the resolution failure maps to.
type ResolveError struct {
	Status  int
	Message string
}

func (e *ResolveError) Error() string { return e.Message }

// MembershipLister is the slice of the membership store the resolver needs.
type MembershipLister interface {
	ListForUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]models.MembershipWithWorkspace, error)
}

// Resolver picks the workspace a request operates in. Membership is checked
// against the store on every call; nothing is cached, so a revoked
// membership takes effect on the next request.
type Resolver struct {
	memberships MembershipLister
}

func NewResolver(memberships MembershipLister) *Resolver {
	return &Resolver{memberships: memberships}
}

// Resolve determines the request's workspace. requestedID comes from the
// X-Workspace-Id header, claimedID from the session token; the header wins
// when both are set. With neither, the caller's default workspace is used:
// PERSONAL workspaces first, then most recently activated.
//
// An explicitly requested workspace the caller has no membership in yields
// 404, not 403, so callers cannot probe which workspaces exist. A matched
// membership that is not ACTIVE yields 403 when requireActive is set.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, requestedID, claimedID string, requireActive bool) (*Context, *ResolveError) {
	requested := requestedID
	if requested == "" {
		requested = claimedID
	}

	list, err := r.memberships.ListForUser(ctx, userID, false)
	if err != nil {
		return nil, &ResolveError{Status: http.StatusInternalServerError, Message: "failed to load memberships"}
	}
	if len(list) == 0 {
		return nil, &ResolveError{Status: http.StatusForbidden, Message: "no workspace membership"}
	}

	sortMemberships(list)

	var match *models.MembershipWithWorkspace
	if requested != "" {
		wsID, err := uuid.Parse(requested)
		if err != nil {
			return nil, &ResolveError{Status: http.StatusNotFound, Message: "workspace not found"}
		}
		for i := range list {
			if list[i].WorkspaceID == wsID {
				match = &list[i]
				break
			}
		}
		if match == nil {
			return nil, &ResolveError{Status: http.StatusNotFound, Message: "workspace not found"}
		}
	} else {
		match = &list[0]
	}

	if requireActive && match.Status != models.MembershipActive {
		return nil, &ResolveError{Status: http.StatusForbidden, Message: "workspace membership is not active"}
	}

	return &Context{
		WorkspaceID:   match.WorkspaceID,
		WorkspaceType: match.WorkspaceType,
		Role:          match.Role,
		Status:        match.Status,
	}, nil
}

// sortMemberships orders PERSONAL workspaces first, then by activation time
// descending. The first element is the caller's default workspace.
func sortMemberships(list []models.MembershipWithWorkspace) {
	sort.SliceStable(list, func(i, j int) bool {
		pi := list[i].WorkspaceType == models.WorkspacePersonal
		pj := list[j].WorkspaceType == models.WorkspacePersonal
		if pi != pj {
			return pi
		}
		return activatedAt(list[i]).After(activatedAt(list[j]))
	})
}

func activatedAt(m models.MembershipWithWorkspace) time.Time {
	if m.ActivatedAt == nil {
		return time.Time{}
	}
	return *m.ActivatedAt
}
