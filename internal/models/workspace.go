package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkspaceType distinguishes a user's personal workspace from an organization.
type WorkspaceType string

const (
	WorkspacePersonal     WorkspaceType = "PERSONAL"
	WorkspaceOrganization WorkspaceType = "ORGANIZATION"
)

// Workspace is a tenant owning groups, activities, responses, and exports.
// Exactly one PERSONAL workspace exists per user by convention (created at
// signup), not by a database constraint.
type Workspace struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Type      WorkspaceType `json:"type"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// WorkspaceRole is the closed set of roles a membership may carry.
type WorkspaceRole string

const (
	WorkspaceRoleOwner       WorkspaceRole = "OWNER"
	WorkspaceRoleOrgAdmin    WorkspaceRole = "ORG_ADMIN"
	WorkspaceRoleStaff       WorkspaceRole = "STAFF"
	WorkspaceRoleParticipant WorkspaceRole = "PARTICIPANT"
)

// MembershipStatus is the membership lifecycle state.
// DISABLED is terminal: re-activation requires a new invite.
type MembershipStatus string

const (
	MembershipInvited  MembershipStatus = "INVITED"
	MembershipActive   MembershipStatus = "ACTIVE"
	MembershipDisabled MembershipStatus = "DISABLED"
)

// WorkspaceMembership links a user to a workspace with role and status.
// Unique per (workspace_id, user_id). Never hard-deleted.
type WorkspaceMembership struct {
	ID          uuid.UUID        `json:"id"`
	WorkspaceID uuid.UUID        `json:"workspace_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Role        WorkspaceRole    `json:"role"`
	Status      MembershipStatus `json:"status"`
	ActivatedAt *time.Time       `json:"activated_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// MembershipWithWorkspace is a membership joined with its workspace,
// as loaded by the resolver.
type MembershipWithWorkspace struct {
	WorkspaceMembership
	WorkspaceName string        `json:"workspace_name"`
	WorkspaceType WorkspaceType `json:"workspace_type"`
}

// Valid reports whether the role is one of the closed set.
func (r WorkspaceRole) Valid() bool {
	switch r {
	case WorkspaceRoleOwner, WorkspaceRoleOrgAdmin, WorkspaceRoleStaff, WorkspaceRoleParticipant:
		return true
	}
	return false
}

// CanManageWorkspace reports whether the role may change workspace settings
// (rename, invite, disable members).
func (r WorkspaceRole) CanManageWorkspace() bool {
	return r == WorkspaceRoleOwner || r == WorkspaceRoleOrgAdmin
}

// CanManageContent reports whether the role may create groups, activities, and exports.
func (r WorkspaceRole) CanManageContent() bool {
	return r == WorkspaceRoleOwner || r == WorkspaceRoleOrgAdmin || r == WorkspaceRoleStaff
}

// WorkspaceInvite is a single-use invitation into a workspace.
// Accepting marks it used; a second accept is rejected.
type WorkspaceInvite struct {
	ID          uuid.UUID     `json:"id"`
	WorkspaceID uuid.UUID     `json:"workspace_id"`
	Email       string        `json:"email"`
	Role        WorkspaceRole `json:"role"`
	Token       string        `json:"token"`
	CreatedBy   uuid.UUID     `json:"created_by"`
	Used        bool          `json:"used"`
	UsedBy      *uuid.UUID    `json:"used_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
