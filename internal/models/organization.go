package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the legacy single-tenant schema's tenant record. New code
// reads it only through the tenancy fallback chain and the backfill job.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Legacy organization role strings as stored in organization_members.
const (
	LegacyRoleAdmin   = "admin"
	LegacyRoleTeacher = "teacher"
	LegacyRoleStudent = "student"
)

// OrgMember is the legacy membership record migrated by the backfill job.
type OrgMember struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// legacyRoleMap is the single place legacy role strings are translated into
// the workspace role enumeration.
var legacyRoleMap = map[string]WorkspaceRole{
	LegacyRoleAdmin:   WorkspaceRoleOrgAdmin,
	LegacyRoleTeacher: WorkspaceRoleStaff,
	LegacyRoleStudent: WorkspaceRoleParticipant,
}

// MapLegacyRole translates a legacy organization role into a workspace role.
// Unknown values map to PARTICIPANT (least privilege); known reports whether
// the input was in the closed legacy set.
func MapLegacyRole(legacy string) (role WorkspaceRole, known bool) {
	if r, ok := legacyRoleMap[legacy]; ok {
		return r, true
	}
	return WorkspaceRoleParticipant, false
}
