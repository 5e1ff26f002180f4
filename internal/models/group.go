package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a class/cohort owning activities. During the schema transition a
// group may carry a legacy organization_id, a workspace_id, or both; its
// effective tenant is computed by the tenancy fallback chain, never ad hoc.
type Group struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	WorkspaceID    *uuid.UUID `json:"workspace_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"` // legacy tenant field
	CreatedBy      uuid.UUID  `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
