package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity is a scheduled questionnaire run within a group. Historical rows
// may lack tenant fields entirely; tenancy then comes from the parent group.
type Activity struct {
	ID             uuid.UUID  `json:"id"`
	GroupID        uuid.UUID  `json:"group_id"`
	Title          string     `json:"title"`
	OpensAt        *time.Time `json:"opens_at,omitempty"`
	ClosesAt       *time.Time `json:"closes_at,omitempty"`
	WorkspaceID    *uuid.UUID `json:"workspace_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"` // legacy tenant field
	CreatedBy      uuid.UUID  `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
