package models

import (
	"time"

	"github.com/google/uuid"
)

// Response is a participant's submission for an activity. Tenancy falls back
// through the activity and then the group when its own fields are unset.
type Response struct {
	ID             uuid.UUID  `json:"id"`
	ActivityID     uuid.UUID  `json:"activity_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Body           string     `json:"body"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	WorkspaceID    *uuid.UUID `json:"workspace_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"` // legacy tenant field
}
