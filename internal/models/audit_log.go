package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a mutating action within a workspace.
type AuditLog struct {
	ID             uuid.UUID  `json:"id"`
	WorkspaceID    *uuid.UUID `json:"workspace_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"` // legacy tenant field
	ActorID        uuid.UUID  `json:"actor_id"`
	Action         string     `json:"action"`
	ObjectType     string     `json:"object_type"`
	ObjectID       *uuid.UUID `json:"object_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
