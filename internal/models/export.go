package models

import (
	"time"

	"github.com/google/uuid"
)

// ExportStatus tracks the export artifact lifecycle.
type ExportStatus string

const (
	ExportPending   ExportStatus = "pending"
	ExportCompleted ExportStatus = "completed"
	ExportFailed    ExportStatus = "failed"
)

// Export is a requested CSV artifact of a workspace's responses. The worker
// fills S3Key and Size once the object is uploaded.
type Export struct {
	ID             uuid.UUID    `json:"id"`
	WorkspaceID    *uuid.UUID   `json:"workspace_id,omitempty"`
	OrganizationID *uuid.UUID   `json:"organization_id,omitempty"` // legacy tenant field
	RequestedBy    uuid.UUID    `json:"requested_by"`
	Status         ExportStatus `json:"status"`
	S3Key          string       `json:"s3_key,omitempty"`
	Size           int64        `json:"size,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
