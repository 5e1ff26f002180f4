package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the platform-wide coarse role carried in the session token.
// Workspace-level permissions come from WorkspaceRole, not from here.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleStaff       Role = "staff"
	RoleParticipant Role = "participant"
)

// roleRank orders coarse roles so that admin satisfies any lesser requirement.
var roleRank = map[Role]int{
	RoleParticipant: 1,
	RoleStaff:       2,
	RoleAdmin:       3,
}

// Satisfies reports whether r meets the required coarse role.
func (r Role) Satisfies(required Role) bool {
	return roleRank[r] >= roleRank[required] && roleRank[r] > 0
}

// User represents a platform user.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
