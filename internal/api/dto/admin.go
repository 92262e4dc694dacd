package dto

import (
	"time"

	"github.com/zapagent/zapagent/internal/domain/admin"
)

// AdminDTO represents a back-office admin in API responses
type AdminDTO struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAdminDTO maps a domain admin to its API shape
func NewAdminDTO(a *admin.AdminUser) *AdminDTO {
	return &AdminDTO{
		ID:        a.ID,
		UserID:    a.UserID,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// GroupDTO represents a group in API responses
type GroupDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewGroupDTO maps a domain group to its API shape
func NewGroupDTO(g *admin.Group) *GroupDTO {
	return &GroupDTO{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
	}
}

// CreateAdminRequest creates an admin
type CreateAdminRequest struct {
	UserID int64  `json:"userId" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required,oneof=master group"`
}

// UpdateAdminRequest changes an admin's role
type UpdateAdminRequest struct {
	Role string `json:"role" validate:"required,oneof=master group"`
}

// BootstrapRequest creates the first master admin
type BootstrapRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateGroupRequest creates a group
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// GroupMemberRequest adds or removes a group member
type GroupMemberRequest struct {
	UserID int64 `json:"userId" validate:"required"`
}

// GroupAdminRequest assigns or unassigns a group admin
type GroupAdminRequest struct {
	AdminID int64 `json:"adminId" validate:"required"`
}
