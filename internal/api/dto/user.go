package dto

import (
	"encoding/json"
	"time"

	"github.com/zapagent/zapagent/internal/domain/user"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	FullName  *string   `json:"fullName,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserDTO maps a domain user to its API shape
func NewUserDTO(u *user.User) *UserDTO {
	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UpdateProfileRequest updates the signed-in user's profile
type UpdateProfileRequest struct {
	Email    string          `json:"email,omitempty" validate:"omitempty,email"`
	Username string          `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	FullName *string         `json:"fullName,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}
