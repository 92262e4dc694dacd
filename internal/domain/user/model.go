package user

import (
	"encoding/json"
	"time"
)

// User represents an account in the system
type User struct {
	ID           int64           `json:"id"`
	Email        string          `json:"email"`
	Username     string          `json:"username,omitempty"`
	FullName     *string         `json:"full_name,omitempty"`
	PasswordHash string          `json:"-"`
	Role         string          `json:"role"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ResetToken is an outstanding password-reset token for a user
type ResetToken struct {
	UserID    int64
	Token     string
	ExpiresAt time.Time
}
