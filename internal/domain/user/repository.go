package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, u *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates a user
	Update(ctx context.Context, u *User) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error

	// List retrieves users with pagination
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)

	// ListByGroup retrieves users belonging to a group
	ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*User, int64, error)

	// SaveResetToken stores a password-reset token, replacing any previous one
	SaveResetToken(ctx context.Context, t *ResetToken) error

	// ConsumeResetToken fetches and deletes a reset token
	ConsumeResetToken(ctx context.Context, token string) (*ResetToken, error)
}
