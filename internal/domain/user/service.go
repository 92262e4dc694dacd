package user

import "context"

// Service defines the interface for user business logic
type Service interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Register creates a new user with a hashed password and a trial plan
	Register(ctx context.Context, email, password, username string) (*User, error)

	// Authenticate verifies email/password credentials
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// Update updates a user's profile fields
	Update(ctx context.Context, u *User) error

	// ChangePassword verifies the current password and sets a new one
	ChangePassword(ctx context.Context, userID int64, current, next string) error

	// RequestPasswordReset issues a reset token for the email, if it exists
	RequestPasswordReset(ctx context.Context, email string) (string, error)

	// ConfirmPasswordReset consumes a reset token and sets the new password
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error

	// List retrieves users with pagination
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)
}
