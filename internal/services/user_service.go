package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
)

const resetTokenTTL = 30 * time.Minute

// UserService implements user.Service
type UserService struct {
	repo    user.Repository
	planSvc plan.Service
	logger  *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, planSvc plan.Service, log *logger.Logger) user.Service {
	return &UserService{
		repo:    repo,
		planSvc: planSvc,
		logger:  log,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// Register creates a new user with a hashed password and a trial plan
func (s *UserService) Register(ctx context.Context, email, password, username string) (*user.User, error) {
	email = normalizeEmail(email)

	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, errors.Conflict("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	u := &user.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         user.RoleUser,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if _, err := s.planSvc.CreateTrial(ctx, u.ID); err != nil {
		// The account exists; the trial row can be recreated on first plan read
		s.logger.WithFields(map[string]interface{}{
			"user_id": u.ID,
		}).WithError(err).Error("Failed to create trial plan for new user")
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User registered")

	return u, nil
}

// Authenticate verifies email/password credentials
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, errors.Unauthorized("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Invalid email or password")
	}

	return u, nil
}

// Update updates a user's profile fields
func (s *UserService) Update(ctx context.Context, u *user.User) error {
	current, err := s.repo.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}

	// Profile edits never touch credentials
	u.Email = normalizeEmail(u.Email)
	u.PasswordHash = current.PasswordHash
	u.Role = current.Role

	if u.Email != current.Email {
		if existing, err := s.repo.GetByEmail(ctx, u.Email); err == nil && existing != nil && existing.ID != u.ID {
			return errors.Conflict("Email already registered")
		}
	}

	return s.repo.Update(ctx, u)
}

// ChangePassword verifies the current password and sets a new one
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return errors.Unauthorized("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("Failed to hash password", err)
	}

	u.PasswordHash = string(hash)
	return s.repo.Update(ctx, u)
}

// RequestPasswordReset issues a reset token for the email, if it exists
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		// Do not reveal whether the email exists
		return "", nil
	}

	token := uuid.New().String()
	t := &user.ResetToken{
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}

	if err := s.repo.SaveResetToken(ctx, t); err != nil {
		return "", err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
	}).Info("Password reset token issued")

	return token, nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password
func (s *UserService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	t, err := s.repo.ConsumeResetToken(ctx, token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired reset token")
	}
	if time.Now().After(t.ExpiresAt) {
		return errors.Unauthorized("Invalid or expired reset token")
	}

	u, err := s.repo.GetByID(ctx, t.UserID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("Failed to hash password", err)
	}

	u.PasswordHash = string(hash)
	return s.repo.Update(ctx, u)
}

// List retrieves users with pagination
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
