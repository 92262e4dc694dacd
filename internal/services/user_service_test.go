package services

import (
	"context"
	"testing"

	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/testutil"
)

func newTestUserService(t *testing.T, users *testutil.MockUserRepository, plans *testutil.MockPlanRepository) user.Service {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	planSvc := newTestPlanService(t, plans, testutil.NewMockAgentRepository())
	return NewUserService(users, planSvc, log)
}

func TestUserService_Register(t *testing.T) {
	mockUsers := testutil.NewMockUserRepository()
	mockPlans := testutil.NewMockPlanRepository()
	service := newTestUserService(t, mockUsers, mockPlans)
	ctx := context.Background()

	u, err := service.Register(ctx, "Maria@Example.com", "s3cretpass", "maria")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if u.Email != "maria@example.com" {
		t.Errorf("email = %q, want lowercased", u.Email)
	}
	if u.PasswordHash == "s3cretpass" || u.PasswordHash == "" {
		t.Error("password stored unhashed")
	}
	if u.Role != user.RoleUser {
		t.Errorf("role = %q, want %q", u.Role, user.RoleUser)
	}

	// Registration creates the trial plan alongside the account
	p, ok := mockPlans.Plans[u.ID]
	if !ok {
		t.Fatal("no trial plan created at signup")
	}
	if p.Tier != plan.TierFreeTrial {
		t.Errorf("plan tier = %v, want free trial", p.Tier)
	}

	// Duplicate email is refused
	if _, err := service.Register(ctx, "maria@example.com", "another", ""); err == nil {
		t.Error("Register() accepted a duplicate email")
	}
}

func TestUserService_Authenticate(t *testing.T) {
	mockUsers := testutil.NewMockUserRepository()
	service := newTestUserService(t, mockUsers, testutil.NewMockPlanRepository())
	ctx := context.Background()

	if _, err := service.Register(ctx, "maria@example.com", "s3cretpass", "maria"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "correct credentials", email: "maria@example.com", password: "s3cretpass"},
		{name: "case-insensitive email", email: "MARIA@example.com", password: "s3cretpass"},
		{name: "wrong password", email: "maria@example.com", password: "nope", wantErr: true},
		{name: "unknown email", email: "ghost@example.com", password: "s3cretpass", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Authenticate(ctx, tt.email, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	mockUsers := testutil.NewMockUserRepository()
	service := newTestUserService(t, mockUsers, testutil.NewMockPlanRepository())
	ctx := context.Background()

	u, err := service.Register(ctx, "maria@example.com", "oldpass", "maria")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := service.ChangePassword(ctx, u.ID, "wrong", "newpass"); err == nil {
		t.Error("ChangePassword() accepted a wrong current password")
	}

	if err := service.ChangePassword(ctx, u.ID, "oldpass", "newpass"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := service.Authenticate(ctx, "maria@example.com", "newpass"); err != nil {
		t.Errorf("Authenticate() with new password error = %v", err)
	}
	if _, err := service.Authenticate(ctx, "maria@example.com", "oldpass"); err == nil {
		t.Error("old password still works")
	}
}

func TestUserService_PasswordReset(t *testing.T) {
	mockUsers := testutil.NewMockUserRepository()
	service := newTestUserService(t, mockUsers, testutil.NewMockPlanRepository())
	ctx := context.Background()

	if _, err := service.Register(ctx, "maria@example.com", "oldpass", "maria"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Unknown emails get an empty token, not an error
	token, err := service.RequestPasswordReset(ctx, "ghost@example.com")
	if err != nil || token != "" {
		t.Errorf("RequestPasswordReset(unknown) = %q, %v, want empty, nil", token, err)
	}

	token, err = service.RequestPasswordReset(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if token == "" {
		t.Fatal("RequestPasswordReset() returned an empty token")
	}

	if err := service.ConfirmPasswordReset(ctx, token, "resetpass"); err != nil {
		t.Fatalf("ConfirmPasswordReset() error = %v", err)
	}
	if _, err := service.Authenticate(ctx, "maria@example.com", "resetpass"); err != nil {
		t.Errorf("Authenticate() after reset error = %v", err)
	}

	// Tokens are single use
	if err := service.ConfirmPasswordReset(ctx, token, "again"); err == nil {
		t.Error("ConfirmPasswordReset() accepted a consumed token")
	}
}
