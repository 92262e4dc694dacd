package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/testutil"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	fullName := "Maria Silva"
	u := &user.User{
		Email:        "maria@example.com",
		Username:     "maria",
		FullName:     &fullName,
		PasswordHash: "hashed",
		Role:         user.RoleUser,
	}

	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID == 0 {
		t.Fatal("Create() did not set user ID")
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != u.Email {
		t.Errorf("email = %q, want %q", got.Email, u.Email)
	}
	if got.FullName == nil || *got.FullName != fullName {
		t.Errorf("full name = %v, want %q", got.FullName, fullName)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not persisted")
	}

	byEmail, err := repo.GetByEmail(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetByEmail() ID = %d, want %d", byEmail.ID, u.ID)
	}

	if _, err := repo.GetByID(ctx, 9999); err == nil {
		t.Error("GetByID() found a nonexistent user")
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{Email: "maria@example.com", PasswordHash: "hashed", Role: user.RoleUser}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	u.Username = "maria2026"
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "maria2026" {
		t.Errorf("username = %q, want %q", got.Username, "maria2026")
	}

	ghost := &user.User{ID: 9999, Email: "ghost@example.com", PasswordHash: "x", Role: user.RoleUser}
	if err := repo.Update(ctx, ghost); err == nil {
		t.Error("Update() succeeded for a nonexistent user")
	}
}

func TestUserRepository_ResetTokens(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{Email: "maria@example.com", PasswordHash: "hashed", Role: user.RoleUser}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first := &user.ResetToken{UserID: u.ID, Token: "token-1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.SaveResetToken(ctx, first); err != nil {
		t.Fatalf("SaveResetToken() error = %v", err)
	}

	// Saving a second token replaces the first
	second := &user.ResetToken{UserID: u.ID, Token: "token-2", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.SaveResetToken(ctx, second); err != nil {
		t.Fatalf("SaveResetToken() error = %v", err)
	}
	if _, err := repo.ConsumeResetToken(ctx, "token-1"); err == nil {
		t.Error("replaced token was still consumable")
	}

	got, err := repo.ConsumeResetToken(ctx, "token-2")
	if err != nil {
		t.Fatalf("ConsumeResetToken() error = %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("token user = %d, want %d", got.UserID, u.ID)
	}

	// Tokens are single use
	if _, err := repo.ConsumeResetToken(ctx, "token-2"); err == nil {
		t.Error("consumed token was still consumable")
	}
}
