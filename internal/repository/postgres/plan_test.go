package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/testutil"
)

func createTestUser(t *testing.T, repo user.Repository, email string) *user.User {
	t.Helper()
	u := &user.User{Email: email, PasswordHash: "hashed", Role: user.RoleUser}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create user error = %v", err)
	}
	return u
}

func TestPlanRepository_RoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	users := NewUserRepository(db)
	repo := NewPlanRepository(db)
	ctx := context.Background()

	u := createTestUser(t, users, "maria@example.com")

	now := time.Now().Truncate(time.Second)
	p := plan.NewTrialPlan(u.ID, now, 5)
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if got.Tier != plan.TierFreeTrial {
		t.Errorf("tier = %v, want free trial", got.Tier)
	}
	if got.TrialEndsAt == nil || !got.TrialEndsAt.Equal(now.AddDate(0, 0, 5)) {
		t.Errorf("trial ends at %v, want %v", got.TrialEndsAt, now.AddDate(0, 0, 5))
	}
	if got.SubscriptionEndsAt != nil {
		t.Errorf("subscription window = %v, want nil", got.SubscriptionEndsAt)
	}
	if got.ConnectInstance {
		t.Error("connect_instance defaulted to true")
	}

	// Upgrade the row and read it back
	ends := now.AddDate(0, 1, 0)
	got.Tier = plan.TierStandard
	got.AgentLimit = 3
	got.SubscriptionEndsAt = &ends
	got.PaymentStatus = plan.PaymentStatusPaid
	got.PaymentDate = &now
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	updated, err := repo.GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if updated.Tier != plan.TierStandard || updated.AgentLimit != 3 {
		t.Errorf("updated plan = tier %v limit %d, want standard/3", updated.Tier, updated.AgentLimit)
	}
	if updated.SubscriptionEndsAt == nil || !updated.SubscriptionEndsAt.Equal(ends) {
		t.Errorf("subscription ends at %v, want %v", updated.SubscriptionEndsAt, ends)
	}
	if updated.PaymentStatus != plan.PaymentStatusPaid {
		t.Errorf("payment status = %q, want paid", updated.PaymentStatus)
	}
}

func TestPlanRepository_ListExpiring(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	users := NewUserRepository(db)
	repo := NewPlanRepository(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)

	// Expired trial
	u1 := createTestUser(t, users, "expired-trial@example.com")
	expiredTrial := plan.NewTrialPlan(u1.ID, now.AddDate(0, 0, -10), 5)
	if err := repo.Create(ctx, expiredTrial); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Active trial
	u2 := createTestUser(t, users, "active-trial@example.com")
	activeTrial := plan.NewTrialPlan(u2.ID, now, 5)
	if err := repo.Create(ctx, activeTrial); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Lapsed subscription
	u3 := createTestUser(t, users, "lapsed@example.com")
	lapsedEnd := now.AddDate(0, 0, -1)
	lapsed := &plan.UserPlan{
		UserID:             u3.ID,
		Tier:               plan.TierBasic,
		AgentLimit:         1,
		SubscriptionEndsAt: &lapsedEnd,
		PaymentStatus:      plan.PaymentStatusPaid,
	}
	if err := repo.Create(ctx, lapsed); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Already marked expired: must not come back again
	u4 := createTestUser(t, users, "already-expired@example.com")
	alreadyEnd := now.AddDate(0, 0, -2)
	already := &plan.UserPlan{
		UserID:             u4.ID,
		Tier:               plan.TierBasic,
		AgentLimit:         1,
		SubscriptionEndsAt: &alreadyEnd,
		PaymentStatus:      plan.PaymentStatusExpired,
	}
	if err := repo.Create(ctx, already); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	expiring, err := repo.ListExpiring(ctx, now.Unix())
	if err != nil {
		t.Fatalf("ListExpiring() error = %v", err)
	}

	if len(expiring) != 2 {
		t.Fatalf("ListExpiring() returned %d plans, want 2", len(expiring))
	}
	seen := map[int64]bool{}
	for _, p := range expiring {
		seen[p.UserID] = true
	}
	if !seen[u1.ID] || !seen[u3.ID] {
		t.Errorf("ListExpiring() users = %v, want expired trial and lapsed subscription", seen)
	}
}
