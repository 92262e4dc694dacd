package services

import (
	"context"
	"testing"
	"time"

	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/testutil"
)

func newTestPlanService(t *testing.T, repo plan.Repository, agents agentCounter) *PlanService {
	t.Helper()

	catalog, err := plan.LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return NewPlanService(repo, agents, catalog, plan.DefaultTrialDays, log).(*PlanService)
}

func TestPlanService_CreateTrial(t *testing.T) {
	mockRepo := testutil.NewMockPlanRepository()
	service := newTestPlanService(t, mockRepo, testutil.NewMockAgentRepository())
	ctx := context.Background()

	p, err := service.CreateTrial(ctx, 1)
	if err != nil {
		t.Fatalf("CreateTrial() error = %v", err)
	}

	if p.Tier != plan.TierFreeTrial {
		t.Errorf("tier = %v, want free trial", p.Tier)
	}
	if p.AgentLimit != 1 {
		t.Errorf("agent limit = %d, want 1", p.AgentLimit)
	}
	if p.TrialEndsAt == nil {
		t.Fatal("trial end date not set")
	}

	wantEnd := p.TrialStartedAt.AddDate(0, 0, plan.DefaultTrialDays)
	if !p.TrialEndsAt.Equal(wantEnd) {
		t.Errorf("trial ends at %v, want %v", p.TrialEndsAt, wantEnd)
	}

	// A second trial for the same user is refused
	if _, err := service.CreateTrial(ctx, 1); err == nil {
		t.Error("CreateTrial() allowed a duplicate plan")
	}
}

func TestPlanService_GetByUserIDRecreatesMissingTrial(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// No plan row for user 1, as if the trial insert at signup was lost
	mockRepo := testutil.NewMockPlanRepository()
	service := newTestPlanService(t, mockRepo, testutil.NewMockAgentRepository())
	service.now = func() time.Time { return now }
	ctx := context.Background()

	p, err := service.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}

	if p.Tier != plan.TierFreeTrial {
		t.Errorf("tier = %v, want free trial", p.Tier)
	}
	if p.TrialEndsAt == nil || !p.TrialEndsAt.Equal(now.AddDate(0, 0, plan.DefaultTrialDays)) {
		t.Errorf("trial ends at %v, want %v", p.TrialEndsAt, now.AddDate(0, 0, plan.DefaultTrialDays))
	}
	if _, ok := mockRepo.Plans[1]; !ok {
		t.Error("recreated plan was not persisted")
	}
}

func TestPlanService_GetTrialStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		plan       *plan.UserPlan
		wantStatus string
		wantDays   int
	}{
		{
			name: "active trial",
			plan: func() *plan.UserPlan {
				p := plan.NewTrialPlan(1, now.Add(-24*time.Hour), 5)
				return p
			}(),
			wantStatus: "active",
			wantDays:   4,
		},
		{
			name: "expired trial",
			plan: func() *plan.UserPlan {
				p := plan.NewTrialPlan(1, now.Add(-10*24*time.Hour), 5)
				return p
			}(),
			wantStatus: "expired",
		},
		{
			name: "active subscription",
			plan: func() *plan.UserPlan {
				ends := now.Add(10 * 24 * time.Hour)
				return &plan.UserPlan{UserID: 1, Tier: plan.TierBasic, AgentLimit: 1, SubscriptionEndsAt: &ends}
			}(),
			wantStatus: "subscribed",
		},
		{
			name: "lapsed subscription",
			plan: func() *plan.UserPlan {
				ends := now.Add(-24 * time.Hour)
				return &plan.UserPlan{UserID: 1, Tier: plan.TierBasic, AgentLimit: 1, SubscriptionEndsAt: &ends}
			}(),
			wantStatus: "subscription_expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := testutil.NewMockPlanRepository()
			mockRepo.Plans[1] = tt.plan

			service := newTestPlanService(t, mockRepo, testutil.NewMockAgentRepository())
			service.now = func() time.Time { return now }

			st, err := service.GetTrialStatus(context.Background(), 1)
			if err != nil {
				t.Fatalf("GetTrialStatus() error = %v", err)
			}
			if st.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", st.Status, tt.wantStatus)
			}
			if st.DaysRemaining != tt.wantDays {
				t.Errorf("days remaining = %d, want %d", st.DaysRemaining, tt.wantDays)
			}
		})
	}
}

func TestPlanService_Upgrade(t *testing.T) {
	mockRepo := testutil.NewMockPlanRepository()
	service := newTestPlanService(t, mockRepo, testutil.NewMockAgentRepository())
	ctx := context.Background()

	if _, err := service.CreateTrial(ctx, 1); err != nil {
		t.Fatalf("CreateTrial() error = %v", err)
	}

	p, err := service.Upgrade(ctx, 1, plan.TierStandard)
	if err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	if p.Tier != plan.TierStandard {
		t.Errorf("tier = %v, want standard", p.Tier)
	}
	if p.AgentLimit != 3 {
		t.Errorf("agent limit = %d, want 3 from catalog", p.AgentLimit)
	}
	if p.SubscriptionEndsAt == nil {
		t.Error("subscription window not set")
	}
	if p.PaymentStatus != plan.PaymentStatusPending {
		t.Errorf("payment status = %q, want pending", p.PaymentStatus)
	}

	// Upgrading to the free tier is not a thing
	if _, err := service.Upgrade(ctx, 1, plan.TierFreeTrial); err == nil {
		t.Error("Upgrade() accepted the free trial tier")
	}
}

func TestPlanService_ApplyPromo(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mockRepo := testutil.NewMockPlanRepository()
	expired := plan.NewTrialPlan(1, now.Add(-30*24*time.Hour), 5)
	expired.ID = 1
	mockRepo.Plans[1] = expired

	service := newTestPlanService(t, mockRepo, testutil.NewMockAgentRepository())
	service.now = func() time.Time { return now }

	p, err := service.ApplyPromo(context.Background(), 1)
	if err != nil {
		t.Fatalf("ApplyPromo() error = %v", err)
	}

	if p.Tier != plan.TierFreeTrial {
		t.Errorf("tier = %v, want free trial", p.Tier)
	}
	if p.TrialEndsAt == nil || !p.TrialEndsAt.Equal(now.AddDate(0, 0, plan.PromoTrialDays)) {
		t.Errorf("promo trial ends at %v, want %v", p.TrialEndsAt, now.AddDate(0, 0, plan.PromoTrialDays))
	}
	if plan.HasTrialExpired(p, now) {
		t.Error("promo trial starts expired")
	}
}

func TestPlanService_CanCreateAgent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mockPlans := testutil.NewMockPlanRepository()
	mockPlans.Plans[1] = plan.NewTrialPlan(1, now, 5)

	mockAgents := testutil.NewMockAgentRepository()

	service := newTestPlanService(t, mockPlans, mockAgents)
	service.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := service.CanCreateAgent(ctx, 1)
	if err != nil {
		t.Fatalf("CanCreateAgent() error = %v", err)
	}
	if !ok {
		t.Error("fresh trial user cannot create their first agent")
	}
}

func TestPlanService_CacheInvalidation(t *testing.T) {
	mockRepo := testutil.NewMockPlanRepository()
	service := newTestPlanService(t, mockRepo, testutil.NewMockAgentRepository())
	ctx := context.Background()

	if _, err := service.CreateTrial(ctx, 1); err != nil {
		t.Fatalf("CreateTrial() error = %v", err)
	}

	// Warm the cache, then upgrade and make sure the next read sees the change
	before, err := service.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if before.Tier != plan.TierFreeTrial {
		t.Fatalf("tier = %v before upgrade, want free trial", before.Tier)
	}

	if _, err := service.Upgrade(ctx, 1, plan.TierBasic); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	after, err := service.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if after.Tier != plan.TierBasic {
		t.Errorf("tier = %v after upgrade, want basic (stale cache?)", after.Tier)
	}
}
