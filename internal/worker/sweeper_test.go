package worker

import (
	"context"
	"testing"
	"time"

	"github.com/zapagent/zapagent/internal/domain/payment"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/services"
	"github.com/zapagent/zapagent/internal/testutil"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func seedPlan(repo *testutil.MockPlanRepository, p *plan.UserPlan) {
	repo.Plans[p.UserID] = p
}

func TestSweepExpiresPlans(t *testing.T) {
	log := testLogger()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	planRepo := testutil.NewMockPlanRepository()

	expiredTrialEnd := now.Add(-time.Hour)
	seedPlan(planRepo, &plan.UserPlan{
		ID:            1,
		UserID:        1,
		Tier:          plan.TierFreeTrial,
		AgentLimit:    1,
		TrialEndsAt:   &expiredTrialEnd,
		PaymentStatus: plan.PaymentStatusNone,
	})

	lapsedSubEnd := now.Add(-24 * time.Hour)
	seedPlan(planRepo, &plan.UserPlan{
		ID:                 2,
		UserID:             2,
		Tier:               plan.TierStandard,
		AgentLimit:         3,
		SubscriptionEndsAt: &lapsedSubEnd,
		PaymentStatus:      plan.PaymentStatusPaid,
	})

	activeSubEnd := now.Add(24 * time.Hour)
	seedPlan(planRepo, &plan.UserPlan{
		ID:                 3,
		UserID:             3,
		Tier:               plan.TierPremium,
		AgentLimit:         10,
		SubscriptionEndsAt: &activeSubEnd,
		PaymentStatus:      plan.PaymentStatusPaid,
	})

	userRepo := testutil.NewMockUserRepository()
	payRepo := testutil.NewMockPaymentRepository()
	catalog, err := plan.LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	planSvc := services.NewPlanService(planRepo, testutil.NewMockAgentRepository(), catalog, plan.DefaultTrialDays, log)
	paySvc := services.NewPaymentService(payRepo, userRepo, planSvc, log)

	s := NewSweeper(planRepo, paySvc, log)
	s.now = func() time.Time { return now }

	s.sweep()

	if got := planRepo.Plans[1].PaymentStatus; got != plan.PaymentStatusExpired {
		t.Errorf("expired trial status = %s, want %s", got, plan.PaymentStatusExpired)
	}
	if got := planRepo.Plans[2].PaymentStatus; got != plan.PaymentStatusExpired {
		t.Errorf("lapsed subscription status = %s, want %s", got, plan.PaymentStatusExpired)
	}
	// Expiry keeps the tier so a later payment reactivates the old limits
	if got := planRepo.Plans[2].Tier; got != plan.TierStandard {
		t.Errorf("lapsed subscription tier = %v, want %v", got, plan.TierStandard)
	}
	if got := planRepo.Plans[3].PaymentStatus; got != plan.PaymentStatusPaid {
		t.Errorf("active subscription status = %s, want %s", got, plan.PaymentStatusPaid)
	}
}

func TestSweepReconcilesTempPayments(t *testing.T) {
	log := testLogger()

	planRepo := testutil.NewMockPlanRepository()
	userRepo := testutil.NewMockUserRepository()
	payRepo := testutil.NewMockPaymentRepository()

	catalog, err := plan.LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	planSvc := services.NewPlanService(planRepo, testutil.NewMockAgentRepository(), catalog, plan.DefaultTrialDays, log)
	paySvc := services.NewPaymentService(payRepo, userRepo, planSvc, log)

	u := &user.User{Email: "ana@example.com"}
	if err := userRepo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create user error = %v", err)
	}
	if _, err := planSvc.CreateTrial(context.Background(), u.ID); err != nil {
		t.Fatalf("CreateTrial() error = %v", err)
	}

	paidAt := time.Now().Add(-time.Hour)
	if err := payRepo.CreateTemp(context.Background(), &payment.TempPayment{
		Email:       "ana@example.com",
		Tier:        int(plan.TierBasic),
		AmountCents: 9700,
		Method:      payment.MethodPix,
		Status:      payment.StatusConfirmed,
		PaidAt:      &paidAt,
	}); err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}

	s := NewSweeper(planRepo, paySvc, log)
	s.sweep()

	temps, err := payRepo.ListTemp(context.Background())
	if err != nil {
		t.Fatalf("ListTemp() error = %v", err)
	}
	if len(temps) != 0 {
		t.Errorf("temp payments = %d after sweep, want 0", len(temps))
	}

	p := planRepo.Plans[u.ID]
	if p.Tier != plan.TierBasic {
		t.Errorf("tier = %v, want %v", p.Tier, plan.TierBasic)
	}
	if p.PaymentStatus != plan.PaymentStatusPaid {
		t.Errorf("payment status = %s, want %s", p.PaymentStatus, plan.PaymentStatusPaid)
	}
}
