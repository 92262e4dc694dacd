package services

import (
	"context"
	"testing"
	"time"

	"github.com/zapagent/zapagent/internal/domain/payment"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/testutil"
)

func newTestPaymentService(t *testing.T, payments *testutil.MockPaymentRepository, users *testutil.MockUserRepository, plans *testutil.MockPlanRepository) payment.Service {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	planSvc := newTestPlanService(t, plans, testutil.NewMockAgentRepository())
	return NewPaymentService(payments, users, planSvc, log)
}

func TestPaymentService_Register_MatchedUser(t *testing.T) {
	mockPayments := testutil.NewMockPaymentRepository()
	mockUsers := testutil.NewMockUserRepository()
	mockPlans := testutil.NewMockPlanRepository()

	ctx := context.Background()
	u := &user.User{Email: "maria@example.com", PasswordHash: "x", Role: user.RoleUser}
	mockUsers.Create(ctx, u)
	mockPlans.Plans[u.ID] = plan.NewTrialPlan(u.ID, time.Now(), 5)

	service := newTestPaymentService(t, mockPayments, mockUsers, mockPlans)

	matched, err := service.Register(ctx, payment.RegisterInput{
		Email:       "Maria@Example.com",
		Tier:        int(plan.TierStandard),
		AmountCents: 19700,
		Method:      payment.MethodPix,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !matched {
		t.Fatal("Register() did not match an existing user")
	}

	if len(mockPayments.Payments) != 1 {
		t.Fatalf("payments stored = %d, want 1", len(mockPayments.Payments))
	}
	if len(mockPayments.TempPayments) != 0 {
		t.Errorf("temp payments stored = %d, want 0", len(mockPayments.TempPayments))
	}

	p := mockPlans.Plans[u.ID]
	if p.Tier != plan.TierStandard {
		t.Errorf("plan tier = %v, want standard", p.Tier)
	}
	if p.PaymentStatus != plan.PaymentStatusPaid {
		t.Errorf("payment status = %q, want paid", p.PaymentStatus)
	}
	if p.SubscriptionEndsAt == nil {
		t.Error("subscription window not set")
	}
}

func TestPaymentService_Register_UnknownEmail(t *testing.T) {
	mockPayments := testutil.NewMockPaymentRepository()
	mockUsers := testutil.NewMockUserRepository()
	mockPlans := testutil.NewMockPlanRepository()

	service := newTestPaymentService(t, mockPayments, mockUsers, mockPlans)

	matched, err := service.Register(context.Background(), payment.RegisterInput{
		Email:       "naocadastrado@example.com",
		Tier:        int(plan.TierBasic),
		AmountCents: 9700,
		Method:      payment.MethodCard,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if matched {
		t.Fatal("Register() matched a nonexistent user")
	}

	if len(mockPayments.Payments) != 0 {
		t.Errorf("payments stored = %d, want 0", len(mockPayments.Payments))
	}
	if len(mockPayments.TempPayments) != 1 {
		t.Fatalf("temp payments stored = %d, want 1", len(mockPayments.TempPayments))
	}
}

func TestPaymentService_Register_Validation(t *testing.T) {
	service := newTestPaymentService(t,
		testutil.NewMockPaymentRepository(),
		testutil.NewMockUserRepository(),
		testutil.NewMockPlanRepository())

	tests := []struct {
		name  string
		input payment.RegisterInput
	}{
		{
			name:  "missing email",
			input: payment.RegisterInput{Method: payment.MethodPix},
		},
		{
			name:  "unknown method",
			input: payment.RegisterInput{Email: "a@b.com", Method: "cheque"},
		},
		{
			name:  "negative amount",
			input: payment.RegisterInput{Email: "a@b.com", Method: payment.MethodPix, AmountCents: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Register(context.Background(), tt.input); err == nil {
				t.Error("Register() accepted invalid input")
			}
		})
	}
}

func TestPaymentService_Reconcile(t *testing.T) {
	mockPayments := testutil.NewMockPaymentRepository()
	mockUsers := testutil.NewMockUserRepository()
	mockPlans := testutil.NewMockPlanRepository()

	ctx := context.Background()
	service := newTestPaymentService(t, mockPayments, mockUsers, mockPlans)

	// Payment arrives before the account exists
	matched, err := service.Register(ctx, payment.RegisterInput{
		Email:       "joao@example.com",
		Tier:        int(plan.TierPremium),
		AmountCents: 39700,
		Method:      payment.MethodPix,
	})
	if err != nil || matched {
		t.Fatalf("Register() = %v, %v, want parked payment", matched, err)
	}

	// Nothing to promote yet
	n, err := service.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("Reconcile() promoted %d rows before the user existed", n)
	}

	// The user registers; the parked payment should be promoted
	u := &user.User{Email: "joao@example.com", PasswordHash: "x", Role: user.RoleUser}
	mockUsers.Create(ctx, u)
	mockPlans.Plans[u.ID] = plan.NewTrialPlan(u.ID, time.Now(), 5)

	n, err = service.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Reconcile() promoted %d rows, want 1", n)
	}

	if len(mockPayments.TempPayments) != 0 {
		t.Errorf("temp payments remaining = %d, want 0", len(mockPayments.TempPayments))
	}
	payments, err := service.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("payments for user = %d, want 1", len(payments))
	}

	if mockPlans.Plans[u.ID].Tier != plan.TierPremium {
		t.Errorf("plan tier after reconcile = %v, want premium", mockPlans.Plans[u.ID].Tier)
	}

	// Reconcile is idempotent once the inbox is empty
	n, err = service.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second Reconcile() promoted %d rows, want 0", n)
	}
}
