package services

import (
	"context"
	"strings"
	"time"

	"github.com/zapagent/zapagent/internal/domain/payment"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/metrics"
)

// PaymentService implements payment.Service
type PaymentService struct {
	repo    payment.Repository
	users   user.Repository
	planSvc plan.Service
	logger  *logger.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(repo payment.Repository, users user.Repository, planSvc plan.Service, log *logger.Logger) payment.Service {
	return &PaymentService{
		repo:    repo,
		users:   users,
		planSvc: planSvc,
		logger:  log,
	}
}

func validMethod(m string) bool {
	switch m {
	case payment.MethodPix, payment.MethodCard, payment.MethodBoleto, payment.MethodManual:
		return true
	}
	return false
}

// Register records a payment for the email's user, or a temp payment when the
// email has no account yet. Matched payments immediately mark the plan paid.
func (s *PaymentService) Register(ctx context.Context, in payment.RegisterInput) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return false, errors.BadRequest("Email is required")
	}
	if !validMethod(in.Method) {
		return false, errors.BadRequest("Unknown payment method")
	}
	if in.AmountCents < 0 {
		return false, errors.BadRequest("Amount cannot be negative")
	}

	now := time.Now()

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// No account yet: park the payment for reconciliation
		t := &payment.TempPayment{
			Email:       email,
			Tier:        in.Tier,
			AmountCents: in.AmountCents,
			Method:      in.Method,
			Status:      payment.StatusConfirmed,
			PaidAt:      &now,
			Notes:       in.Notes,
		}
		if err := s.repo.CreateTemp(ctx, t); err != nil {
			return false, err
		}

		s.logger.WithFields(map[string]interface{}{
			"email": email,
			"tier":  in.Tier,
		}).Info("Payment parked for unregistered email")
		return false, nil
	}

	if err := s.applyPayment(ctx, u.ID, in.Tier, in.AmountCents, in.Method, in.Notes, now); err != nil {
		return false, err
	}
	return true, nil
}

// applyPayment records a confirmed payment row and upgrades the plan
func (s *PaymentService) applyPayment(ctx context.Context, userID int64, tier int, amountCents int64, method, notes string, paidAt time.Time) error {
	p := &payment.Payment{
		UserID:      userID,
		Tier:        tier,
		AmountCents: amountCents,
		Method:      method,
		Status:      payment.StatusConfirmed,
		PaidAt:      &paidAt,
		Notes:       notes,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	t := plan.Tier(tier)
	if t.Valid() && t != plan.TierFreeTrial {
		if _, err := s.planSvc.Upgrade(ctx, userID, t); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"user_id": userID,
				"tier":    tier,
			}).WithError(err).Error("Payment recorded but plan upgrade failed")
		}
	}

	if err := s.planSvc.MarkPaid(ctx, userID, paidAt); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
		}).WithError(err).Error("Payment recorded but plan not marked paid")
	}

	return nil
}

// ListByUser retrieves a user's payments
func (s *PaymentService) ListByUser(ctx context.Context, userID int64) ([]*payment.Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// List retrieves payments with pagination
func (s *PaymentService) List(ctx context.Context, limit, offset int) ([]*payment.Payment, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// Delete deletes a payment
func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ListTemp retrieves the unmatched payments
func (s *PaymentService) ListTemp(ctx context.Context) ([]*payment.TempPayment, error) {
	return s.repo.ListTemp(ctx)
}

// Reconcile promotes temp payments whose email now has a user. Each promoted
// row becomes a confirmed payment and the temp row is removed.
func (s *PaymentService) Reconcile(ctx context.Context) (int, error) {
	temps, err := s.repo.ListTemp(ctx)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, t := range temps {
		u, err := s.users.GetByEmail(ctx, t.Email)
		if err != nil {
			continue
		}

		paidAt := time.Now()
		if t.PaidAt != nil {
			paidAt = *t.PaidAt
		}

		if err := s.applyPayment(ctx, u.ID, t.Tier, t.AmountCents, t.Method, t.Notes, paidAt); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"temp_payment_id": t.ID,
				"user_id":         u.ID,
			}).WithError(err).Error("Failed to promote temp payment")
			continue
		}

		if err := s.repo.DeleteTemp(ctx, t.ID); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"temp_payment_id": t.ID,
			}).WithError(err).Error("Promoted temp payment but failed to delete it")
			continue
		}

		metrics.RecordPaymentReconciled()
		promoted++
	}

	if promoted > 0 {
		s.logger.WithFields(map[string]interface{}{
			"promoted": promoted,
		}).Info("Reconciled temp payments")
	}

	return promoted, nil
}
