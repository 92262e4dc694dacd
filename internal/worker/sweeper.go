package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zapagent/zapagent/internal/domain/payment"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/metrics"
)

const sweepTimeout = 2 * time.Minute

// Sweeper runs the periodic plan-expiry and payment-reconciliation passes.
// Expired plans keep their tier so reactivation after payment restores the
// previous limits; only the payment status flips.
type Sweeper struct {
	planRepo   plan.Repository
	paymentSvc payment.Service
	logger     *logger.Logger
	cron       *cron.Cron
	now        func() time.Time
}

// NewSweeper creates a sweeper. Call Start to schedule it.
func NewSweeper(planRepo plan.Repository, paymentSvc payment.Service, log *logger.Logger) *Sweeper {
	return &Sweeper{
		planRepo:   planRepo,
		paymentSvc: paymentSvc,
		logger:     log,
		cron:       cron.New(),
		now:        time.Now,
	}
}

// Start schedules the hourly sweep and runs one pass immediately so a
// restart never leaves expired plans active for up to an hour.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	go s.sweep()
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	metrics.RecordSweeperRun()
	now := s.now()

	expired := s.expirePlans(ctx, now)
	promoted := s.reconcile(ctx)

	s.logger.WithFields(map[string]interface{}{
		"expired":  expired,
		"promoted": promoted,
	}).Info("Plan sweep finished")
}

func (s *Sweeper) expirePlans(ctx context.Context, now time.Time) int {
	plans, err := s.planRepo.ListExpiring(ctx, now.Unix())
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to list expiring plans")
		return 0
	}

	expired := 0
	for _, p := range plans {
		p.PaymentStatus = plan.PaymentStatusExpired
		if err := s.planRepo.Update(ctx, p); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"user_id": p.UserID,
			}).WithError(err).Error("Failed to expire plan")
			continue
		}

		kind := "subscription"
		if p.Tier == plan.TierFreeTrial {
			kind = "trial"
		}
		metrics.RecordPlanExpired(kind)
		expired++

		s.logger.WithFields(map[string]interface{}{
			"user_id": p.UserID,
			"tier":    p.Tier.String(),
			"kind":    kind,
		}).Info("Plan expired")
	}
	return expired
}

func (s *Sweeper) reconcile(ctx context.Context) int {
	promoted, err := s.paymentSvc.Reconcile(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Payment reconciliation failed")
		return 0
	}
	return promoted
}
