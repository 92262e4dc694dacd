package services

import (
	"context"
	"time"

	"github.com/zapagent/zapagent/internal/cache"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
)

// How long a plan row may be served from cache before re-reading the database
const planCacheTTL = time.Minute

// PlanService implements plan.Service
type PlanService struct {
	repo      plan.Repository
	agents    agentCounter
	catalog   *plan.Catalog
	cache     *cache.Cache[int64, *plan.UserPlan]
	trialDays int
	logger    *logger.Logger
	now       func() time.Time
}

// agentCounter is the slice of the agent repository the plan service needs
type agentCounter interface {
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// NewPlanService creates a new plan service
func NewPlanService(repo plan.Repository, agents agentCounter, catalog *plan.Catalog, trialDays int, log *logger.Logger) plan.Service {
	if trialDays <= 0 {
		trialDays = plan.DefaultTrialDays
	}
	return &PlanService{
		repo:      repo,
		agents:    agents,
		catalog:   catalog,
		cache:     cache.New[int64, *plan.UserPlan](planCacheTTL),
		trialDays: trialDays,
		logger:    log,
		now:       time.Now,
	}
}

// GetByUserID retrieves the plan for a user. Reads go through a short-lived
// cache; every mutation below invalidates the user's entry. A user whose plan
// row is missing (the trial insert at signup failed) gets it recreated here.
func (s *PlanService) GetByUserID(ctx context.Context, userID int64) (*plan.UserPlan, error) {
	if p, ok := s.cache.Get(userID); ok {
		return p, nil
	}

	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		ae, ok := err.(*errors.AppError)
		if !ok || ae.Code != errors.ErrCodeNotFound {
			return nil, err
		}
		p = plan.NewTrialPlan(userID, s.now(), s.trialDays)
		if createErr := s.repo.Create(ctx, p); createErr != nil {
			return nil, err
		}
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
		}).Warn("Recreated missing trial plan")
	}

	s.cache.Set(userID, p)
	return p, nil
}

// CreateTrial creates the default free-trial plan for a new user
func (s *PlanService) CreateTrial(ctx context.Context, userID int64) (*plan.UserPlan, error) {
	if existing, err := s.repo.GetByUserID(ctx, userID); err == nil && existing != nil {
		return nil, errors.Conflict("User already has a plan")
	}

	p := plan.NewTrialPlan(userID, s.now(), s.trialDays)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.cache.Invalidate(userID)
	return p, nil
}

// GetTrialStatus summarizes the user's trial window
func (s *PlanService) GetTrialStatus(ctx context.Context, userID int64) (*plan.TrialStatus, error) {
	p, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if p.Tier != plan.TierFreeTrial {
		status := "subscribed"
		if !plan.IsSubscriptionActive(p, now) {
			status = "subscription_expired"
		}
		return &plan.TrialStatus{Status: status}, nil
	}

	if plan.HasTrialExpired(p, now) {
		return &plan.TrialStatus{Status: "expired"}, nil
	}

	return &plan.TrialStatus{
		Status:        "active",
		DaysRemaining: plan.TrialDaysRemaining(p, now),
	}, nil
}

// CanCreateAgent decides whether the user may create another agent
func (s *PlanService) CanCreateAgent(ctx context.Context, userID int64) (bool, error) {
	p, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}

	count, err := s.agents.CountByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	return plan.CanCreateAgent(p, count, s.now()), nil
}

// Upgrade moves the user to a paid tier with a fresh subscription window
func (s *PlanService) Upgrade(ctx context.Context, userID int64, tier plan.Tier) (*plan.UserPlan, error) {
	if tier == plan.TierFreeTrial {
		return nil, errors.BadRequest("Cannot upgrade to the free trial")
	}

	entry, ok := s.catalog.Entry(tier)
	if !ok {
		return nil, errors.BadRequest("Unknown plan tier")
	}

	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ends := now.AddDate(0, 1, 0)

	p.Tier = tier
	p.AgentLimit = entry.AgentLimit
	p.SubscriptionEndsAt = &ends
	p.PaymentStatus = plan.PaymentStatusPending

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.cache.Invalidate(userID)
	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"tier":    tier.String(),
	}).Info("Plan upgraded")

	return p, nil
}

// ApplyPromo resets the user's plan to a promo free trial
func (s *PlanService) ApplyPromo(ctx context.Context, userID int64) (*plan.UserPlan, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ends := now.AddDate(0, 0, plan.PromoTrialDays)

	p.Tier = plan.TierFreeTrial
	p.AgentLimit = 1
	p.TrialStartedAt = &now
	p.TrialEndsAt = &ends
	p.SubscriptionEndsAt = nil
	p.PaymentStatus = plan.PaymentStatusNone

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.cache.Invalidate(userID)
	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
	}).Info("Promo trial applied")

	return p, nil
}

// MarkPaid records a confirmed payment against the plan
func (s *PlanService) MarkPaid(ctx context.Context, userID int64, paidAt time.Time) error {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	ends := paidAt.AddDate(0, 1, 0)

	p.PaymentStatus = plan.PaymentStatusPaid
	p.PaymentDate = &paidAt
	if p.SubscriptionEndsAt == nil || p.SubscriptionEndsAt.Before(ends) {
		p.SubscriptionEndsAt = &ends
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}

	s.cache.Invalidate(userID)
	return nil
}

// AdminUpdate applies an admin edit to a user's plan
func (s *PlanService) AdminUpdate(ctx context.Context, p *plan.UserPlan) error {
	if !p.Tier.Valid() {
		return errors.BadRequest("Unknown plan tier")
	}
	if p.AgentLimit < 1 {
		return errors.BadRequest("Agent limit must be at least 1")
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}

	s.cache.Invalidate(p.UserID)
	return nil
}

// Catalog returns the purchasable tiers
func (s *PlanService) Catalog() []plan.CatalogEntry {
	return s.catalog.List()
}
