package dto

import (
	"time"

	"github.com/zapagent/zapagent/internal/domain/plan"
)

// PlanDTO represents a user's plan in API responses
type PlanDTO struct {
	Tier               int        `json:"tier"`
	TierName           string     `json:"tierName"`
	AgentLimit         int        `json:"agentLimit"`
	TrialStartedAt     *time.Time `json:"trialStartedAt,omitempty"`
	TrialEndsAt        *time.Time `json:"trialEndsAt,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscriptionEndsAt,omitempty"`
	PaymentStatus      string     `json:"paymentStatus"`
	PaymentDate        *time.Time `json:"paymentDate,omitempty"`
}

// NewPlanDTO maps a domain plan to its API shape
func NewPlanDTO(p *plan.UserPlan) *PlanDTO {
	return &PlanDTO{
		Tier:               int(p.Tier),
		TierName:           p.Tier.String(),
		AgentLimit:         p.AgentLimit,
		TrialStartedAt:     p.TrialStartedAt,
		TrialEndsAt:        p.TrialEndsAt,
		SubscriptionEndsAt: p.SubscriptionEndsAt,
		PaymentStatus:      p.PaymentStatus,
		PaymentDate:        p.PaymentDate,
	}
}

// CheckoutRequest starts a plan purchase. Code carries an optional promo code
// that, when valid, grants a fresh free trial instead of charging.
type CheckoutRequest struct {
	Tier int    `json:"tier" validate:"min=0,max=3"`
	Code string `json:"code,omitempty"`
}

// CheckoutResponse reports the checkout outcome
type CheckoutResponse struct {
	PromoApplied bool     `json:"promoApplied"`
	Plan         *PlanDTO `json:"plan"`
}

// AdminPlanUpdateRequest is an admin edit of a user's plan
type AdminPlanUpdateRequest struct {
	Tier               *int       `json:"tier,omitempty" validate:"omitempty,min=0,max=3"`
	AgentLimit         *int       `json:"agentLimit,omitempty" validate:"omitempty,min=1"`
	TrialEndsAt        *time.Time `json:"trialEndsAt,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscriptionEndsAt,omitempty"`
	PaymentStatus      *string    `json:"paymentStatus,omitempty"`
}
