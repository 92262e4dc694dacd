package plan

import "time"

// Tier identifies a subscription tier. The numeric values are persisted.
type Tier int

const (
	TierFreeTrial Tier = iota
	TierBasic
	TierStandard
	TierPremium
)

// String returns the canonical tier name
func (t Tier) String() string {
	switch t {
	case TierFreeTrial:
		return "free_trial"
	case TierBasic:
		return "basic"
	case TierStandard:
		return "standard"
	case TierPremium:
		return "premium"
	default:
		return "unknown"
	}
}

// Valid reports whether the tier is a known value
func (t Tier) Valid() bool {
	return t >= TierFreeTrial && t <= TierPremium
}

// Payment status values
const (
	PaymentStatusNone    = "none"
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusExpired = "expired"
)

// Default trial length for new signups
const DefaultTrialDays = 5

// UserPlan is the single plan row a user owns. Tier determines the agent
// limit; trial and subscription windows gate agent creation.
type UserPlan struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	Tier               Tier       `json:"tier"`
	AgentLimit         int        `json:"agent_limit"`
	TrialStartedAt     *time.Time `json:"trial_started_at,omitempty"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
	PaymentStatus      string     `json:"payment_status"`
	PaymentDate        *time.Time `json:"payment_date,omitempty"`
	ConnectInstance    bool       `json:"connect_instance"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TrialStatus summarizes the trial window for API responses
type TrialStatus struct {
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
}

// NewTrialPlan builds the default free-trial plan created at signup
func NewTrialPlan(userID int64, now time.Time, trialDays int) *UserPlan {
	ends := now.AddDate(0, 0, trialDays)
	return &UserPlan{
		UserID:         userID,
		Tier:           TierFreeTrial,
		AgentLimit:     1,
		TrialStartedAt: &now,
		TrialEndsAt:    &ends,
		PaymentStatus:  PaymentStatusNone,
	}
}
