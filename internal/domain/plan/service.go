package plan

import (
	"context"
	"time"
)

// Service defines the interface for plan business logic
type Service interface {
	// GetByUserID retrieves the plan for a user (cached)
	GetByUserID(ctx context.Context, userID int64) (*UserPlan, error)

	// CreateTrial creates the default free-trial plan for a new user
	CreateTrial(ctx context.Context, userID int64) (*UserPlan, error)

	// GetTrialStatus summarizes the user's trial window
	GetTrialStatus(ctx context.Context, userID int64) (*TrialStatus, error)

	// CanCreateAgent decides whether the user may create another agent
	CanCreateAgent(ctx context.Context, userID int64) (bool, error)

	// Upgrade moves the user to a paid tier with a fresh subscription window
	Upgrade(ctx context.Context, userID int64, tier Tier) (*UserPlan, error)

	// ApplyPromo resets the user's plan to a promo free trial
	ApplyPromo(ctx context.Context, userID int64) (*UserPlan, error)

	// MarkPaid records a confirmed payment against the plan
	MarkPaid(ctx context.Context, userID int64, paidAt time.Time) error

	// AdminUpdate applies an admin edit to a user's plan
	AdminUpdate(ctx context.Context, p *UserPlan) error

	// Catalog returns the purchasable tiers
	Catalog() []CatalogEntry
}
