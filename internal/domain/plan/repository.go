package plan

import "context"

// Repository defines the interface for user-plan data access
type Repository interface {
	// Create creates a user's plan row
	Create(ctx context.Context, p *UserPlan) error

	// GetByUserID retrieves the plan for a user
	GetByUserID(ctx context.Context, userID int64) (*UserPlan, error)

	// Update updates a plan
	Update(ctx context.Context, p *UserPlan) error

	// List retrieves plans with pagination
	List(ctx context.Context, limit, offset int) ([]*UserPlan, int64, error)

	// ListExpiring retrieves plans whose trial or subscription end before the
	// given unix timestamp and are not yet marked expired
	ListExpiring(ctx context.Context, before int64) ([]*UserPlan, error)
}
