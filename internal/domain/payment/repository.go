package payment

import "context"

// Repository defines the interface for payment data access
type Repository interface {
	// Create creates a payment
	Create(ctx context.Context, p *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id int64) (*Payment, error)

	// ListByUser retrieves a user's payments
	ListByUser(ctx context.Context, userID int64) ([]*Payment, error)

	// List retrieves payments with pagination
	List(ctx context.Context, limit, offset int) ([]*Payment, int64, error)

	// Delete deletes a payment
	Delete(ctx context.Context, id int64) error

	// CreateTemp creates an unmatched payment keyed by email
	CreateTemp(ctx context.Context, t *TempPayment) error

	// ListTemp retrieves all unmatched payments
	ListTemp(ctx context.Context) ([]*TempPayment, error)

	// DeleteTemp deletes an unmatched payment
	DeleteTemp(ctx context.Context, id int64) error
}
