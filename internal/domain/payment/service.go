package payment

import "context"

// RegisterInput describes a payment to record. Email is used to resolve the
// user; when no user matches, the payment lands in the temp table instead.
type RegisterInput struct {
	Email       string
	Tier        int
	AmountCents int64
	Method      string
	Notes       string
}

// Service defines the interface for payment business logic
type Service interface {
	// Register records a payment for the email's user, or a temp payment
	// when the email has no account yet. The bool result reports whether
	// the payment was matched to a user.
	Register(ctx context.Context, in RegisterInput) (bool, error)

	// ListByUser retrieves a user's payments
	ListByUser(ctx context.Context, userID int64) ([]*Payment, error)

	// List retrieves payments with pagination
	List(ctx context.Context, limit, offset int) ([]*Payment, int64, error)

	// Delete deletes a payment
	Delete(ctx context.Context, id int64) error

	// ListTemp retrieves the unmatched payments
	ListTemp(ctx context.Context) ([]*TempPayment, error)

	// Reconcile promotes temp payments whose email now has a user.
	// Returns the number of promoted rows.
	Reconcile(ctx context.Context) (int, error)
}
