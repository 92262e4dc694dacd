package payment

import "time"

// Payment methods
const (
	MethodPix      = "pix"
	MethodCard     = "card"
	MethodBoleto   = "boleto"
	MethodManual   = "manual"
)

// Payment statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRefunded  = "refunded"
)

// Payment is a recorded payment against a user's plan purchase
type Payment struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Tier        int        `json:"tier"`
	AmountCents int64      `json:"amount_cents"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TempPayment is a payment whose email has no matching user yet. Rows are
// promoted to Payment by reconciliation once the email registers.
type TempPayment struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Tier        int        `json:"tier"`
	AmountCents int64      `json:"amount_cents"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
