package dto

import (
	"time"

	"github.com/zapagent/zapagent/internal/domain/payment"
)

// PaymentDTO represents a payment in API responses
type PaymentDTO struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Tier        int        `json:"tier"`
	AmountCents int64      `json:"amountCents"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewPaymentDTO maps a domain payment to its API shape
func NewPaymentDTO(p *payment.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:          p.ID,
		UserID:      p.UserID,
		Tier:        p.Tier,
		AmountCents: p.AmountCents,
		Method:      p.Method,
		Status:      p.Status,
		PaidAt:      p.PaidAt,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}

// TempPaymentDTO represents an unmatched payment in API responses
type TempPaymentDTO struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Tier        int        `json:"tier"`
	AmountCents int64      `json:"amountCents"`
	Method      string     `json:"method"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewTempPaymentDTO maps a domain temp payment to its API shape
func NewTempPaymentDTO(t *payment.TempPayment) *TempPaymentDTO {
	return &TempPaymentDTO{
		ID:          t.ID,
		Email:       t.Email,
		Tier:        t.Tier,
		AmountCents: t.AmountCents,
		Method:      t.Method,
		PaidAt:      t.PaidAt,
		CreatedAt:   t.CreatedAt,
	}
}

// RegisterPaymentRequest records a payment by email
type RegisterPaymentRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Tier        int    `json:"tier" validate:"min=0,max=3"`
	AmountCents int64  `json:"amountCents" validate:"min=0"`
	Method      string `json:"method" validate:"required"`
	Notes       string `json:"notes,omitempty"`
}

// RegisterPaymentResponse reports whether the payment matched a user
type RegisterPaymentResponse struct {
	Matched bool `json:"matched"`
}
