package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/zapagent/zapagent/internal/domain/payment"
	"github.com/zapagent/zapagent/internal/pkg/errors"
)

// PaymentRepository implements payment.Repository
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB) payment.Repository {
	return &PaymentRepository{db: db}
}

const paymentColumns = "id, user_id, tier, amount_cents, method, status, paid_at, notes, created_at"

// Create creates a payment
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	p.CreatedAt = time.Now()

	query := `
		INSERT INTO payments (user_id, tier, amount_cents, method, status, paid_at, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		p.UserID, p.Tier, p.AmountCents, p.Method, p.Status,
		nullableUnix(p.PaidAt), nullableString(p.Notes), p.CreatedAt.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create payment", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get payment ID", err)
	}

	p.ID = id
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	return scanPayment(row)
}

// ListByUser retrieves a user's payments
func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list payments", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

// List retrieves payments with pagination
func (r *PaymentRepository) List(ctx context.Context, limit, offset int) ([]*payment.Payment, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count payments", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list payments", err)
	}
	defer rows.Close()

	payments, err := collectPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// Delete deletes a payment
func (r *PaymentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete payment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Payment")
	}

	return nil
}

// CreateTemp creates an unmatched payment keyed by email
func (r *PaymentRepository) CreateTemp(ctx context.Context, t *payment.TempPayment) error {
	t.CreatedAt = time.Now()

	query := `
		INSERT INTO temp_payments (email, tier, amount_cents, method, status, paid_at, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		t.Email, t.Tier, t.AmountCents, t.Method, t.Status,
		nullableUnix(t.PaidAt), nullableString(t.Notes), t.CreatedAt.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create temp payment", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get temp payment ID", err)
	}

	t.ID = id
	return nil
}

// ListTemp retrieves all unmatched payments
func (r *PaymentRepository) ListTemp(ctx context.Context) ([]*payment.TempPayment, error) {
	query := `
		SELECT id, email, tier, amount_cents, method, status, paid_at, notes, created_at
		FROM temp_payments ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list temp payments", err)
	}
	defer rows.Close()

	var temps []*payment.TempPayment
	for rows.Next() {
		var t payment.TempPayment
		var paidAt sql.NullInt64
		var notes sql.NullString
		var createdAt int64

		err := rows.Scan(&t.ID, &t.Email, &t.Tier, &t.AmountCents, &t.Method, &t.Status, &paidAt, &notes, &createdAt)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan temp payment", err)
		}

		t.PaidAt = unixPtr(paidAt)
		if notes.Valid {
			t.Notes = notes.String
		}
		t.CreatedAt = time.Unix(createdAt, 0)
		temps = append(temps, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate temp payments", err)
	}

	return temps, nil
}

// DeleteTemp deletes an unmatched payment
func (r *PaymentRepository) DeleteTemp(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM temp_payments WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete temp payment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Temp payment")
	}

	return nil
}

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var p payment.Payment
	var paidAt sql.NullInt64
	var notes sql.NullString
	var createdAt int64

	err := row.Scan(
		&p.ID, &p.UserID, &p.Tier, &p.AmountCents, &p.Method, &p.Status, &paidAt, &notes, &createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Payment")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get payment", err)
	}

	p.PaidAt = unixPtr(paidAt)
	if notes.Valid {
		p.Notes = notes.String
	}
	p.CreatedAt = time.Unix(createdAt, 0)

	return &p, nil
}

func collectPayments(rows *sql.Rows) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate payments", err)
	}
	return payments, nil
}
