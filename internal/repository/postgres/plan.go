package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/pkg/errors"
)

// PlanRepository implements plan.Repository
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sql.DB) plan.Repository {
	return &PlanRepository{db: db}
}

const planColumns = `id, user_id, tier, agent_limit, trial_started_at, trial_ends_at,
	subscription_ends_at, payment_status, payment_date, connect_instance, created_at, updated_at`

// Create creates a user's plan row
func (r *PlanRepository) Create(ctx context.Context, p *plan.UserPlan) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO user_plans (user_id, tier, agent_limit, trial_started_at, trial_ends_at,
			subscription_ends_at, payment_status, payment_date, connect_instance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		p.UserID, int(p.Tier), p.AgentLimit,
		nullableUnix(p.TrialStartedAt), nullableUnix(p.TrialEndsAt),
		nullableUnix(p.SubscriptionEndsAt), p.PaymentStatus, nullableUnix(p.PaymentDate),
		boolToInt(p.ConnectInstance), now.Unix(), now.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create plan", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get plan ID", err)
	}

	p.ID = id
	return nil
}

// GetByUserID retrieves the plan for a user
func (r *PlanRepository) GetByUserID(ctx context.Context, userID int64) (*plan.UserPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM user_plans WHERE user_id = ?`, userID)
	return scanPlan(row)
}

// Update updates a plan
func (r *PlanRepository) Update(ctx context.Context, p *plan.UserPlan) error {
	p.UpdatedAt = time.Now()

	query := `
		UPDATE user_plans
		SET tier = ?, agent_limit = ?, trial_started_at = ?, trial_ends_at = ?,
			subscription_ends_at = ?, payment_status = ?, payment_date = ?, connect_instance = ?, updated_at = ?
		WHERE user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		int(p.Tier), p.AgentLimit,
		nullableUnix(p.TrialStartedAt), nullableUnix(p.TrialEndsAt),
		nullableUnix(p.SubscriptionEndsAt), p.PaymentStatus, nullableUnix(p.PaymentDate),
		boolToInt(p.ConnectInstance), p.UpdatedAt.Unix(), p.UserID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update plan", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Plan")
	}

	return nil
}

// List retrieves plans with pagination
func (r *PlanRepository) List(ctx context.Context, limit, offset int) ([]*plan.UserPlan, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_plans").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count plans", err)
	}

	query := `SELECT ` + planColumns + ` FROM user_plans ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list plans", err)
	}
	defer rows.Close()

	plans, err := collectPlans(rows)
	if err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// ListExpiring retrieves plans whose trial or subscription end before the
// given unix timestamp and are not yet marked expired
func (r *PlanRepository) ListExpiring(ctx context.Context, before int64) ([]*plan.UserPlan, error) {
	query := `
		SELECT ` + planColumns + ` FROM user_plans
		WHERE payment_status != ?
		AND (
			(tier = ? AND trial_ends_at IS NOT NULL AND trial_ends_at < ?)
			OR (tier != ? AND subscription_ends_at IS NOT NULL AND subscription_ends_at < ?)
		)
	`

	rows, err := r.db.QueryContext(ctx, query,
		plan.PaymentStatusExpired,
		int(plan.TierFreeTrial), before,
		int(plan.TierFreeTrial), before,
	)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list expiring plans", err)
	}
	defer rows.Close()

	return collectPlans(rows)
}

func scanPlan(row rowScanner) (*plan.UserPlan, error) {
	var p plan.UserPlan
	var tier int
	var trialStart, trialEnd, subEnd, payDate sql.NullInt64
	var connect int
	var createdAt, updatedAt int64

	err := row.Scan(
		&p.ID, &p.UserID, &tier, &p.AgentLimit,
		&trialStart, &trialEnd, &subEnd, &p.PaymentStatus, &payDate,
		&connect, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Plan")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get plan", err)
	}

	p.Tier = plan.Tier(tier)
	p.TrialStartedAt = unixPtr(trialStart)
	p.TrialEndsAt = unixPtr(trialEnd)
	p.SubscriptionEndsAt = unixPtr(subEnd)
	p.PaymentDate = unixPtr(payDate)
	p.ConnectInstance = connect != 0
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)

	return &p, nil
}

func collectPlans(rows *sql.Rows) ([]*plan.UserPlan, error) {
	var plans []*plan.UserPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan plan", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate plans", err)
	}
	return plans, nil
}

func nullableUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
