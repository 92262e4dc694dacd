package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/zapagent/zapagent/internal/domain/admin"
	"github.com/zapagent/zapagent/internal/pkg/errors"
)

// AdminRepository implements admin.Repository
type AdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *sql.DB) admin.Repository {
	return &AdminRepository{db: db}
}

const adminColumns = "id, user_id, email, role, created_at, updated_at"

// CreateAdmin creates an admin user
func (r *AdminRepository) CreateAdmin(ctx context.Context, a *admin.AdminUser) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO admin_users (user_id, email, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		a.UserID, a.Email, a.Role, now.Unix(), now.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create admin", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get admin ID", err)
	}

	a.ID = id
	return nil
}

// GetAdminByID retrieves an admin by ID
func (r *AdminRepository) GetAdminByID(ctx context.Context, id int64) (*admin.AdminUser, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id = ?`, id)
	return scanAdmin(row)
}

// GetAdminByUserID retrieves the admin row backing a user, if any
func (r *AdminRepository) GetAdminByUserID(ctx context.Context, userID int64) (*admin.AdminUser, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE user_id = ?`, userID)
	return scanAdmin(row)
}

// ListAdmins retrieves all admins
func (r *AdminRepository) ListAdmins(ctx context.Context) ([]*admin.AdminUser, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admin_users ORDER BY id`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list admins", err)
	}
	defer rows.Close()

	var admins []*admin.AdminUser
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan admin", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate admins", err)
	}

	return admins, nil
}

// UpdateAdmin updates an admin
func (r *AdminRepository) UpdateAdmin(ctx context.Context, a *admin.AdminUser) error {
	a.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET email = ?, role = ?, updated_at = ? WHERE id = ?`,
		a.Email, a.Role, a.UpdatedAt.Unix(), a.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update admin", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Admin")
	}

	return nil
}

// DeleteAdmin deletes an admin
func (r *AdminRepository) DeleteAdmin(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM admin_users WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete admin", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Admin")
	}

	return nil
}

// CountAdmins counts all admin rows
func (r *AdminRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_users").Scan(&count); err != nil {
		return 0, errors.DatabaseError("Failed to count admins", err)
	}
	return count, nil
}

// CreateGroup creates a group
func (r *AdminRepository) CreateGroup(ctx context.Context, g *admin.Group) error {
	g.CreatedAt = time.Now()

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO groups (name, created_at) VALUES (?, ?)`,
		g.Name, g.CreatedAt.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create group", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get group ID", err)
	}

	g.ID = id
	return nil
}

// GetGroup retrieves a group by ID
func (r *AdminRepository) GetGroup(ctx context.Context, id int64) (*admin.Group, error) {
	var g admin.Group
	var createdAt int64

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &createdAt)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Group")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get group", err)
	}

	g.CreatedAt = time.Unix(createdAt, 0)
	return &g, nil
}

// ListGroups retrieves all groups
func (r *AdminRepository) ListGroups(ctx context.Context) ([]*admin.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM groups ORDER BY id`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list groups", err)
	}
	defer rows.Close()

	return collectGroups(rows)
}

// DeleteGroup deletes a group and its memberships
func (r *AdminRepository) DeleteGroup(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete group", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Group")
	}

	return nil
}

// AddGroupUser adds a user to a group
func (r *AdminRepository) AddGroupUser(ctx context.Context, groupID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_users (group_id, user_id) VALUES (?, ?)`,
		groupID, userID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to add group user", err)
	}
	return nil
}

// RemoveGroupUser removes a user from a group
func (r *AdminRepository) RemoveGroupUser(ctx context.Context, groupID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_users WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to remove group user", err)
	}
	return nil
}

// AddGroupAdmin assigns an admin to a group
func (r *AdminRepository) AddGroupAdmin(ctx context.Context, groupID, adminID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_admins (group_id, admin_id) VALUES (?, ?)`,
		groupID, adminID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to add group admin", err)
	}
	return nil
}

// RemoveGroupAdmin unassigns an admin from a group
func (r *AdminRepository) RemoveGroupAdmin(ctx context.Context, groupID, adminID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_admins WHERE group_id = ? AND admin_id = ?`,
		groupID, adminID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to remove group admin", err)
	}
	return nil
}

// ListGroupsByAdmin retrieves the groups an admin manages
func (r *AdminRepository) ListGroupsByAdmin(ctx context.Context, adminID int64) ([]*admin.Group, error) {
	query := `
		SELECT g.id, g.name, g.created_at
		FROM groups g
		INNER JOIN group_admins ga ON ga.group_id = g.id
		WHERE ga.admin_id = ?
		ORDER BY g.id
	`

	rows, err := r.db.QueryContext(ctx, query, adminID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list admin groups", err)
	}
	defer rows.Close()

	return collectGroups(rows)
}

// IsUserInAdminGroups reports whether userID belongs to any group managed by adminID
func (r *AdminRepository) IsUserInAdminGroups(ctx context.Context, adminID, userID int64) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM group_users gu
		INNER JOIN group_admins ga ON ga.group_id = gu.group_id
		WHERE ga.admin_id = ? AND gu.user_id = ?
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, adminID, userID).Scan(&count); err != nil {
		return false, errors.DatabaseError("Failed to check group membership", err)
	}
	return count > 0, nil
}

// DashboardStats aggregates the back-office landing counters
func (r *AdminRepository) DashboardStats(ctx context.Context) (*admin.DashboardStats, error) {
	var s admin.DashboardStats
	counters := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM users", &s.Users},
		{"SELECT COUNT(*) FROM agents", &s.Agents},
		{"SELECT COUNT(*) FROM agents WHERE connected = 1", &s.ConnectedAgents},
		{"SELECT COUNT(*) FROM user_plans WHERE payment_status = 'paid'", &s.PaidPlans},
		{"SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE status = 'confirmed'", &s.RevenueCents},
		{"SELECT COUNT(*) FROM temp_payments", &s.TempPayments},
	}

	for _, c := range counters {
		if err := r.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, errors.DatabaseError("Failed to load dashboard stats", err)
		}
	}
	return &s, nil
}

func scanAdmin(row rowScanner) (*admin.AdminUser, error) {
	var a admin.AdminUser
	var createdAt, updatedAt int64

	err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.Role, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Admin")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get admin", err)
	}

	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)

	return &a, nil
}

func collectGroups(rows *sql.Rows) ([]*admin.Group, error) {
	var groups []*admin.Group
	for rows.Next() {
		var g admin.Group
		var createdAt int64
		if err := rows.Scan(&g.ID, &g.Name, &createdAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan group", err)
		}
		g.CreatedAt = time.Unix(createdAt, 0)
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate groups", err)
	}
	return groups, nil
}
