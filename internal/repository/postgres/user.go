package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) user.Repository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
		INSERT INTO users (email, username, full_name, password_hash, role, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		u.Email, u.Username, u.FullName, u.PasswordHash, u.Role, nullableJSON(u.Metadata), now.Unix(), now.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get user ID", err)
	}

	u.ID = id
	return nil
}

const userColumns = "id, email, username, full_name, password_hash, role, metadata, created_at, updated_at"

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET email = ?, username = ?, full_name = ?, password_hash = ?, role = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		u.Email, u.Username, u.FullName, u.PasswordHash, u.Role, nullableJSON(u.Metadata), u.UpdatedAt.Unix(), u.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

// List retrieves users with pagination
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count users", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListByGroup retrieves users belonging to a group
func (r *UserRepository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*user.User, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_users WHERE group_id = ?", groupID,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count group users", err)
	}

	query := `
		SELECT u.id, u.email, u.username, u.full_name, u.password_hash, u.role, u.metadata, u.created_at, u.updated_at
		FROM users u
		INNER JOIN group_users gu ON gu.user_id = u.id
		WHERE gu.group_id = ?
		ORDER BY u.id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list group users", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SaveResetToken stores a password-reset token, replacing any previous one
func (r *UserRepository) SaveResetToken(ctx context.Context, t *user.ResetToken) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE user_id = ?`, t.UserID); err != nil {
		return errors.DatabaseError("Failed to clear reset token", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_tokens (user_id, token, expires_at) VALUES (?, ?, ?)`,
		t.UserID, t.Token, t.ExpiresAt.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to save reset token", err)
	}
	return nil
}

// ConsumeResetToken fetches and deletes a reset token
func (r *UserRepository) ConsumeResetToken(ctx context.Context, token string) (*user.ResetToken, error) {
	var t user.ResetToken
	var expiresAt int64

	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, token, expires_at FROM reset_tokens WHERE token = ?`, token,
	).Scan(&t.UserID, &t.Token, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Reset token")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get reset token", err)
	}

	t.ExpiresAt = time.Unix(expiresAt, 0)

	if _, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE token = ?`, token); err != nil {
		return nil, errors.DatabaseError("Failed to consume reset token", err)
	}

	return &t, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var username, metadata sql.NullString
	var fullName sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&u.ID, &u.Email, &username, &fullName, &u.PasswordHash, &u.Role, &metadata, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}

	if username.Valid {
		u.Username = username.String
	}
	if fullName.Valid {
		u.FullName = &fullName.String
	}
	if metadata.Valid {
		u.Metadata = json.RawMessage(metadata.String)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)

	return &u, nil
}

func collectUsers(rows *sql.Rows) ([]*user.User, error) {
	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate users", err)
	}
	return users, nil
}

func nullableJSON(m json.RawMessage) interface{} {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}
