package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/zapagent/zapagent/internal/domain/agent"
	"github.com/zapagent/zapagent/internal/pkg/errors"
)

// AgentRepository implements agent.Repository
type AgentRepository struct {
	db *sql.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *sql.DB) agent.Repository {
	return &AgentRepository{db: db}
}

const agentColumns = "id, user_id, name, type, connected, instance_id, profile, created_at, updated_at"

// Create creates a new agent
func (r *AgentRepository) Create(ctx context.Context, a *agent.Agent) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO agents (user_id, name, type, connected, instance_id, profile, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		a.UserID, a.Name, a.Type, boolToInt(a.Connected), nullableString(a.InstanceID),
		nullableJSON(a.Profile), now.Unix(), now.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create agent", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.DatabaseError("Failed to get agent ID", err)
	}
	a.ID = id

	// Seed the stats row so analytics reads never miss
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO agent_stats (agent_id) VALUES (?)`, id,
	); err != nil {
		return errors.DatabaseError("Failed to create agent stats", err)
	}

	return nil
}

// GetByID retrieves an agent by ID
func (r *AgentRepository) GetByID(ctx context.Context, id int64) (*agent.Agent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

// ListByUser retrieves all agents owned by a user
func (r *AgentRepository) ListByUser(ctx context.Context, userID int64) ([]*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE user_id = ? ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list agents", err)
	}
	defer rows.Close()

	var agents []*agent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan agent", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate agents", err)
	}

	return agents, nil
}

// CountByUser counts agents owned by a user
func (r *AgentRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM agents WHERE user_id = ?", userID,
	).Scan(&count)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count agents", err)
	}
	return count, nil
}

// Update updates an agent
func (r *AgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	a.UpdatedAt = time.Now()

	query := `
		UPDATE agents
		SET name = ?, type = ?, connected = ?, instance_id = ?, profile = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		a.Name, a.Type, boolToInt(a.Connected), nullableString(a.InstanceID),
		nullableJSON(a.Profile), a.UpdatedAt.Unix(), a.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update agent", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Agent")
	}

	return nil
}

// Delete hard-deletes an agent
func (r *AgentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete agent", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Agent")
	}

	return nil
}

// SetConnected updates only the connection flag
func (r *AgentRepository) SetConnected(ctx context.Context, id int64, connected bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE agents SET connected = ?, updated_at = ? WHERE id = ?`,
		boolToInt(connected), time.Now().Unix(), id,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update connection state", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Agent")
	}

	return nil
}

// GetAnalytics retrieves the usage counters for an agent
func (r *AgentRepository) GetAnalytics(ctx context.Context, agentID int64) (*agent.Analytics, error) {
	var a agent.Analytics
	var lastConnected sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT agent_id, messages_received, messages_sent, connections, last_connected_at
		FROM agent_stats WHERE agent_id = ?
	`, agentID).Scan(&a.AgentID, &a.MessagesReceived, &a.MessagesSent, &a.Connections, &lastConnected)

	if err == sql.ErrNoRows {
		// Agents created before stats seeding; report zeros
		return &agent.Analytics{AgentID: agentID}, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get agent analytics", err)
	}

	a.LastConnectedAt = unixPtr(lastConnected)
	return &a, nil
}

// RecordConnection increments the connection counter
func (r *AgentRepository) RecordConnection(ctx context.Context, agentID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE agent_stats
		SET connections = connections + 1, last_connected_at = ?
		WHERE agent_id = ?
	`, time.Now().Unix(), agentID)
	if err != nil {
		return errors.DatabaseError("Failed to record connection", err)
	}
	return nil
}

func scanAgent(row rowScanner) (*agent.Agent, error) {
	var a agent.Agent
	var connected int
	var instanceID, profile sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Type, &connected, &instanceID, &profile, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Agent")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get agent", err)
	}

	a.Connected = connected != 0
	if instanceID.Valid {
		a.InstanceID = instanceID.String
	}
	if profile.Valid {
		a.Profile = json.RawMessage(profile.String)
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)

	return &a, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
