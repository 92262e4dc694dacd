package agent

import "context"

// Repository defines the interface for agent data access
type Repository interface {
	// Create creates a new agent
	Create(ctx context.Context, a *Agent) error

	// GetByID retrieves an agent by ID
	GetByID(ctx context.Context, id int64) (*Agent, error)

	// ListByUser retrieves all agents owned by a user
	ListByUser(ctx context.Context, userID int64) ([]*Agent, error)

	// CountByUser counts agents owned by a user
	CountByUser(ctx context.Context, userID int64) (int, error)

	// Update updates an agent
	Update(ctx context.Context, a *Agent) error

	// Delete hard-deletes an agent
	Delete(ctx context.Context, id int64) error

	// SetConnected updates only the connection flag
	SetConnected(ctx context.Context, id int64, connected bool) error

	// GetAnalytics retrieves the usage counters for an agent
	GetAnalytics(ctx context.Context, agentID int64) (*Analytics, error)

	// RecordConnection increments the connection counter
	RecordConnection(ctx context.Context, agentID int64) error
}
