package agent

import (
	"context"
	"encoding/json"
)

// CreateInput holds the fields of the multi-step creation form
type CreateInput struct {
	Name    string
	Type    string
	Profile json.RawMessage
}

// Service defines the interface for agent business logic
type Service interface {
	// Create creates an agent, enforcing the owner's plan limits
	Create(ctx context.Context, userID int64, in CreateInput) (*Agent, error)

	// GetByID retrieves an agent owned by the user
	GetByID(ctx context.Context, userID, agentID int64) (*Agent, error)

	// ListByUser retrieves the user's agents
	ListByUser(ctx context.Context, userID int64) ([]*Agent, error)

	// Update updates an agent's editable fields
	Update(ctx context.Context, userID int64, a *Agent) error

	// Delete removes the agent after a best-effort provider teardown.
	// Teardown failure never blocks the deletion.
	Delete(ctx context.Context, userID, agentID int64) error

	// MarkConnected flags the agent connected and records the event
	MarkConnected(ctx context.Context, agentID int64) error

	// Disconnect tears the provider session down and clears the flag
	Disconnect(ctx context.Context, userID, agentID int64) error

	// GetAnalytics retrieves the agent's usage counters
	GetAnalytics(ctx context.Context, userID, agentID int64) (*Analytics, error)
}
