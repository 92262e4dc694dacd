package dto

import (
	"encoding/json"
	"time"

	"github.com/zapagent/zapagent/internal/domain/agent"
)

// AgentDTO represents an agent in API responses
type AgentDTO struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Connected bool            `json:"connected"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewAgentDTO maps a domain agent to its API shape. The provider instance
// handle is internal and never exposed.
func NewAgentDTO(a *agent.Agent) *AgentDTO {
	return &AgentDTO{
		ID:        a.ID,
		Name:      a.Name,
		Type:      a.Type,
		Connected: a.Connected,
		Profile:   a.Profile,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// NewAgentDTOs maps a slice of agents
func NewAgentDTOs(agents []*agent.Agent) []*AgentDTO {
	out := make([]*AgentDTO, 0, len(agents))
	for _, a := range agents {
		out = append(out, NewAgentDTO(a))
	}
	return out
}

// CreateAgentRequest creates an agent
type CreateAgentRequest struct {
	Name    string          `json:"name" validate:"required,min=2,max=100"`
	Type    string          `json:"type" validate:"required"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

// UpdateAgentRequest updates an agent's editable fields
type UpdateAgentRequest struct {
	Name    string          `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Type    string          `json:"type,omitempty"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

// ConnectionStateResponse reports the QR pairing session state
type ConnectionStateResponse struct {
	State     string     `json:"state"`
	Connected bool       `json:"connected"`
	QRExpires *time.Time `json:"qrExpiresAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// PreviewRequest asks the agent for a sample reply
type PreviewRequest struct {
	Message string `json:"message" validate:"required,min=1,max=2000"`
}

// PreviewResponse carries the sample reply
type PreviewResponse struct {
	Reply string `json:"reply"`
}
