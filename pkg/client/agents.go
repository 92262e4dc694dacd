package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// AgentService handles agent-related API calls
type AgentService struct {
	client *Client
}

// CreateAgentRequest represents a request to create an agent
type CreateAgentRequest struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

// UpdateAgentRequest represents a request to update an agent
type UpdateAgentRequest struct {
	Name    string          `json:"name,omitempty"`
	Type    string          `json:"type,omitempty"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

// PreviewRequest asks the agent for a sample reply
type PreviewRequest struct {
	Message string `json:"message"`
}

// PreviewResponse carries the sample reply
type PreviewResponse struct {
	Reply string `json:"reply"`
}

// List retrieves the user's agents
func (s *AgentService) List(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := s.client.doRequest(ctx, "GET", "/api/v1/agents", nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// Get retrieves a single agent by ID
func (s *AgentService) Get(ctx context.Context, id int64) (*Agent, error) {
	var agent Agent
	if err := s.client.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/agents/%d", id), nil, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// Create creates a new agent
func (s *AgentService) Create(ctx context.Context, req CreateAgentRequest) (*Agent, error) {
	var agent Agent
	if err := s.client.doRequest(ctx, "POST", "/api/v1/agents", req, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// Update updates an existing agent
func (s *AgentService) Update(ctx context.Context, id int64, req UpdateAgentRequest) (*Agent, error) {
	var agent Agent
	if err := s.client.doRequest(ctx, "PUT", fmt.Sprintf("/api/v1/agents/%d", id), req, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// Delete deletes an agent
func (s *AgentService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, "DELETE", fmt.Sprintf("/api/v1/agents/%d", id), nil, nil)
}

// Connect opens a QR pairing session for the agent
func (s *AgentService) Connect(ctx context.Context, id int64) (*ConnectionState, error) {
	var state ConnectionState
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/agents/%d/connect", id), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// QRCode fetches the current pairing QR code image
func (s *AgentService) QRCode(ctx context.Context, id int64) ([]byte, error) {
	data, _, err := s.client.doRaw(ctx, "GET", fmt.Sprintf("/api/v1/agents/%d/qr", id))
	return data, err
}

// ConnectionState reports the agent's pairing session state
func (s *AgentService) ConnectionState(ctx context.Context, id int64) (*ConnectionState, error) {
	var state ConnectionState
	if err := s.client.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/agents/%d/connection", id), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Disconnect logs the agent out of the messaging provider
func (s *AgentService) Disconnect(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/agents/%d/disconnect", id), nil, nil)
}

// Preview generates a sample reply from the agent's profile
func (s *AgentService) Preview(ctx context.Context, id int64, message string) (string, error) {
	var resp PreviewResponse
	req := PreviewRequest{Message: message}
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/agents/%d/preview", id), req, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// Analytics retrieves the agent's usage counters
func (s *AgentService) Analytics(ctx context.Context, id int64) (*AgentAnalytics, error) {
	var analytics AgentAnalytics
	if err := s.client.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/agents/%d/analytics", id), nil, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}
