package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zapagent/zapagent/internal/domain/agent"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/messaging"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/metrics"
)

// How long a provider teardown call may run during agent deletion
const teardownTimeout = 10 * time.Second

// AgentService implements agent.Service
type AgentService struct {
	repo     agent.Repository
	planSvc  plan.Service
	provider messaging.Provider
	logger   *logger.Logger
}

// NewAgentService creates a new agent service
func NewAgentService(repo agent.Repository, planSvc plan.Service, provider messaging.Provider, log *logger.Logger) agent.Service {
	return &AgentService{
		repo:     repo,
		planSvc:  planSvc,
		provider: provider,
		logger:   log,
	}
}

// Create creates an agent, enforcing the owner's plan limits
func (s *AgentService) Create(ctx context.Context, userID int64, in agent.CreateInput) (*agent.Agent, error) {
	if in.Name == "" {
		return nil, errors.BadRequest("Agent name is required")
	}
	if !agent.ValidType(in.Type) {
		return nil, errors.BadRequest("Unknown agent type")
	}

	p, err := s.planSvc.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !plan.CanCreateAgent(p, count, now) {
		switch {
		case p.Tier == plan.TierFreeTrial && plan.HasTrialExpired(p, now):
			return nil, errors.TrialExpired()
		case p.Tier != plan.TierFreeTrial && !plan.IsSubscriptionActive(p, now):
			return nil, errors.SubscriptionExpired()
		default:
			return nil, errors.AgentLimitReached(p.AgentLimit)
		}
	}

	a := &agent.Agent{
		UserID:     userID,
		Name:       in.Name,
		Type:       in.Type,
		Profile:    in.Profile,
		InstanceID: newInstanceName(userID),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"agent_id": a.ID,
		"type":     a.Type,
	}).Info("Agent created")

	return a, nil
}

// GetByID retrieves an agent owned by the user
func (s *AgentService) GetByID(ctx context.Context, userID, agentID int64) (*agent.Agent, error) {
	a, err := s.repo.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		// Ownership mismatch looks like absence to the caller
		return nil, errors.NotFound("Agent")
	}
	return a, nil
}

// ListByUser retrieves the user's agents
func (s *AgentService) ListByUser(ctx context.Context, userID int64) ([]*agent.Agent, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update updates an agent's editable fields
func (s *AgentService) Update(ctx context.Context, userID int64, a *agent.Agent) error {
	current, err := s.GetByID(ctx, userID, a.ID)
	if err != nil {
		return err
	}

	if a.Type != "" && !agent.ValidType(a.Type) {
		return errors.BadRequest("Unknown agent type")
	}

	if a.Name == "" {
		a.Name = current.Name
	}
	if a.Type == "" {
		a.Type = current.Type
	}
	if len(a.Profile) == 0 {
		a.Profile = current.Profile
	}

	// Connection state and instance identity are not editable here
	a.UserID = current.UserID
	a.Connected = current.Connected
	a.InstanceID = current.InstanceID

	return s.repo.Update(ctx, a)
}

// Delete removes the agent after a best-effort provider teardown. The
// provider is called exactly once; its failure never blocks the deletion.
func (s *AgentService) Delete(ctx context.Context, userID, agentID int64) error {
	a, err := s.GetByID(ctx, userID, agentID)
	if err != nil {
		return err
	}

	if a.InstanceID != "" {
		tctx, cancel := context.WithTimeout(ctx, teardownTimeout)
		if err := s.provider.DeleteInstance(tctx, a.InstanceID); err != nil {
			metrics.RecordInstanceTeardown("error")
			s.logger.WithFields(map[string]interface{}{
				"agent_id": agentID,
				"instance": a.InstanceID,
			}).WithError(err).Warn("Provider teardown failed, deleting agent anyway")
		} else {
			metrics.RecordInstanceTeardown("ok")
		}
		cancel()
	}

	if err := s.repo.Delete(ctx, agentID); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"agent_id": agentID,
	}).Info("Agent deleted")

	return nil
}

// MarkConnected flags the agent connected and records the event
func (s *AgentService) MarkConnected(ctx context.Context, agentID int64) error {
	if err := s.repo.SetConnected(ctx, agentID, true); err != nil {
		return err
	}
	if err := s.repo.RecordConnection(ctx, agentID); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"agent_id": agentID,
		}).WithError(err).Warn("Failed to record connection event")
	}
	return nil
}

// Disconnect tears the provider session down and clears the flag
func (s *AgentService) Disconnect(ctx context.Context, userID, agentID int64) error {
	a, err := s.GetByID(ctx, userID, agentID)
	if err != nil {
		return err
	}

	if a.InstanceID != "" {
		if err := s.provider.Disconnect(ctx, a.InstanceID); err != nil {
			return errors.ProviderAPIError("logout", err)
		}
	}

	return s.repo.SetConnected(ctx, agentID, false)
}

// GetAnalytics retrieves the agent's usage counters
func (s *AgentService) GetAnalytics(ctx context.Context, userID, agentID int64) (*agent.Analytics, error) {
	if _, err := s.GetByID(ctx, userID, agentID); err != nil {
		return nil, err
	}
	return s.repo.GetAnalytics(ctx, agentID)
}

// newInstanceName builds the provider-side instance handle for a new agent
func newInstanceName(userID int64) string {
	return fmt.Sprintf("zapagent_%d_%s", userID, uuid.New().String()[:8])
}
