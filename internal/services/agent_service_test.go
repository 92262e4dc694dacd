package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/zapagent/zapagent/internal/domain/agent"
	"github.com/zapagent/zapagent/internal/domain/plan"
	apperrors "github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/testutil"
)

func newTestAgentService(t *testing.T, agents *testutil.MockAgentRepository, plans *testutil.MockPlanRepository, provider *testutil.MockProvider) agent.Service {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	planSvc := newTestPlanService(t, plans, agents)
	return NewAgentService(agents, planSvc, provider, log)
}

func TestAgentService_Create(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		plan     *plan.UserPlan
		existing int
		input    agent.CreateInput
		wantErr  bool
		wantCode string
	}{
		{
			name:  "trial user creates first agent",
			plan:  plan.NewTrialPlan(1, now, 5),
			input: agent.CreateInput{Name: "Vendedora Ana", Type: agent.TypeSales},
		},
		{
			name:     "trial user at the limit",
			plan:     plan.NewTrialPlan(1, now, 5),
			existing: 1,
			input:    agent.CreateInput{Name: "Segundo", Type: agent.TypeSDR},
			wantErr:  true,
			wantCode: apperrors.ErrCodeAgentLimitReached,
		},
		{
			name:     "expired trial is refused",
			plan:     plan.NewTrialPlan(1, now.Add(-30*24*time.Hour), 5),
			input:    agent.CreateInput{Name: "Tarde demais", Type: agent.TypeSales},
			wantErr:  true,
			wantCode: apperrors.ErrCodeTrialExpired,
		},
		{
			name: "lapsed subscription is refused",
			plan: func() *plan.UserPlan {
				ends := now.Add(-time.Hour)
				return &plan.UserPlan{UserID: 1, Tier: plan.TierBasic, AgentLimit: 1, SubscriptionEndsAt: &ends}
			}(),
			input:    agent.CreateInput{Name: "Sem plano", Type: agent.TypeSupport},
			wantErr:  true,
			wantCode: apperrors.ErrCodeSubscriptionExpired,
		},
		{
			name:    "unknown agent type",
			plan:    plan.NewTrialPlan(1, now, 5),
			input:   agent.CreateInput{Name: "Estranho", Type: "weird"},
			wantErr: true,
		},
		{
			name:    "missing name",
			plan:    plan.NewTrialPlan(1, now, 5),
			input:   agent.CreateInput{Type: agent.TypeSales},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAgents := testutil.NewMockAgentRepository()
			mockPlans := testutil.NewMockPlanRepository()
			mockPlans.Plans[1] = tt.plan

			for i := 0; i < tt.existing; i++ {
				mockAgents.Create(context.Background(), &agent.Agent{
					UserID: 1,
					Name:   fmt.Sprintf("existing-%d", i),
					Type:   agent.TypeSales,
				})
			}

			service := newTestAgentService(t, mockAgents, mockPlans, testutil.NewMockProvider())

			a, err := service.Create(context.Background(), 1, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if tt.wantCode != "" {
					appErr, ok := err.(*apperrors.AppError)
					if !ok {
						t.Fatalf("Create() error type = %T, want *AppError", err)
					}
					if appErr.Code != tt.wantCode {
						t.Errorf("Create() error code = %q, want %q", appErr.Code, tt.wantCode)
					}
				}
				return
			}

			if a.InstanceID == "" {
				t.Error("Create() left instance ID empty")
			}
			if a.UserID != 1 {
				t.Errorf("Create() user ID = %d, want 1", a.UserID)
			}
		})
	}
}

func TestAgentService_GetByID_Ownership(t *testing.T) {
	mockAgents := testutil.NewMockAgentRepository()
	mockPlans := testutil.NewMockPlanRepository()
	mockPlans.Plans[1] = plan.NewTrialPlan(1, time.Now(), 5)

	service := newTestAgentService(t, mockAgents, mockPlans, testutil.NewMockProvider())
	ctx := context.Background()

	created, err := service.Create(ctx, 1, agent.CreateInput{Name: "Ana", Type: agent.TypeSales})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := service.GetByID(ctx, 1, created.ID); err != nil {
		t.Errorf("owner GetByID() error = %v", err)
	}

	// Another user's lookup must come back as not found, not forbidden
	_, err = service.GetByID(ctx, 2, created.ID)
	if err == nil {
		t.Fatal("GetByID() allowed cross-user access")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok || appErr.Code != apperrors.ErrCodeNotFound {
		t.Errorf("cross-user GetByID() error = %v, want not found", err)
	}
}

func TestAgentService_Delete_TeardownBestEffort(t *testing.T) {
	tests := []struct {
		name        string
		deleteError error
	}{
		{name: "provider teardown succeeds"},
		{name: "provider teardown fails but agent is still deleted", deleteError: fmt.Errorf("provider down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAgents := testutil.NewMockAgentRepository()
			mockPlans := testutil.NewMockPlanRepository()
			mockPlans.Plans[1] = plan.NewTrialPlan(1, time.Now(), 5)

			provider := testutil.NewMockProvider()
			provider.DeleteError = tt.deleteError

			service := newTestAgentService(t, mockAgents, mockPlans, provider)
			ctx := context.Background()

			created, err := service.Create(ctx, 1, agent.CreateInput{Name: "Ana", Type: agent.TypeSales})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			if err := service.Delete(ctx, 1, created.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}

			_, _, _, _, deletes := provider.Calls()
			if deletes != 1 {
				t.Errorf("provider DeleteInstance calls = %d, want exactly 1", deletes)
			}

			if _, ok := mockAgents.Agents[created.ID]; ok {
				t.Error("agent row survived deletion")
			}
		})
	}
}

func TestAgentService_Disconnect(t *testing.T) {
	mockAgents := testutil.NewMockAgentRepository()
	mockPlans := testutil.NewMockPlanRepository()
	mockPlans.Plans[1] = plan.NewTrialPlan(1, time.Now(), 5)

	provider := testutil.NewMockProvider()
	service := newTestAgentService(t, mockAgents, mockPlans, provider)
	ctx := context.Background()

	created, err := service.Create(ctx, 1, agent.CreateInput{Name: "Ana", Type: agent.TypeSales})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := service.MarkConnected(ctx, created.ID); err != nil {
		t.Fatalf("MarkConnected() error = %v", err)
	}
	if !mockAgents.Agents[created.ID].Connected {
		t.Fatal("agent not flagged connected")
	}
	if mockAgents.Stats[created.ID].Connections != 1 {
		t.Errorf("connections = %d, want 1", mockAgents.Stats[created.ID].Connections)
	}

	if err := service.Disconnect(ctx, 1, created.ID); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if mockAgents.Agents[created.ID].Connected {
		t.Error("agent still flagged connected after disconnect")
	}

	_, _, _, disconnects, _ := provider.Calls()
	if disconnects != 1 {
		t.Errorf("provider Disconnect calls = %d, want 1", disconnects)
	}
}
