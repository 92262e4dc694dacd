package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zapagent/zapagent/internal/api/dto"
	"github.com/zapagent/zapagent/internal/api/handlers"
	"github.com/zapagent/zapagent/internal/api/middleware"
	"github.com/zapagent/zapagent/internal/config"
	"github.com/zapagent/zapagent/internal/domain/agent"
	"github.com/zapagent/zapagent/internal/domain/payment"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/messaging"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/validator"
	"github.com/zapagent/zapagent/internal/repository/postgres"
	"github.com/zapagent/zapagent/internal/services"
	"github.com/zapagent/zapagent/internal/testutil"
)

// stack wires real repositories, services and handlers over a test database
type stack struct {
	userService  user.Service
	agentService agent.Service
	planService  plan.Service
	payService   payment.Service

	auth    *handlers.AuthHandler
	agents  *handlers.AgentHandler
	plans   *handlers.PlanHandler
	payment *handlers.PaymentHandler
}

func newStack(t *testing.T) *stack {
	t.Helper()

	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.CleanupDB(db) })

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	val := validator.New()

	catalog, err := plan.LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	userRepo := postgres.NewUserRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	agentRepo := postgres.NewAgentRepository(db)
	payRepo := postgres.NewPaymentRepository(db)

	planSvc := services.NewPlanService(planRepo, agentRepo, catalog, plan.DefaultTrialDays, log)
	userSvc := services.NewUserService(userRepo, planSvc, log)

	provider := testutil.NewMockProvider()
	agentSvc := services.NewAgentService(agentRepo, planSvc, provider, log)
	paySvc := services.NewPaymentService(payRepo, userRepo, planSvc, log)

	sessions := messaging.NewManager(provider, config.MessagingConfig{
		RequestTimeout:  time.Second,
		QRRefresh:       100 * time.Millisecond,
		PollInterval:    20 * time.Millisecond,
		SessionDeadline: 2 * time.Second,
	}, log, nil)
	t.Cleanup(sessions.Shutdown)

	cfg := &config.Config{}
	cfg.Server.Environment = "test"
	cfg.Auth.JWTSecret = "integration-test-secret"
	cfg.Auth.AccessTokenExpiry = 15 * time.Minute
	cfg.Auth.RefreshTokenExpiry = 7 * 24 * time.Hour

	return &stack{
		userService:  userSvc,
		agentService: agentSvc,
		planService:  planSvc,
		payService:   paySvc,
		auth:         handlers.NewAuthHandler(userSvc, cfg, log, val),
		agents:       handlers.NewAgentHandler(agentSvc, sessions, nil, log, val),
		plans:        handlers.NewPlanHandler(planSvc, log, val),
		payment:      handlers.NewPaymentHandler(paySvc, log, val),
	}
}

func jsonRequest(method, path string, payload interface{}, userID int64) *http.Request {
	var req *http.Request
	if payload != nil {
		body, _ := json.Marshal(payload)
		req = httptest.NewRequest(method, path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	}
	return req
}

func addURLParam(req *http.Request, name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return response
}

// TestAgentLifecycle registers a user and runs an agent through
// Create -> List -> Get -> Update -> Delete against real storage.
func TestAgentLifecycle(t *testing.T) {
	s := newStack(t)

	var userID int64
	var agentID int64

	t.Run("Register User", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
			Email:    "maria@example.com",
			Password: "senha-segura-123",
			Username: "maria",
		}, 0)

		rr := httptest.NewRecorder()
		s.auth.Register(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("Register failed with status %v, body: %s", rr.Code, rr.Body.String())
		}

		data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
		userData := data["user"].(map[string]interface{})
		userID = int64(userData["id"].(float64))
		if userID == 0 {
			t.Fatal("Register returned no user ID")
		}
	})

	t.Run("Trial Created On Signup", func(t *testing.T) {
		status, err := s.planService.GetTrialStatus(context.Background(), userID)
		if err != nil {
			t.Fatalf("GetTrialStatus() error = %v", err)
		}
		if status.Status != "active" {
			t.Errorf("trial status = %s, want active", status.Status)
		}
	})

	t.Run("Create Agent", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/v1/agents", dto.CreateAgentRequest{
			Name: "Atendimento",
			Type: "support",
		}, userID)

		rr := httptest.NewRecorder()
		s.agents.Create(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("Create failed with status %v, body: %s", rr.Code, rr.Body.String())
		}

		data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
		agentID = int64(data["id"].(float64))
	})

	t.Run("List Agents", func(t *testing.T) {
		rr := httptest.NewRecorder()
		s.agents.List(rr, jsonRequest(http.MethodGet, "/api/v1/agents", nil, userID))

		if rr.Code != http.StatusOK {
			t.Fatalf("List failed with status %v", rr.Code)
		}

		data := decodeEnvelope(t, rr)["data"].([]interface{})
		if len(data) != 1 {
			t.Errorf("Expected 1 agent, got %d", len(data))
		}
	})

	t.Run("Get Agent", func(t *testing.T) {
		req := addURLParam(jsonRequest(http.MethodGet, "/api/v1/agents/1", nil, userID), "agentID", "1")

		rr := httptest.NewRecorder()
		s.agents.Get(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Get failed with status %v", rr.Code)
		}

		data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
		if data["name"] != "Atendimento" {
			t.Errorf("Expected name Atendimento, got %v", data["name"])
		}
	})

	t.Run("Update Agent", func(t *testing.T) {
		req := addURLParam(jsonRequest(http.MethodPut, "/api/v1/agents/1", dto.UpdateAgentRequest{
			Name: "Vendas",
			Type: "sales",
		}, userID), "agentID", "1")

		rr := httptest.NewRecorder()
		s.agents.Update(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Update failed with status %v, body: %s", rr.Code, rr.Body.String())
		}

		a, err := s.agentService.GetByID(context.Background(), userID, agentID)
		if err != nil {
			t.Fatalf("Failed to get updated agent: %v", err)
		}
		if a.Name != "Vendas" || a.Type != "sales" {
			t.Errorf("Agent not updated: name=%s type=%s", a.Name, a.Type)
		}
	})

	t.Run("Delete Agent", func(t *testing.T) {
		req := addURLParam(jsonRequest(http.MethodDelete, "/api/v1/agents/1", nil, userID), "agentID", "1")

		rr := httptest.NewRecorder()
		s.agents.Delete(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Delete failed with status %v", rr.Code)
		}

		if _, err := s.agentService.GetByID(context.Background(), userID, agentID); err == nil {
			t.Error("Agent still exists after deletion")
		}
	})
}

// TestPaymentReconciliation parks a payment for an email with no account,
// then registers the account and reconciles.
func TestPaymentReconciliation(t *testing.T) {
	s := newStack(t)

	email := "joao@example.com"

	t.Run("Payment Before Signup Is Parked", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/v1/payments", dto.RegisterPaymentRequest{
			Email:       email,
			Tier:        int(plan.TierStandard),
			AmountCents: 19700,
			Method:      payment.MethodPix,
		}, 0)

		rr := httptest.NewRecorder()
		s.payment.Register(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("Register payment failed with status %v, body: %s", rr.Code, rr.Body.String())
		}

		data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
		if data["matched"] != false {
			t.Error("Payment matched a user that does not exist yet")
		}

		temps, err := s.payService.ListTemp(context.Background())
		if err != nil {
			t.Fatalf("ListTemp() error = %v", err)
		}
		if len(temps) != 1 {
			t.Fatalf("temp payments = %d, want 1", len(temps))
		}
	})

	var userID int64

	t.Run("User Signs Up", func(t *testing.T) {
		u, err := s.userService.Register(context.Background(), email, "senha-segura-123", "joao")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		userID = u.ID
	})

	t.Run("Reconcile Promotes The Payment", func(t *testing.T) {
		promoted, err := s.payService.Reconcile(context.Background())
		if err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		if promoted != 1 {
			t.Fatalf("promoted = %d, want 1", promoted)
		}

		temps, err := s.payService.ListTemp(context.Background())
		if err != nil {
			t.Fatalf("ListTemp() error = %v", err)
		}
		if len(temps) != 0 {
			t.Errorf("temp payments = %d after reconcile, want 0", len(temps))
		}

		payments, err := s.payService.ListByUser(context.Background(), userID)
		if err != nil {
			t.Fatalf("ListByUser() error = %v", err)
		}
		if len(payments) != 1 {
			t.Fatalf("payments = %d, want 1", len(payments))
		}
	})

	t.Run("Plan Upgraded And Marked Paid", func(t *testing.T) {
		p, err := s.planService.GetByUserID(context.Background(), userID)
		if err != nil {
			t.Fatalf("GetByUserID() error = %v", err)
		}
		if p.Tier != plan.TierStandard {
			t.Errorf("tier = %v, want %v", p.Tier, plan.TierStandard)
		}
		if p.PaymentStatus != plan.PaymentStatusPaid {
			t.Errorf("payment status = %s, want %s", p.PaymentStatus, plan.PaymentStatusPaid)
		}
	})
}
