package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zapagent/zapagent/internal/api/dto"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/validator"
	"github.com/zapagent/zapagent/internal/services"
	"github.com/zapagent/zapagent/internal/testutil"
)

func newPlanHandlerFixture(t *testing.T) *PlanHandler {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	val := validator.New()

	catalog, err := plan.LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	planRepo := testutil.NewMockPlanRepository()
	agentRepo := testutil.NewMockAgentRepository()
	planSvc := services.NewPlanService(planRepo, agentRepo, catalog, plan.DefaultTrialDays, log)

	if _, err := planSvc.CreateTrial(context.Background(), 1); err != nil {
		t.Fatalf("CreateTrial() error = %v", err)
	}

	return NewPlanHandler(planSvc, log, val)
}

func checkoutRequest(t *testing.T, h *PlanHandler, userID int64, req dto.CheckoutRequest) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	body, _ := json.Marshal(req)
	rr := httptest.NewRecorder()
	h.Checkout(rr, authedRequest(http.MethodPost, "/api/v1/plans/checkout", body, userID))

	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return rr, response
}

func TestPlanHandler_Catalog(t *testing.T) {
	h := newPlanHandlerFixture(t)

	rr := httptest.NewRecorder()
	h.Catalog(rr, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Catalog status = %d", rr.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	entries := response["data"].([]interface{})
	if len(entries) != 4 {
		t.Errorf("catalog entries = %d, want 4", len(entries))
	}
}

func TestPlanHandler_CheckoutUpgrade(t *testing.T) {
	h := newPlanHandlerFixture(t)

	rr, response := checkoutRequest(t, h, 1, dto.CheckoutRequest{Tier: int(plan.TierStandard)})
	if rr.Code != http.StatusOK {
		t.Fatalf("Checkout status = %d, body: %s", rr.Code, rr.Body.String())
	}

	data := response["data"].(map[string]interface{})
	if data["promoApplied"] != false {
		t.Error("promoApplied = true for a plain upgrade")
	}
	planData := data["plan"].(map[string]interface{})
	if planData["tierName"] != "standard" {
		t.Errorf("tierName = %v, want standard", planData["tierName"])
	}
	if planData["paymentStatus"] != plan.PaymentStatusPending {
		t.Errorf("paymentStatus = %v, want pending", planData["paymentStatus"])
	}
}

func TestPlanHandler_CheckoutPromoCode(t *testing.T) {
	h := newPlanHandlerFixture(t)

	// The code wins over the tier, whatever tier is sent alongside it
	rr, response := checkoutRequest(t, h, 1, dto.CheckoutRequest{Tier: int(plan.TierPremium), Code: "OfertaMDF"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Checkout status = %d, body: %s", rr.Code, rr.Body.String())
	}

	data := response["data"].(map[string]interface{})
	if data["promoApplied"] != true {
		t.Error("promoApplied = false for a valid promo code")
	}
	planData := data["plan"].(map[string]interface{})
	if planData["tierName"] != "free_trial" {
		t.Errorf("tierName = %v, want free_trial", planData["tierName"])
	}
}

func TestPlanHandler_CheckoutFreeTierRejected(t *testing.T) {
	h := newPlanHandlerFixture(t)

	rr, _ := checkoutRequest(t, h, 1, dto.CheckoutRequest{Tier: int(plan.TierFreeTrial)})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Checkout status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPlanHandler_TrialStatus(t *testing.T) {
	h := newPlanHandlerFixture(t)

	rr := httptest.NewRecorder()
	h.TrialStatus(rr, authedRequest(http.MethodGet, "/api/v1/plans/me/trial", nil, 1))

	if rr.Code != http.StatusOK {
		t.Fatalf("TrialStatus status = %d", rr.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	data := response["data"].(map[string]interface{})
	if data["status"] != "active" {
		t.Errorf("status = %v, want active", data["status"])
	}
}
