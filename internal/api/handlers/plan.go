package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zapagent/zapagent/internal/api/dto"
	"github.com/zapagent/zapagent/internal/api/middleware"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/metrics"
	"github.com/zapagent/zapagent/internal/pkg/utils"
	"github.com/zapagent/zapagent/internal/pkg/validator"
)

// PlanHandler handles plan and checkout requests
type PlanHandler struct {
	planService plan.Service
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService plan.Service, log *logger.Logger, val *validator.Validator) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		logger:      log,
		validator:   val,
	}
}

// Catalog returns the purchasable plan tiers
// @Summary Plan catalog
// @Description List the purchasable plan tiers with pricing
// @Tags Plans
// @Produce json
// @Success 200 {array} plan.CatalogEntry
// @Router /plans [get]
func (h *PlanHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.planService.Catalog())
}

// GetMyPlan returns the authenticated user's plan
// @Summary Current plan
// @Description Get the current user's plan
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.PlanDTO
// @Router /plans/me [get]
func (h *PlanHandler) GetMyPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	p, err := h.planService.GetByUserID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewPlanDTO(p))
}

// TrialStatus summarizes the authenticated user's trial window
// @Summary Trial status
// @Description Get the current user's trial status
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} plan.TrialStatus
// @Router /plans/me/trial [get]
func (h *PlanHandler) TrialStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	status, err := h.planService.GetTrialStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, status)
}

// Checkout starts a plan purchase or redeems a promo code
// @Summary Checkout
// @Description Upgrade to a paid tier, or redeem a promo code for a fresh trial
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckoutRequest true "Checkout details"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} utils.ErrorResponse "Invalid tier"
// @Router /plans/checkout [post]
func (h *PlanHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	var req dto.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	// A valid promo code short-circuits the purchase entirely
	if plan.IsPromoCode(req.Code) {
		p, err := h.planService.ApplyPromo(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		h.logger.WithFields(map[string]interface{}{
			"user_id": userID,
		}).Info("Promo code redeemed")
		metrics.RecordPromoRedeemed()

		utils.WriteSuccess(w, http.StatusOK, dto.CheckoutResponse{
			PromoApplied: true,
			Plan:         dto.NewPlanDTO(p),
		})
		return
	}

	p, err := h.planService.Upgrade(r.Context(), userID, plan.Tier(req.Tier))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"tier":    p.Tier.String(),
	}).Info("Checkout started")
	metrics.RecordCheckout(p.Tier.String())

	utils.WriteSuccess(w, http.StatusOK, dto.CheckoutResponse{
		PromoApplied: false,
		Plan:         dto.NewPlanDTO(p),
	})
}

// AdminGetPlan returns a user's plan for the back office
// @Summary Get user plan
// @Description Get a user's plan (back office)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Success 200 {object} dto.PlanDTO
// @Router /admin/users/{userID}/plan [get]
func (h *PlanHandler) AdminGetPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt64(r, "userID")
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	p, getErr := h.planService.GetByUserID(r.Context(), userID)
	if getErr != nil {
		writeServiceError(w, getErr)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewPlanDTO(p))
}

// AdminUpdatePlan applies an admin edit to a user's plan
// @Summary Update user plan
// @Description Edit a user's plan fields (back office)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Param request body dto.AdminPlanUpdateRequest true "Plan fields"
// @Success 200 {object} dto.PlanDTO
// @Router /admin/users/{userID}/plan [put]
func (h *PlanHandler) AdminUpdatePlan(w http.ResponseWriter, r *http.Request) {
	userID, paramErr := urlParamInt64(r, "userID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return
	}

	var req dto.AdminPlanUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	p, err := h.planService.GetByUserID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Tier != nil {
		p.Tier = plan.Tier(*req.Tier)
	}
	if req.AgentLimit != nil {
		p.AgentLimit = *req.AgentLimit
	}
	if req.TrialEndsAt != nil {
		p.TrialEndsAt = req.TrialEndsAt
	}
	if req.SubscriptionEndsAt != nil {
		p.SubscriptionEndsAt = req.SubscriptionEndsAt
	}
	if req.PaymentStatus != nil {
		p.PaymentStatus = *req.PaymentStatus
	}

	if err := h.planService.AdminUpdate(r.Context(), p); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewPlanDTO(p))
}
