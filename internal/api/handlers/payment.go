package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zapagent/zapagent/internal/api/dto"
	"github.com/zapagent/zapagent/internal/api/middleware"
	"github.com/zapagent/zapagent/internal/domain/payment"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/utils"
	"github.com/zapagent/zapagent/internal/pkg/validator"
)

// PaymentHandler handles payment registration and reconciliation
type PaymentHandler struct {
	paymentService payment.Service
	logger         *logger.Logger
	validator      *validator.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService payment.Service, log *logger.Logger, val *validator.Validator) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         log,
		validator:      val,
	}
}

// Register records a payment by email
// @Summary Register payment
// @Description Record a confirmed payment; unmatched emails land in the temp table
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterPaymentRequest true "Payment details"
// @Success 201 {object} dto.RegisterPaymentResponse
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Router /admin/payments [post]
func (h *PaymentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	matched, err := h.paymentService.Register(r.Context(), payment.RegisterInput{
		Email:       req.Email,
		Tier:        req.Tier,
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"email":   req.Email,
		"matched": matched,
	}).Info("Payment registered")

	utils.WriteSuccess(w, http.StatusCreated, dto.RegisterPaymentResponse{Matched: matched})
}

// ListMine returns the authenticated user's payments
// @Summary My payments
// @Description List the current user's payments
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PaymentDTO
// @Router /payments [get]
func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	payments, err := h.paymentService.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]*dto.PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, dto.NewPaymentDTO(p))
	}

	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// List returns payments with pagination for the back office
// @Summary List payments
// @Description List all payments with pagination (back office)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Router /admin/payments [get]
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePaginationParams(r)

	payments, total, err := h.paymentService.List(r.Context(), params.PageSize, params.Offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]*dto.PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, dto.NewPaymentDTO(p))
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, params.Page, params.PageSize, total))
}

// Delete removes a payment record
// @Summary Delete payment
// @Description Delete a payment record (back office)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param paymentID path int true "Payment ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /admin/payments/{paymentID} [delete]
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	paymentID, paramErr := urlParamInt64(r, "paymentID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return
	}

	if err := h.paymentService.Delete(r.Context(), paymentID); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Payment deleted", nil)
}

// ListTemp returns the unmatched payments
// @Summary List temp payments
// @Description List payments whose email has no account yet (back office)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TempPaymentDTO
// @Router /admin/payments/temp [get]
func (h *PaymentHandler) ListTemp(w http.ResponseWriter, r *http.Request) {
	temps, err := h.paymentService.ListTemp(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]*dto.TempPaymentDTO, 0, len(temps))
	for _, t := range temps {
		dtos = append(dtos, dto.NewTempPaymentDTO(t))
	}

	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// Reconcile promotes temp payments whose email now has a user
// @Summary Reconcile payments
// @Description Promote temp payments whose email now matches a user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /admin/payments/reconcile [post]
func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	promoted, err := h.paymentService.Reconcile(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"promoted": promoted,
	}).Info("Payment reconciliation run")

	utils.WriteSuccess(w, http.StatusOK, map[string]int{"promoted": promoted})
}
