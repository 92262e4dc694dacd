package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zapagent/zapagent/internal/api/dto"
	"github.com/zapagent/zapagent/internal/api/middleware"
	"github.com/zapagent/zapagent/internal/domain/admin"
	"github.com/zapagent/zapagent/internal/messaging"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/utils"
	"github.com/zapagent/zapagent/internal/pkg/validator"
)

// AdminHandler handles back-office admin and group management
type AdminHandler struct {
	adminService admin.Service
	provider     messaging.Provider
	logger       *logger.Logger
	validator    *validator.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService admin.Service, provider messaging.Provider, log *logger.Logger, val *validator.Validator) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		provider:     provider,
		logger:       log,
		validator:    val,
	}
}

// Bootstrap creates the first master admin
// @Summary Bootstrap back office
// @Description Create the first master admin; fails once any admin exists
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BootstrapRequest true "Admin email"
// @Success 201 {object} dto.AdminDTO
// @Failure 409 {object} utils.ErrorResponse "Back office already bootstrapped"
// @Router /admin/bootstrap [post]
func (h *AdminHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	var req dto.BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	a, err := h.adminService.Bootstrap(r.Context(), userID, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"admin_id": a.ID,
		"user_id":  userID,
	}).Info("Back office bootstrapped")

	utils.WriteSuccess(w, http.StatusCreated, dto.NewAdminDTO(a))
}

// Me returns the acting admin's own record
// @Summary Current admin
// @Description Get the acting admin's record
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AdminDTO
// @Router /admin/me [get]
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewAdminDTO(actor))
}

// Dashboard returns the back-office landing summary
// @Summary Back-office dashboard
// @Description Aggregate counters: users, agents, paid plans, revenue
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} admin.DashboardStats
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	stats, err := h.adminService.Dashboard(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, stats)
}

// MessagingHealth probes the messaging-provider webhook endpoints
// @Summary Messaging provider health
// @Description Check whether the provisioning webhooks are reachable
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} utils.ErrorResponse "Provider unreachable"
// @Security BearerAuth
// @Router /admin/settings/messaging [get]
func (h *AdminHandler) MessagingHealth(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		utils.WriteError(w, errors.ServiceUnavailable("Messaging provider is not configured"))
		return
	}

	if err := h.provider.Ping(r.Context()); err != nil {
		h.logger.ErrorWithErr(err, "Messaging provider health check failed")
		utils.WriteError(w, errors.ServiceUnavailable("Messaging provider unreachable"))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]string{"status": "reachable"})
}

// CreateAdmin creates an admin
// @Summary Create admin
// @Description Create an admin; only masters may create masters
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAdminRequest true "Admin details"
// @Success 201 {object} dto.AdminDTO
// @Failure 403 {object} utils.ErrorResponse "Insufficient role"
// @Router /admin/admins [post]
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	var req dto.CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	a, err := h.adminService.CreateAdmin(r.Context(), actor, req.UserID, req.Email, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.NewAdminDTO(a))
}

// ListAdmins returns all admins
// @Summary List admins
// @Description List all back-office admins
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AdminDTO
// @Router /admin/admins [get]
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	admins, err := h.adminService.ListAdmins(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]*dto.AdminDTO, 0, len(admins))
	for _, a := range admins {
		dtos = append(dtos, dto.NewAdminDTO(a))
	}

	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// UpdateAdmin changes an admin's role
// @Summary Update admin
// @Description Change an admin's role; the last master cannot be demoted
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param adminID path int true "Admin ID"
// @Param request body dto.UpdateAdminRequest true "New role"
// @Success 200 {object} utils.SuccessResponse
// @Router /admin/admins/{adminID} [put]
func (h *AdminHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	adminID, paramErr := urlParamInt64(r, "adminID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return
	}

	var req dto.UpdateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	if err := h.adminService.UpdateAdmin(r.Context(), actor, adminID, req.Role); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Admin updated", nil)
}

// DeleteAdmin removes an admin
// @Summary Delete admin
// @Description Delete an admin; the last master cannot be deleted
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param adminID path int true "Admin ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /admin/admins/{adminID} [delete]
func (h *AdminHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	adminID, paramErr := urlParamInt64(r, "adminID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return
	}

	if err := h.adminService.DeleteAdmin(r.Context(), actor, adminID); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Admin deleted", nil)
}

// CreateGroup creates a group
// @Summary Create group
// @Description Create an organization group
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateGroupRequest true "Group name"
// @Success 201 {object} dto.GroupDTO
// @Router /admin/groups [post]
func (h *AdminHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	var req dto.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	g, err := h.adminService.CreateGroup(r.Context(), actor, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.NewGroupDTO(g))
}

// ListGroups lists the groups visible to the acting admin
// @Summary List groups
// @Description List groups; group admins see only their own groups
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.GroupDTO
// @Router /admin/groups [get]
func (h *AdminHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	groups, err := h.adminService.ListGroups(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]*dto.GroupDTO, 0, len(groups))
	for _, g := range groups {
		dtos = append(dtos, dto.NewGroupDTO(g))
	}

	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// DeleteGroup removes a group
// @Summary Delete group
// @Description Delete a group and its memberships
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param groupID path int true "Group ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /admin/groups/{groupID} [delete]
func (h *AdminHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	groupID, paramErr := urlParamInt64(r, "groupID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return
	}

	if err := h.adminService.DeleteGroup(r.Context(), actor, groupID); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Group deleted", nil)
}

// AddGroupUser adds a user to a group
// @Summary Add group member
// @Description Add a user to a group
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path int true "Group ID"
// @Param request body dto.GroupMemberRequest true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /admin/groups/{groupID}/users [post]
func (h *AdminHandler) AddGroupUser(w http.ResponseWriter, r *http.Request) {
	h.groupMembership(w, r, h.adminService.AddGroupUser, "User added to group")
}

// RemoveGroupUser removes a user from a group
// @Summary Remove group member
// @Description Remove a user from a group
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path int true "Group ID"
// @Param request body dto.GroupMemberRequest true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /admin/groups/{groupID}/users [delete]
func (h *AdminHandler) RemoveGroupUser(w http.ResponseWriter, r *http.Request) {
	h.groupMembership(w, r, h.adminService.RemoveGroupUser, "User removed from group")
}

// AddGroupAdmin assigns an admin to a group
// @Summary Assign group admin
// @Description Assign an admin to a group
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path int true "Group ID"
// @Param request body dto.GroupAdminRequest true "Admin ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /admin/groups/{groupID}/admins [post]
func (h *AdminHandler) AddGroupAdmin(w http.ResponseWriter, r *http.Request) {
	h.groupAssignment(w, r, h.adminService.AddGroupAdmin, "Admin assigned to group")
}

// RemoveGroupAdmin unassigns an admin from a group
// @Summary Unassign group admin
// @Description Unassign an admin from a group
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path int true "Group ID"
// @Param request body dto.GroupAdminRequest true "Admin ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /admin/groups/{groupID}/admins [delete]
func (h *AdminHandler) RemoveGroupAdmin(w http.ResponseWriter, r *http.Request) {
	h.groupAssignment(w, r, h.adminService.RemoveGroupAdmin, "Admin unassigned from group")
}

type groupOp func(ctx context.Context, actor *admin.AdminUser, groupID, id int64) error

func (h *AdminHandler) groupMembership(w http.ResponseWriter, r *http.Request, op groupOp, message string) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	groupID, paramErr := urlParamInt64(r, "groupID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return
	}

	var req dto.GroupMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	if err := op(r.Context(), actor, groupID, req.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, message, nil)
}

func (h *AdminHandler) groupAssignment(w http.ResponseWriter, r *http.Request, op groupOp, message string) {
	actor, ok := middleware.GetAdmin(r)
	if !ok {
		utils.WriteError(w, errors.Forbidden("Back-office access required"))
		return
	}

	groupID, paramErr := urlParamInt64(r, "groupID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return
	}

	var req dto.GroupAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	if err := op(r.Context(), actor, groupID, req.AdminID); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, message, nil)
}
