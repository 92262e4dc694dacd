package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zapagent/zapagent/internal/api/dto"
	"github.com/zapagent/zapagent/internal/api/middleware"
	"github.com/zapagent/zapagent/internal/domain/agent"
	"github.com/zapagent/zapagent/internal/messaging"
	"github.com/zapagent/zapagent/internal/openai"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/utils"
	"github.com/zapagent/zapagent/internal/pkg/validator"
)

// AgentHandler handles agent CRUD and pairing requests
type AgentHandler struct {
	agentService agent.Service
	sessions     *messaging.Manager
	previewer    openai.Previewer
	logger       *logger.Logger
	validator    *validator.Validator
}

// NewAgentHandler creates a new agent handler. previewer may be nil when no
// OpenAI key is configured; the preview endpoint then reports unavailable.
func NewAgentHandler(
	agentService agent.Service,
	sessions *messaging.Manager,
	previewer openai.Previewer,
	log *logger.Logger,
	val *validator.Validator,
) *AgentHandler {
	return &AgentHandler{
		agentService: agentService,
		sessions:     sessions,
		previewer:    previewer,
		logger:       log,
		validator:    val,
	}
}

// Create handles agent creation
// @Summary Create agent
// @Description Create a new agent, subject to the plan's agent limit
// @Tags Agents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAgentRequest true "Agent details"
// @Success 201 {object} dto.AgentDTO
// @Failure 402 {object} utils.ErrorResponse "Trial or subscription expired"
// @Failure 403 {object} utils.ErrorResponse "Agent limit reached"
// @Router /agents [post]
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	var req dto.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	a, err := h.agentService.Create(r.Context(), userID, agent.CreateInput{
		Name:    req.Name,
		Type:    req.Type,
		Profile: req.Profile,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"agent_id": a.ID,
		"type":     a.Type,
	}).Info("Agent created")

	utils.WriteSuccess(w, http.StatusCreated, dto.NewAgentDTO(a))
}

// List returns the authenticated user's agents
// @Summary List agents
// @Description List the current user's agents
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AgentDTO
// @Router /agents [get]
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	agents, err := h.agentService.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewAgentDTOs(agents))
}

// Get returns one of the user's agents
// @Summary Get agent
// @Description Get one of the current user's agents
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Success 200 {object} dto.AgentDTO
// @Failure 404 {object} utils.ErrorResponse "Agent not found"
// @Router /agents/{agentID} [get]
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.loadAgent(w, r)
	if !ok {
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewAgentDTO(a))
}

// Update handles agent edits
// @Summary Update agent
// @Description Update an agent's editable fields
// @Tags Agents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Param request body dto.UpdateAgentRequest true "Agent fields"
// @Success 200 {object} dto.AgentDTO
// @Router /agents/{agentID} [put]
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, a, ok := h.loadAgent(w, r)
	if !ok {
		return
	}

	var req dto.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	if req.Name != "" {
		a.Name = req.Name
	}
	if req.Type != "" {
		a.Type = req.Type
	}
	if req.Profile != nil {
		a.Profile = req.Profile
	}

	if err := h.agentService.Update(r.Context(), userID, a); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewAgentDTO(a))
}

// Delete removes an agent
// @Summary Delete agent
// @Description Delete an agent; the provider instance is torn down best-effort
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /agents/{agentID} [delete]
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, a, ok := h.loadAgent(w, r)
	if !ok {
		return
	}

	// Ownership is established; stop any pairing session before the
	// instance goes away
	h.sessions.Close(a.ID)

	if err := h.agentService.Delete(r.Context(), userID, a.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"agent_id": a.ID,
	}).Info("Agent deleted")

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Agent deleted", nil)
}

// Connect opens a QR pairing session for the agent
// @Summary Connect agent
// @Description Start a QR pairing session with the messaging provider
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Success 202 {object} dto.ConnectionStateResponse
// @Router /agents/{agentID}/connect [post]
func (h *AgentHandler) Connect(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.loadAgent(w, r)
	if !ok {
		return
	}

	if a.Connected {
		utils.WriteError(w, errors.Conflict("Agent is already connected"))
		return
	}

	s := h.sessions.Start(a.ID, a.InstanceID)
	snap := s.Snapshot()

	utils.WriteSuccess(w, http.StatusAccepted, dto.ConnectionStateResponse{
		State:     snap.State,
		Connected: false,
		QRExpires: snap.QRExpires,
	})
}

// QRCode serves the current pairing QR image
// @Summary Get QR code
// @Description Serve the current pairing QR code as a PNG image
// @Tags Agents
// @Produce png
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Success 200 {file} binary "QR code image"
// @Failure 404 {object} utils.ErrorResponse "No QR code available"
// @Router /agents/{agentID}/qr [get]
func (h *AgentHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.loadAgent(w, r)
	if !ok {
		return
	}

	s, open := h.sessions.Get(a.ID)
	if !open {
		utils.WriteError(w, errors.NotFound("Pairing session"))
		return
	}

	snap := s.Snapshot()
	if len(snap.QR) == 0 {
		utils.WriteError(w, errors.NotFound("QR code"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(snap.QR)
}

// ConnectionState reports the pairing session state
// @Summary Connection state
// @Description Report the agent's pairing session state
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Success 200 {object} dto.ConnectionStateResponse
// @Router /agents/{agentID}/connection [get]
func (h *AgentHandler) ConnectionState(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.loadAgent(w, r)
	if !ok {
		return
	}

	resp := dto.ConnectionStateResponse{
		State:     messaging.SessionIdle,
		Connected: a.Connected,
	}

	if s, open := h.sessions.Get(a.ID); open {
		snap := s.Snapshot()
		resp.State = snap.State
		resp.QRExpires = snap.QRExpires
		resp.Error = snap.Error
	} else if a.Connected {
		resp.State = messaging.SessionConnected
	}

	utils.WriteSuccess(w, http.StatusOK, resp)
}

// Disconnect logs the agent out of the messaging provider
// @Summary Disconnect agent
// @Description Log the agent out and close any pairing session
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /agents/{agentID}/disconnect [post]
func (h *AgentHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID, a, ok := h.loadAgent(w, r)
	if !ok {
		return
	}

	h.sessions.Close(a.ID)

	if err := h.agentService.Disconnect(r.Context(), userID, a.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Agent disconnected", nil)
}

// Preview generates a sample reply from the agent's profile
// @Summary Preview agent reply
// @Description Generate a sample reply using the agent's configured profile
// @Tags Agents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Param request body dto.PreviewRequest true "Sample message"
// @Success 200 {object} dto.PreviewResponse
// @Failure 503 {object} utils.ErrorResponse "Preview unavailable"
// @Router /agents/{agentID}/preview [post]
func (h *AgentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.loadAgent(w, r)
	if !ok {
		return
	}

	if h.previewer == nil {
		utils.WriteError(w, errors.ServiceUnavailable("Preview is not configured"))
		return
	}

	var req dto.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	reply, err := h.previewer.Preview(r.Context(), a.Name, a.Type, a.Profile, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.PreviewResponse{Reply: reply})
}

// Analytics returns the agent's usage counters
// @Summary Agent analytics
// @Description Get the agent's usage counters
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Param agentID path int true "Agent ID"
// @Success 200 {object} agent.Analytics
// @Router /agents/{agentID}/analytics [get]
func (h *AgentHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	agentID, paramErr := urlParamInt64(r, "agentID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return
	}

	analytics, err := h.agentService.GetAnalytics(r.Context(), userID, agentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, analytics)
}

// loadAgent resolves the {agentID} URL param to an agent owned by the caller.
// On failure the error response has already been written.
func (h *AgentHandler) loadAgent(w http.ResponseWriter, r *http.Request) (int64, *agent.Agent, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return 0, nil, false
	}

	agentID, paramErr := urlParamInt64(r, "agentID")
	if paramErr != nil {
		utils.WriteError(w, paramErr)
		return 0, nil, false
	}

	a, err := h.agentService.GetByID(r.Context(), userID, agentID)
	if err != nil {
		writeServiceError(w, err)
		return 0, nil, false
	}

	return userID, a, true
}
