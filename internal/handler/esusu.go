package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/adetunjii/esusu-engine/internal/domain"
	"github.com/adetunjii/esusu-engine/internal/service"
	"github.com/adetunjii/esusu-engine/pkg/response"
)

type EsusuHandler struct {
	formation   *service.FormationService
	invitations *service.InvitationService
	slots       *service.SlotService
	validator   *validator.Validate
}

func NewEsusuHandler(
	formation *service.FormationService,
	invitations *service.InvitationService,
	slots *service.SlotService,
) *EsusuHandler {
	return &EsusuHandler{
		formation:   formation,
		invitations: invitations,
		slots:       slots,
		validator:   validator.New(),
	}
}

// CheckEligibility handles GET /communities/{communityId}/esusu/eligibility
func (h *EsusuHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	communityID := mux.Vars(r)["communityId"]
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		response.BadRequest(w, "userId query parameter is required", nil)
		return
	}

	result, err := h.formation.CheckEligibility(r.Context(), communityID, userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// CheckNameAvailability handles GET /communities/{communityId}/esusu/name-availability
func (h *EsusuHandler) CheckNameAvailability(w http.ResponseWriter, r *http.Request) {
	communityID := mux.Vars(r)["communityId"]
	name := r.URL.Query().Get("name")
	if name == "" {
		response.BadRequest(w, "name query parameter is required", nil)
		return
	}

	result, err := h.formation.CheckNameAvailability(r.Context(), communityID, name)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// CreateGroup handles POST /esusu/groups
func (h *EsusuHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	summary, err := h.formation.CreateGroup(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, summary)
}

// Respond handles POST /esusu/groups/{groupId}/response
func (h *EsusuHandler) Respond(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}

	var req domain.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	result, err := h.invitations.Respond(r.Context(), groupID, req.UserID, *req.Accept)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// AvailableSlots handles GET /esusu/groups/{groupId}/slots
func (h *EsusuHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}

	result, err := h.slots.AvailableSlots(r.Context(), groupID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// SelectSlot handles POST /esusu/groups/{groupId}/slots
func (h *EsusuHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}

	var req domain.SelectSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	result, err := h.slots.SelectSlot(r.Context(), groupID, req.UserID, req.SlotNumber)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, result)
}

// WaitingRoom handles GET /esusu/groups/{groupId}/waiting-room
func (h *EsusuHandler) WaitingRoom(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}

	view, err := h.formation.WaitingRoom(r.Context(), groupID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, view)
}

func (h *EsusuHandler) groupID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	groupID, err := uuid.Parse(mux.Vars(r)["groupId"])
	if err != nil {
		response.BadRequest(w, "invalid group id", err)
		return uuid.Nil, false
	}
	return groupID, true
}
