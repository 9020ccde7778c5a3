package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberwell/wellness-backend/internal/api/respond"
	"github.com/emberwell/wellness-backend/internal/services"
)

// StateHandler exposes the lifecycle state machine.
type StateHandler struct {
	svc *services.StateService
}

func NewStateHandler(svc *services.StateService) *StateHandler { return &StateHandler{svc: svc} }

// GetState GET /v0/users/{userId}/state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetState(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Evaluate POST /v0/users/{userId}/state/evaluate
func (h *StateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Evaluate(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ConfirmBooking POST /v0/users/{userId}/bookings/confirmed
// Webhook from the booking collaborator.
func (h *StateHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ConfirmBooking(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
