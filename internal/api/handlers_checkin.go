package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/emberwell/wellness-backend/internal/api/respond"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/services"
)

// CheckInHandler exposes daily check-ins and the progressive-depth queries.
type CheckInHandler struct {
	svc *services.CheckInService
}

func NewCheckInHandler(svc *services.CheckInService) *CheckInHandler {
	return &CheckInHandler{svc: svc}
}

// RecordCheckIn POST /v0/users/{userId}/checkins
func (h *CheckInHandler) RecordCheckIn(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var req struct {
		Responses map[string]string `json:"responses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	out, err := h.svc.RecordCheckIn(r.Context(), userID, req.Responses)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListCheckIns GET /v0/users/{userId}/checkins?limit=N
func (h *CheckInHandler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	lst, err := h.svc.ListCheckIns(r.Context(), model.ListCheckInsRequest{UserID: userID, Limit: limit})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"checkIns": lst, "count": len(lst)})
}

// GetLatestCheckIn GET /v0/users/{userId}/checkins/latest
func (h *CheckInHandler) GetLatestCheckIn(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetLatestCheckIn(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GetEligibility GET /v0/users/{userId}/checkins/eligibility
func (h *CheckInHandler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.CanUserCheckIn(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GetLevel GET /v0/users/{userId}/checkins/level
func (h *CheckInHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	lvl, err := h.svc.GetCurrentCheckInLevel(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"level": lvl})
}

// GetCheckIn GET /v0/users/{userId}/checkins/{checkInId}
func (h *CheckInHandler) GetCheckIn(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	out, err := h.svc.GetCheckIn(r.Context(), vars["userId"], vars["checkInId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
