package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/emberwell/wellness-backend/internal/api/respond"
	"github.com/emberwell/wellness-backend/internal/services"
)

// InsightHandler exposes insight generation and browsing.
type InsightHandler struct {
	svc *services.InsightService
}

func NewInsightHandler(svc *services.InsightService) *InsightHandler {
	return &InsightHandler{svc: svc}
}

// GenerateInsights POST /v0/users/{userId}/insights/generate?includeLowSignal=true
func (h *InsightHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	includeLowSignal := r.URL.Query().Get("includeLowSignal") == "true"
	created, err := h.svc.GenerateInsights(r.Context(), userID, includeLowSignal)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"insights": created, "count": len(created)})
}

// ListInsights GET /v0/users/{userId}/insights?from=RFC3339&to=RFC3339&limit=N
func (h *InsightHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	q := r.URL.Query()

	var from, to *time.Time
	for name, dst := range map[string]**time.Time{"from": &from, "to": &to} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.WriteBadRequest(w, name+" must be RFC3339")
			return
		}
		*dst = &ts
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	lst, err := h.svc.ListInsights(r.Context(), userID, from, to, limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"insights": lst, "count": len(lst)})
}

// GetInsight GET /v0/users/{userId}/insights/{insightId}
func (h *InsightHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	out, err := h.svc.GetInsight(r.Context(), vars["userId"], vars["insightId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
