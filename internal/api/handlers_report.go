package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/emberwell/wellness-backend/internal/api/respond"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/services"
)

// ReportHandler exposes report generation and retrieval.
type ReportHandler struct {
	svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler { return &ReportHandler{svc: svc} }

// GenerateReport POST /v0/users/{userId}/reports
func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var req struct {
		Type        string    `json:"type"`
		PeriodStart time.Time `json:"periodStart"`
		PeriodEnd   time.Time `json:"periodEnd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	out, err := h.svc.GenerateReport(r.Context(), userID, model.ReportType(req.Type), req.PeriodStart, req.PeriodEnd)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListReports GET /v0/users/{userId}/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	lst, err := h.svc.ListReports(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"reports": lst, "count": len(lst)})
}

// GetReport GET /v0/users/{userId}/reports/{reportId}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	out, err := h.svc.GetReport(r.Context(), vars["userId"], vars["reportId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
