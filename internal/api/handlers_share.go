package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/emberwell/wellness-backend/internal/api/respond"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/services"
)

// ShareHandler exposes share grants and the unauthenticated shared-report
// path.
type ShareHandler struct {
	svc *services.ShareService
}

func NewShareHandler(svc *services.ShareService) *ShareHandler { return &ShareHandler{svc: svc} }

// CreateShare POST /v0/users/{userId}/reports/{reportId}/shares
// The response is the only place the token ever appears.
func (h *ShareHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		TTL string `json:"ttl"`
	}
	// An empty body means default TTL.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	var ttl time.Duration
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil {
			respond.WriteBadRequest(w, "ttl must be a duration such as 24h")
			return
		}
		ttl = d
	}
	sh, err := h.svc.CreateShare(r.Context(), vars["userId"], vars["reportId"], ttl)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"share": sh,
		"token": sh.Token,
		"url":   "/v0/shared/" + sh.Token,
	})
}

// ListShares GET /v0/users/{userId}/reports/{reportId}/shares
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	lst, err := h.svc.ListShares(r.Context(), vars["userId"], vars["reportId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"shares": lst, "count": len(lst)})
}

// RevokeShare POST /v0/users/{userId}/reports/{reportId}/shares/{shareId}/revoke
func (h *ShareHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sh, err := h.svc.RevokeShare(r.Context(), vars["userId"], vars["reportId"], vars["shareId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sh)
}

// GetSharedReport GET /v0/shared/{token}
// Unauthenticated. Unknown, expired and revoked tokens all collapse into
// the same denial so the path leaks nothing about token state.
func (h *ShareHandler) GetSharedReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.PublicReport(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		if errors.Is(err, model.ErrInvalidShareToken) || errors.Is(err, model.ErrNotFound) {
			respond.WriteError(w, http.StatusNotFound, "access denied")
			return
		}
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rep)
}
