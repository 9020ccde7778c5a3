package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emberwell/wellness-backend/internal/api/respond"
	"github.com/emberwell/wellness-backend/internal/services"
)

// ConsentHandler exposes the append-only consent ledger.
type ConsentHandler struct {
	svc *services.ConsentService
}

func NewConsentHandler(svc *services.ConsentService) *ConsentHandler {
	return &ConsentHandler{svc: svc}
}

// ListConsents GET /v0/users/{userId}/consents
func (h *ConsentHandler) ListConsents(w http.ResponseWriter, r *http.Request) {
	lst, err := h.svc.ListConsents(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"consents": lst, "count": len(lst)})
}
