package api

import (
	"net/http"

	"github.com/emberwell/wellness-backend/internal/api/respond"
	"github.com/emberwell/wellness-backend/internal/health"
)

// HealthHandler serves liveness from cached checker state so probes never
// touch the database on the request path.
type HealthHandler struct {
	service *health.ServiceHealthChecker
	db      health.HealthChecker
}

func NewHealthHandler(service *health.ServiceHealthChecker, db health.HealthChecker) *HealthHandler {
	return &HealthHandler{service: service, db: db}
}

// CheckHealth GET /v0/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if !h.service.IsHealthy() {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// CheckStoreHealth GET /v0/health/db
func (h *HealthHandler) CheckStoreHealth(w http.ResponseWriter, r *http.Request) {
	if !h.db.IsHealthy() {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "component": h.db.Name()})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "component": h.db.Name()})
}
