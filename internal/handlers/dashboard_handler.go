package handlers

import (
	"net/http"

	"swiftfactureBack/internal/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

// Summary serves GET /api/dashboard. Fetch failures are absorbed by the
// service, so this always answers 200.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Summary(r.Context(), userIDFrom(r)))
}
