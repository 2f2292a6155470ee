package handlers

import (
	"net/http"

	"github.com/campusfest/techfest-system/middleware"
	"github.com/campusfest/techfest-system/services"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Dashboard godoc
// @Summary Platform-wide counters for the admin dashboard
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Dashboard stats"
// @Failure 403 {object} map[string]string "Admins only"
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	stats, err := h.statsService.GetDashboardStats(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
