package handlers

import (
	"net/http"
	"strconv"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

// NewDashboardStatsHandler returns GET /api/dashboard/stats.
func NewDashboardStatsHandler(dashboard *service.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := dashboard.Stats(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// NewRoundsHandler returns GET /api/rounds?agentId=: the meters an
// agent still has to read this month.
func NewRoundsHandler(rounds *service.RoundsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("agentId")
		if raw == "" {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "agentId is required")
			return
		}
		agentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "agentId must be numeric")
			return
		}

		round, err := rounds.ForAgent(r.Context(), agentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if round.Meters == nil {
			round.Meters = []domain.Meter{}
		}
		writeJSON(w, http.StatusOK, round)
	}
}

// NewHealthHandler returns GET /health.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
