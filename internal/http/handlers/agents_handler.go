package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

// NewListAgentsHandler returns GET /api/agents: every agent annotated
// with its zone's workload and staffing recommendation.
func NewListAgentsHandler(allocation *service.AllocationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workloads, err := allocation.ListWithLoad(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if workloads == nil {
			workloads = []service.AgentWorkload{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"agents": workloads})
	}
}

// NewReassignAgentHandler returns PUT /api/agents/{id}/zone.
func NewReassignAgentHandler(allocation *service.AllocationService) http.HandlerFunc {
	type request struct {
		ZoneID int64 `json:"zoneId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "agent id must be numeric")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid JSON body")
			return
		}
		if req.ZoneID == 0 {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "zoneId is required")
			return
		}

		report, err := allocation.Reassign(r.Context(), agentID, req.ZoneID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
