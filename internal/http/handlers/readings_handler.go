package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"metergrid/internal/domain"
	httpserver "metergrid/internal/http"
	"metergrid/internal/service"
)

// NewRecordReadingHandler returns POST /api/readings.
func NewRecordReadingHandler(ledger *service.LedgerService) http.HandlerFunc {
	type request struct {
		MeterSerial string `json:"meterSerial"`
		NewIndex    *int64 `json:"newIndex"`
		AgentID     int64  `json:"agentId"`
	}
	type response struct {
		ReadingID   int64     `json:"readingId"`
		RecordedAt  time.Time `json:"timestamp"`
		Consumption int64     `json:"consumption"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid JSON body")
			return
		}
		if req.MeterSerial == "" || req.NewIndex == nil || req.AgentID == 0 {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "meterSerial, newIndex and agentId are required")
			return
		}

		reading, err := ledger.Record(r.Context(), req.MeterSerial, *req.NewIndex, req.AgentID)
		if err != nil {
			if domain.IsKind(err, domain.KindConflict) {
				httpserver.ObserveReadingConflict()
			}
			writeDomainError(w, err)
			return
		}

		httpserver.ObserveReadingRecorded()
		writeJSON(w, http.StatusCreated, response{
			ReadingID:   reading.ID,
			RecordedAt:  reading.RecordedAt,
			Consumption: reading.Consumption,
		})
	}
}

// NewListReadingsHandler returns GET /api/readings with dateFrom,
// dateTo and zone filters.
func NewListReadingsHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter domain.ReadingFilter

		if raw := r.URL.Query().Get("dateFrom"); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "dateFrom must be a date or RFC3339 timestamp")
				return
			}
			filter.From = &t
		}
		if raw := r.URL.Query().Get("dateTo"); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "dateTo must be a date or RFC3339 timestamp")
				return
			}
			filter.To = &t
		}
		if raw := r.URL.Query().Get("zone"); raw != "" {
			zoneID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "zone must be numeric")
				return
			}
			filter.ZoneID = &zoneID
		}

		readings, err := ledger.List(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if readings == nil {
			readings = []domain.Reading{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"readings": readings})
	}
}
