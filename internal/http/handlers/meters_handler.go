package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

// NewListMetersHandler returns GET /api/meters with kind and zone
// filters.
func NewListMetersHandler(meters *service.MeterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter domain.MeterFilter
		if raw := r.URL.Query().Get("kind"); raw != "" {
			filter.Kind = domain.MeterKind(raw)
		}
		if raw := r.URL.Query().Get("zone"); raw != "" {
			zoneID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "zone must be numeric")
				return
			}
			filter.ZoneID = &zoneID
		}

		list, err := meters.List(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if list == nil {
			list = []domain.Meter{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"meters": list})
	}
}

// NewCreateMeterHandler returns POST /api/meters.
func NewCreateMeterHandler(meters *service.MeterService) http.HandlerFunc {
	type request struct {
		Serial    string `json:"serial"`
		Kind      string `json:"kind"`
		AddressID int64  `json:"addressId"`
		ClientID  int64  `json:"clientId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid JSON body")
			return
		}
		if req.Kind == "" || req.AddressID == 0 || req.ClientID == 0 {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "kind, addressId and clientId are required")
			return
		}

		meter, err := meters.Create(r.Context(), service.CreateMeterInput{
			Serial:    req.Serial,
			Kind:      domain.MeterKind(req.Kind),
			AddressID: req.AddressID,
			ClientID:  req.ClientID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, meter)
	}
}

// NewUpdateMeterHandler returns PUT /api/meters/{serial}.
func NewUpdateMeterHandler(meters *service.MeterService) http.HandlerFunc {
	type request struct {
		Kind      string `json:"kind"`
		AddressID int64  `json:"addressId"`
		ClientID  int64  `json:"clientId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		serial := chi.URLParam(r, "serial")

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid JSON body")
			return
		}

		meter, err := meters.Update(r.Context(), serial, service.UpdateMeterInput{
			Kind:      domain.MeterKind(req.Kind),
			AddressID: req.AddressID,
			ClientID:  req.ClientID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meter)
	}
}

// NewDeleteMeterHandler returns DELETE /api/meters/{serial}.
func NewDeleteMeterHandler(meters *service.MeterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := meters.Delete(r.Context(), chi.URLParam(r, "serial")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
