package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"metergrid/internal/domain"
)

type errorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind domain.ErrorKind, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Kind: kind, Message: message}})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Errors
// outside the taxonomy surface as a generic 500 with no internals.
func writeDomainError(w http.ResponseWriter, err error) {
	kind, ok := domain.KindOf(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
		return
	}

	var status int
	switch kind {
	case domain.KindInvalidInput:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInvalidState:
		status = http.StatusUnprocessableEntity
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindDependencyFailure:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	var de *domain.Error
	message := "internal server error"
	if errors.As(err, &de) {
		message = de.Message
	}
	writeError(w, status, kind, message)
}

// parseDate accepts RFC3339 timestamps or bare dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
