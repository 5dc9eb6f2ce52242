package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

// NewLoginHandler returns POST /api/auth/login.
func NewLoginHandler(auth *service.AuthService) http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	type response struct {
		Token              string `json:"token"`
		TokenType          string `json:"token_type"`
		MustChangePassword bool   `json:"mustChangePassword"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid JSON body")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		req.Password = strings.TrimSpace(req.Password)
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "email and password are required")
			return
		}

		token, user, err := auth.Login(r.Context(), req.Email, req.Password, clientIP(r))
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
				return
			}
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, response{
			Token:              token,
			TokenType:          "Bearer",
			MustChangePassword: user.MustChangePassword,
		})
	}
}

// NewChangePasswordHandler returns POST /api/auth/change-password.
func NewChangePasswordHandler(auth *service.AuthService) http.HandlerFunc {
	type request struct {
		Email           string `json:"email"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid JSON body")
			return
		}

		if err := auth.ChangePassword(r.Context(), req.Email, req.CurrentPassword, req.NewPassword); err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
				return
			}
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
