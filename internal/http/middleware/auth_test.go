package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metergrid/internal/domain"
	"metergrid/internal/http/middleware"
	"metergrid/internal/service"
)

func authedHandler(t *testing.T, gotPrincipal *middleware.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.PrincipalFromContext(r.Context())
		require.True(t, ok)
		*gotPrincipal = p
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := service.NewTokenService("test-secret", time.Hour)
	token, err := tokens.GenerateToken(42, domain.RoleUser)
	require.NoError(t, err)

	var principal middleware.Principal
	handler := middleware.Auth(tokens)(authedHandler(t, &principal))

	req := httptest.NewRequest(http.MethodGet, "/api/readings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), principal.UserID)
	assert.Equal(t, domain.RoleUser, principal.Role)
}

func TestAuth_MissingHeader(t *testing.T) {
	tokens := service.NewTokenService("test-secret", time.Hour)
	handler := middleware.Auth(tokens)(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/readings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	tokens := service.NewTokenService("test-secret", time.Hour)
	handler := middleware.Auth(tokens)(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/readings", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ForgedToken(t *testing.T) {
	issuer := service.NewTokenService("other-secret", time.Hour)
	token, err := issuer.GenerateToken(1, domain.RoleUser)
	require.NoError(t, err)

	tokens := service.NewTokenService("test-secret", time.Hour)
	handler := middleware.Auth(tokens)(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/readings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
