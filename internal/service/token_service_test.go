package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := service.NewTokenService("test-secret", time.Hour)

	token, err := svc.GenerateToken(42, domain.RoleSuperAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleSuperAdmin, claims.Role)
}

func TestGenerateToken_RequiresUserID(t *testing.T) {
	svc := service.NewTokenService("test-secret", time.Hour)

	_, err := svc.GenerateToken(0, domain.RoleUser)
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := service.NewTokenService("secret-a", time.Hour)
	verifier := service.NewTokenService("secret-b", time.Hour)

	token, err := issuer.GenerateToken(1, domain.RoleUser)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := service.NewTokenService("test-secret", time.Nanosecond)

	token, err := svc.GenerateToken(1, domain.RoleUser)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := service.NewTokenService("test-secret", time.Hour)

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
