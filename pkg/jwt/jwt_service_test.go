package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram-api/domain"
)

func TestUserTokenRoundTrip(t *testing.T) {
	svc := NewJWTService()

	token := svc.GenerateTokenUser("user-123", domain.RoleUser)
	require.NotEmpty(t, token)

	userID, role, err := svc.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
	assert.Equal(t, domain.RoleUser, role)
}

func TestUserTokenTampered(t *testing.T) {
	svc := NewJWTService()

	token := svc.GenerateTokenUser("user-123", domain.RoleUser)
	_, _, err := svc.GetUserIDByToken(token + "x")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestResetPasswordToken(t *testing.T) {
	svc := NewJWTService()

	token, err := svc.GenerateTokenResetPassword(map[string]any{"user_id": "user-123"}, 30*time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateTokenResetPassword(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])
}

func TestResetPasswordTokenExpired(t *testing.T) {
	svc := NewJWTService()

	token, err := svc.GenerateTokenResetPassword(map[string]any{"user_id": "user-123"}, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateTokenResetPassword(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}
