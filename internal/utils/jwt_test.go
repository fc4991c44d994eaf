package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 24*time.Hour)

	token, err := svc.GenerateToken("user123")
	require.NoError(t, err)

	userID, err := svc.ValidateToken(*token)
	require.NoError(t, err)
	assert.Equal(t, "user123", *userID)
}

func TestJWTService_ExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute, 24*time.Hour)

	token, err := svc.GenerateToken("user123")
	require.NoError(t, err)

	_, err = svc.ValidateToken(*token)
	assert.Error(t, err)
}

func TestJWTService_WrongSecretRejected(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Hour, 24*time.Hour)
	verifier := NewJWTService("secret-b", time.Hour, 24*time.Hour)

	token, err := issuer.GenerateToken("user123")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(*token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}
