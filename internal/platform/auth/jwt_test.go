package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "a@b.fr", RoleCustomer)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@b.fr", claims.Email)
	assert.Equal(t, RoleCustomer, claims.Role)
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	token, err := NewJWTManager("one", time.Minute).GenerateAccessToken(uuid.New(), "", RoleAdmin)
	require.NoError(t, err)

	_, err = NewJWTManager("two", time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, err := m.GenerateAccessToken(uuid.New(), "", RoleCustomer)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}
