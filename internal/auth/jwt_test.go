package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("test-secret", "custody-engine", 15*time.Minute)

	token, err := m.Generate("wallet-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", claims.Subject)
	assert.Equal(t, "custody-engine", claims.Issuer)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret", "custody-engine", 15*time.Minute)
	other := NewJWTManager("other-secret", "custody-engine", 15*time.Minute)

	token, err := m.Generate("wallet-1")
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", "custody-engine", -1*time.Minute)

	token, err := m.Generate("wallet-1")
	require.NoError(t, err)

	_, err = m.Validate(token)
	require.Error(t, err)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	m := NewJWTManager("test-secret", "issuer-a", 15*time.Minute)
	other := NewJWTManager("test-secret", "issuer-b", 15*time.Minute)

	token, err := m.Generate("wallet-1")
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.Error(t, err)
}
