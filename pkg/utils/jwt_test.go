package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims UserClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestValidateToken(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("secret") })

	token := sign(t, jwt.SigningMethodHS256, []byte("test-secret"), UserClaims{
		UserID:    "u-1",
		FirstName: "Ana",
		LastName:  "Deiye",
		Email:     "ana@gov.example",
		Roles:     []string{"REVIEWER"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, []string{"REVIEWER"}, claims.Roles)
}

func TestValidateTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("secret") })

	wrong := sign(t, jwt.SigningMethodHS256, []byte("other"), UserClaims{UserID: "u-1"})
	_, err := ValidateToken(wrong)
	assert.Error(t, err)

	expired := sign(t, jwt.SigningMethodHS256, []byte("test-secret"), UserClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	_, err = ValidateToken(expired)
	assert.Error(t, err)
}

func TestIssueToken(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("secret") })

	token, err := IssueToken(UserClaims{UserID: "m-1", Roles: []string{"MINISTER"}}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "m-1", claims.UserID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}
