package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testClaims(expiresIn time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        "session-1",
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		Issuer:    "account-service",
		Audience:  jwt.ClaimStrings{"account-service"},
	}
}

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("account-service", "account-service")

	tokenStr, err := a.GenerateToken(testClaims(time.Minute), testSecret)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = a.ValidateTokenWithClaims(tokenStr, testSecret, claims)
	require.NoError(t, err)

	assert.Equal(t, "session-1", claims.ID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestJWTAuthenticator_WrongSecret(t *testing.T) {
	a := NewJWTAuthenticator("account-service", "account-service")

	tokenStr, err := a.GenerateToken(testClaims(time.Minute), testSecret)
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(tokenStr, "other-secret", &jwt.RegisteredClaims{})
	assert.Error(t, err)
}

func TestJWTAuthenticator_Expired(t *testing.T) {
	a := NewJWTAuthenticator("account-service", "account-service")

	tokenStr, err := a.GenerateToken(testClaims(-time.Minute), testSecret)
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(tokenStr, testSecret, &jwt.RegisteredClaims{})
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTAuthenticator_WrongAudience(t *testing.T) {
	a := NewJWTAuthenticator("other-service", "account-service")

	tokenStr, err := a.GenerateToken(testClaims(time.Minute), testSecret)
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(tokenStr, testSecret, &jwt.RegisteredClaims{})
	assert.Error(t, err)
}

func TestJWTAuthenticator_MissingExpiration(t *testing.T) {
	a := NewJWTAuthenticator("account-service", "account-service")

	claims := testClaims(time.Minute)
	claims.ExpiresAt = nil

	tokenStr, err := a.GenerateToken(claims, testSecret)
	require.NoError(t, err)

	_, err = a.ValidateTokenWithClaims(tokenStr, testSecret, &jwt.RegisteredClaims{})
	assert.Error(t, err)
}
