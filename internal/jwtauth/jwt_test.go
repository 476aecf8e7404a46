package jwtauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	svc := New(testSecret)
	owner := id.NewUserID()

	token := mintToken(t, testSecret, Claims{
		UserID:   owner.String(),
		FullName: "Ada Lovelace",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	userID, name, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, owner, userID)
	assert.Equal(t, "Ada Lovelace", name)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := New(testSecret)
	token := mintToken(t, testSecret, Claims{
		UserID: id.NewUserID().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, _, err := svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := New(testSecret)
	token := mintToken(t, "other-secret", Claims{UserID: id.NewUserID().String()})

	_, _, err := svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenRejectsNonHMAC(t *testing.T) {
	svc := New(testSecret)

	_, _, err := svc.ValidateToken("not-a-jwt")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenBadUserID(t *testing.T) {
	svc := New(testSecret)
	token := mintToken(t, testSecret, Claims{UserID: "not-a-uuid"})

	_, _, err := svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
