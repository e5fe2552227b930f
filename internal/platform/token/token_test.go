package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key string, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	v := NewValidator("test-signing-key")
	require.True(t, v.Enabled())

	signed := sign(t, "test-signing-key", wireClaims{
		Role: "storage-collaborator",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "svc-storage",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "svc-storage", claims.Subject)
	assert.Equal(t, "storage-collaborator", claims.Role)
}

func TestValidateTokenWrongKey(t *testing.T) {
	v := NewValidator("test-signing-key")

	signed := sign(t, "another-key", jwt.RegisteredClaims{Subject: "svc-storage"})

	_, err := v.ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	v := NewValidator("test-signing-key")

	signed := sign(t, "test-signing-key", jwt.RegisteredClaims{
		Subject:   "svc-storage",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	_, err := v.ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateTokenRejectsUnsignedAlg(t *testing.T) {
	v := NewValidator("test-signing-key")

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone,
		jwt.RegisteredClaims{Subject: "svc-storage"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.ValidateToken(unsigned)
	assert.Error(t, err, "only HS256 is accepted")
}
