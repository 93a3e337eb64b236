package utils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withKey(t *testing.T, key string) {
	t.Helper()
	old := JwtKey
	JwtKey = []byte(key)
	t.Cleanup(func() { JwtKey = old })
}

func TestJWTRoundTrip(t *testing.T) {
	withKey(t, "test-secret")

	token, err := GenerateJWT("u1", "ann@example.com", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "u1", claims.Subject)
}

func TestParseJWTRejects(t *testing.T) {
	withKey(t, "test-secret")

	expired, err := GenerateJWT("u1", "", "customer", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired)
	assert.Error(t, err)

	_, err = ParseJWT("not-a-token")
	assert.Error(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "u1"})
	forged, err := other.SignedString([]byte("someone-else"))
	require.NoError(t, err)
	_, err = ParseJWT(forged)
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseJWT(unsigned)
	assert.Error(t, err)
}

func TestGenerateJWTNeedsKey(t *testing.T) {
	withKey(t, "")
	_, err := GenerateJWT("u1", "", "customer", time.Hour)
	assert.Error(t, err)
}
