package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret", Issuer: "video-agent-api"})

	token, err := m.GenerateToken("user-42")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "video-agent-api", claims.Issuer)
}

func TestValidateTokenRejects(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret"})
	other := NewJWTManager(JWTConfig{Secret: "different"})

	foreign, err := other.GenerateToken("user-1")
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager(JWTConfig{Secret: "s3cret", Expiry: time.Nanosecond})
	old, err := expired.GenerateToken("user-1")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = m.ValidateToken(old)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret"})
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "from-sub",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	claims, err := m.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "from-sub", claims.UserID)
}
