package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestValidateAccessToken(t *testing.T) {
	m := NewJWTManager(config.JWTConfig{Secret: testSecret, Issuer: "accounts"})

	t.Run("valid", func(t *testing.T) {
		tok, err := m.GenerateAccessToken(7, "ana@example.com", true, time.Hour)
		require.NoError(t, err)

		claims, err := m.ValidateAccessToken(tok)
		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.UserID)
		assert.Equal(t, "ana@example.com", claims.Email)
		assert.True(t, claims.IsAdmin)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := m.GenerateAccessToken(7, "", false, -time.Minute)
		require.NoError(t, err)
		_, err = m.ValidateAccessToken(tok)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager(config.JWTConfig{Secret: "ffffffffffffffffffffffffffffffff", Issuer: "accounts"})
		tok, err := other.GenerateAccessToken(7, "", false, time.Hour)
		require.NoError(t, err)
		_, err = m.ValidateAccessToken(tok)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTManager(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
		tok, err := other.GenerateAccessToken(7, "", false, time.Hour)
		require.NoError(t, err)
		_, err = m.ValidateAccessToken(tok)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		claims := &Claims{UserID: 7, TokenType: "refresh", RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "accounts",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = m.ValidateAccessToken(tok)
		assert.ErrorContains(t, err, "invalid token type")
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Bearer "))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}
