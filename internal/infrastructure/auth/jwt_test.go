package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(mutate ...func(*config.JWTConfig)) *JWTService {
	cfg := config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        3,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewJWTService(cfg)
}

func newTestInput() TokenInput {
	return TokenInput{
		TenantID: uuid.New(),
		UserID:   uuid.New(),
		Username: "alice",
		Role:     "ADMIN",
	}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := newTestJWTService(func(c *config.JWTConfig) { c.RefreshSecret = "" })
	assert.Equal(t, svc.accessSecret, svc.refreshSecret)
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	in := newTestInput()

	pair, err := svc.GenerateTokenPair(in)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, in.TenantID.String(), claims.TenantID)
	assert.Equal(t, in.UserID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.Greater(t, claims.RemainingTTL(), 14*time.Minute)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, refresh.Role)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
}

func TestValidate_TokenTypeIsChecked(t *testing.T) {
	svc := newTestJWTService(func(c *config.JWTConfig) { c.RefreshSecret = "" })
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestValidate_Errors(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		svc := newTestJWTService(func(c *config.JWTConfig) { c.AccessTokenExpiration = -time.Hour })
		pair, err := svc.GenerateTokenPair(newTestInput())
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := newTestJWTService().ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		pair, err := newTestJWTService().GenerateTokenPair(newTestInput())
		require.NoError(t, err)
		other := newTestJWTService(func(c *config.JWTConfig) { c.Secret = "another-secret-key-at-least-32-chars" })
		_, err = other.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{TenantID: "t", UserID: "u", TokenType: TokenTypeAccess})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = newTestJWTService().ValidateAccessToken(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tenant", func(t *testing.T) {
		svc := newTestJWTService()
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "u", TokenType: TokenTypeAccess}).SignedString(svc.accessSecret)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(s)
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})
}

func TestValidateRefreshToken_MaxRefreshCount(t *testing.T) {
	svc := newTestJWTService()
	in := newTestInput()
	in.RefreshCount = 2

	pair, err := svc.GenerateTokenPair(in)
	require.NoError(t, err)
	claims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 2, claims.RefreshCount)

	in.RefreshCount = 3
	pair, err = svc.GenerateTokenPair(in)
	require.NoError(t, err)
	_, err = svc.ValidateRefreshToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}
