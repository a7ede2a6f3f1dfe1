package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirphl/partyline/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:       testSecret,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "test-issuer",
		Audience:        "test-audience",
	}
}

// createTestTokenService creates a token service backed by a throw-away redis
func createTestTokenService(t *testing.T) (TokenService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	service, err := NewTokenService(testJWTConfig(), NewRedisRevocationStore(client, "test:"))
	require.NoError(t, err)
	return service, mr
}

func TestNewTokenService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*config.JWTConfig)
		expectError bool
	}{
		{name: "valid symmetric key configuration", mutate: func(*config.JWTConfig) {}},
		{name: "missing secret key", mutate: func(c *config.JWTConfig) { c.SecretKey = "" }, expectError: true},
		{name: "rsa without keys", mutate: func(c *config.JWTConfig) { c.UseRSAKeys = true }, expectError: true},
		{name: "rsa with garbage keys", mutate: func(c *config.JWTConfig) {
			c.UseRSAKeys = true
			c.PrivateKey = "not a pem"
			c.PublicKey = "not a pem"
		}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testJWTConfig()
			tt.mutate(&cfg)
			service, err := NewTokenService(cfg, nil)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, service)
		})
	}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	t.Parallel()
	service, _ := createTestTokenService(t)
	ctx := context.Background()

	pair, err := service.GenerateTokens(123)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, int((15 * time.Minute).Seconds()), pair.ExpiresIn)

	access, err := service.ValidateToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(123), access.AccountID)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.NotEmpty(t, access.TokenID)
	assert.True(t, access.ExpiresAt.After(access.IssuedAt))

	refresh, err := service.ValidateToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEqual(t, access.TokenID, refresh.TokenID)
}

func TestValidateTokenRejects(t *testing.T) {
	t.Parallel()
	service, _ := createTestTokenService(t)
	ctx := context.Background()

	sign := func(claims jwt.MapClaims, key string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
		require.NoError(t, err)
		return s
	}
	now := time.Now()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"account_id": 1,
			"token_type": TokenTypeAccess,
			"jti":        "abc",
			"iat":        now.Unix(),
			"exp":        now.Add(time.Minute).Unix(),
			"iss":        "test-issuer",
			"aud":        "test-audience",
		}
	}

	t.Run("Garbage", func(t *testing.T) {
		_, err := service.ValidateToken(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongKey", func(t *testing.T) {
		_, err := service.ValidateToken(ctx, sign(base(), strings.Repeat("x", 40)))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Expired", func(t *testing.T) {
		c := base()
		c["iat"] = now.Add(-2 * time.Hour).Unix()
		c["exp"] = now.Add(-time.Hour).Unix()
		_, err := service.ValidateToken(ctx, sign(c, testSecret))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("WrongAudience", func(t *testing.T) {
		c := base()
		c["aud"] = "someone-else"
		_, err := service.ValidateToken(ctx, sign(c, testSecret))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("MissingAccount", func(t *testing.T) {
		c := base()
		delete(c, "account_id")
		_, err := service.ValidateToken(ctx, sign(c, testSecret))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestRevokeToken(t *testing.T) {
	t.Parallel()
	service, mr := createTestTokenService(t)
	ctx := context.Background()

	pair, err := service.GenerateTokens(7)
	require.NoError(t, err)

	require.NoError(t, service.RevokeToken(ctx, pair.AccessToken))

	_, err = service.ValidateToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// the refresh token is independent
	_, err = service.ValidateToken(ctx, pair.RefreshToken)
	assert.NoError(t, err)

	// the revocation entry lives no longer than the token
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "test:revoked:"))
	ttl := mr.TTL(keys[0])
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 15*time.Minute)

	mr.FastForward(16 * time.Minute)
	assert.Empty(t, mr.Keys())
}

func TestRefreshTokenRotates(t *testing.T) {
	t.Parallel()
	service, _ := createTestTokenService(t)
	ctx := context.Background()

	pair, err := service.GenerateTokens(9)
	require.NoError(t, err)

	_, err = service.RefreshToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	next, err := service.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := service.ValidateToken(ctx, next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.AccountID)

	_, err = service.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestMemoryRevocationStore(t *testing.T) {
	t.Parallel()
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "a", time.Hour))
	require.NoError(t, store.Revoke(ctx, "b", -time.Second))

	revoked, err := store.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked)
}
