package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/identity/entity"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		SecretKey: []byte("test-signing-key"),
		TTL:       time.Hour,
		Issuer:    "storefront",
		Audience:  "storefront-clients",
	}
}

func testUser() *entity.User {
	return &entity.User{
		ID:       "2a5zsiDd2QTNGMrN8Lzqv4FpJ3v",
		Username: "alice-w",
		Email:    "a@x.com",
		Role:     entity.RoleUser,
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	cfg := testTokenConfig()

	token, expiresAt, err := IssueToken(cfg, testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(cfg.TTL), expiresAt, 5*time.Second)

	claims, err := ValidateToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "alice-w", claims.Username)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, entity.RoleUser, claims.Role)
	assert.Equal(t, "storefront", claims.Issuer)
}

func TestValidateToken_UniformFailure(t *testing.T) {
	cfg := testTokenConfig()

	cases := map[string]func(t *testing.T) string{
		"expired": func(t *testing.T) string {
			short := cfg
			short.TTL = -time.Minute
			token, _, err := IssueToken(short, testUser())
			require.NoError(t, err)
			return token
		},
		"wrong secret": func(t *testing.T) string {
			other := cfg
			other.SecretKey = []byte("some-other-key")
			token, _, err := IssueToken(other, testUser())
			require.NoError(t, err)
			return token
		},
		"foreign issuer": func(t *testing.T) string {
			other := cfg
			other.Issuer = "someone-else"
			token, _, err := IssueToken(other, testUser())
			require.NoError(t, err)
			return token
		},
		"foreign audience": func(t *testing.T) string {
			other := cfg
			other.Audience = "someone-else-clients"
			token, _, err := IssueToken(other, testUser())
			require.NoError(t, err)
			return token
		},
		"malformed": func(t *testing.T) string {
			return "not.a.jwt"
		},
		"empty": func(t *testing.T) string {
			return ""
		},
	}

	for name, mk := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := ValidateToken(cfg, mk(t))
			require.Error(t, err)
			assert.Nil(t, claims)
			// callers must not be able to distinguish failure reasons
			assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
			assert.Equal(t, "invalid or expired token", apperr.Message(err))
		})
	}
}

func TestTokenConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "env-key")
	t.Setenv("JWT_TTL", "30m")

	cfg := TokenConfigFromEnv()
	assert.Equal(t, []byte("env-key"), cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.TTL)

	t.Setenv("JWT_SECRET_KEY", "")
	assert.Nil(t, TokenConfigFromEnv().SecretKey)
}
