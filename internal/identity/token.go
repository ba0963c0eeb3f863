package identity

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/identity/entity"
)

// TokenConfig holds the symmetric signing key and token parameters. The key
// comes from process configuration; an empty key is a fatal startup condition
// checked by the caller.
type TokenConfig struct {
	SecretKey []byte
	TTL       time.Duration
	Issuer    string
	Audience  string
}

// TokenConfigFromEnv reads token settings from the environment. SecretKey is
// nil when JWT_SECRET_KEY is unset.
func TokenConfigFromEnv() TokenConfig {
	cfg := TokenConfig{
		TTL:      time.Hour,
		Issuer:   "storefront",
		Audience: "storefront-clients",
	}
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		cfg.SecretKey = []byte(v)
	}
	if v := os.Getenv("JWT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TTL = d
		}
	}
	return cfg
}

// TokenClaims are the identity attributes embedded in a bearer token.
type TokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IssueToken mints a signed HS256 token for the user, valid for cfg.TTL.
func IssueToken(cfg TokenConfig, u *entity.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(cfg.TTL)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(cfg.SecretKey)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(err, apperr.KindInternal, "could not sign token")
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies signature, expiry, issuer and audience and returns
// the embedded claims. Every failure mode (bad signature, expired, malformed,
// wrong algorithm, foreign issuer or audience) maps to the same generic error
// so callers cannot tell a forged token from a stale one. The validator never
// consults storage.
func ValidateToken(cfg TokenConfig, tokenString string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return cfg.SecretKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(err, apperr.KindUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
