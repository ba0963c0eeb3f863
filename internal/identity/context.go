package identity

import "context"

type contextKey struct{}

// WithClaims stores validated token claims on the request context.
func WithClaims(ctx context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the claims set by the bearer-auth middleware.
func ClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*TokenClaims)
	return claims, ok
}
