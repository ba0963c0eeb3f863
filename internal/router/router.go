package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/cart"
	"github.com/oakline/storefront/internal/catalog"
	"github.com/oakline/storefront/internal/httpjson"
	"github.com/oakline/storefront/internal/identity"
	identityentity "github.com/oakline/storefront/internal/identity/entity"
	"github.com/oakline/storefront/internal/order"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerAuth validates the Authorization header and stores the token claims
// on the request context. Every rejection carries the same generic message
// so callers cannot tell a forged token from a stale one.
func BearerAuth(tokens identity.TokenConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, prefix) {
				httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
				return
			}
			claims, err := identity.ValidateToken(tokens, strings.TrimPrefix(header, prefix))
			if err != nil {
				httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole gates a handler on the role claim.
func RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := identity.ClaimsFromContext(r.Context())
		if !ok || claims.Role != role {
			httpjson.Write(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		next(w, r)
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, tokens identity.TokenConfig) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /storefront-api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	auth := BearerAuth(tokens)

	// account routes
	accountHandler := identity.NewHandler(db, tokens, logger)
	mux.HandleFunc("POST /storefront-api/account/register", accountHandler.Register)
	mux.HandleFunc("POST /storefront-api/account/login", accountHandler.Login)
	mux.Handle("GET /storefront-api/account/user", auth(http.HandlerFunc(accountHandler.GetUser)))

	// catalog routes; mutations are admin only
	productHandler := catalog.NewHandler(db, logger)
	mux.HandleFunc("GET /storefront-api/products", productHandler.List)
	mux.HandleFunc("GET /storefront-api/products/featured", productHandler.ListFeatured)
	mux.HandleFunc("GET /storefront-api/products/{id}", productHandler.Get)
	mux.Handle("POST /storefront-api/products", auth(RequireRole(identityentity.RoleAdmin, productHandler.Create)))
	mux.Handle("PUT /storefront-api/products/{id}", auth(RequireRole(identityentity.RoleAdmin, productHandler.Update)))
	mux.Handle("DELETE /storefront-api/products/{id}", auth(RequireRole(identityentity.RoleAdmin, productHandler.Delete)))

	// cart routes
	cartHandler := cart.NewHandler(db, logger)
	mux.Handle("GET /storefront-api/cart", auth(http.HandlerFunc(cartHandler.Get)))
	mux.Handle("POST /storefront-api/cart/items/{productId}", auth(http.HandlerFunc(cartHandler.AddItem)))
	mux.Handle("DELETE /storefront-api/cart/items/{productId}", auth(http.HandlerFunc(cartHandler.RemoveItem)))
	mux.Handle("DELETE /storefront-api/cart", auth(http.HandlerFunc(cartHandler.Clear)))

	// order routes
	orderHandler := order.NewHandler(db, logger)
	mux.Handle("POST /storefront-api/orders", auth(http.HandlerFunc(orderHandler.Create)))
	mux.Handle("GET /storefront-api/orders", auth(http.HandlerFunc(orderHandler.List)))
	mux.Handle("GET /storefront-api/orders/{id}", auth(http.HandlerFunc(orderHandler.Get)))
	mux.Handle("PUT /storefront-api/orders/{id}", auth(http.HandlerFunc(orderHandler.Update)))
	mux.Handle("DELETE /storefront-api/orders/{id}", auth(http.HandlerFunc(orderHandler.Delete)))

	// wrap with security headers middleware then logging middleware
	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
	return handler
}
