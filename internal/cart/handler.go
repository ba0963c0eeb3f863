package cart

import (
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	cartrepo "github.com/oakline/storefront/internal/cart/repo"
	catalogrepo "github.com/oakline/storefront/internal/catalog/repo"
	"github.com/oakline/storefront/internal/httpjson"
	"github.com/oakline/storefront/internal/identity"
)

// Handler exposes the authenticated cart endpoints. The acting user comes
// from the bearer token claims placed in the request context.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, logger *zap.SugaredLogger) *Handler {
	svc := NewService(cartrepo.NewCartRepo(db), catalogrepo.NewProductRepo(db), logger)
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	c, err := h.svc.GetOrCreate(r.Context(), claims.Email)
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, c)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	productID, ok := pathProductID(w, r)
	if !ok {
		return
	}
	if err := h.svc.AddItem(r.Context(), claims.Email, productID); err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	productID, ok := pathProductID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(r.Context(), claims.Email, productID); err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	if err := h.svc.Clear(r.Context(), claims.Email); err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("productId"), 10, 64)
	if err != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}
