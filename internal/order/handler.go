package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	cartrepo "github.com/oakline/storefront/internal/cart/repo"
	catalogrepo "github.com/oakline/storefront/internal/catalog/repo"
	"github.com/oakline/storefront/internal/httpjson"
	"github.com/oakline/storefront/internal/identity"
	"github.com/oakline/storefront/internal/order/entity"
	orderrepo "github.com/oakline/storefront/internal/order/repo"
)

// Handler exposes the authenticated order endpoints. The acting user comes
// from the bearer token claims placed in the request context.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, logger *zap.SugaredLogger) *Handler {
	svc := NewService(orderrepo.NewOrderRepo(db), cartrepo.NewCartRepo(db), catalogrepo.NewProductRepo(db), logger)
	return &Handler{svc: svc, logger: logger}
}

// Create checks out the caller's cart against the posted shipping details.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	var shipping entity.ShippingDetails
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	o, err := h.svc.CreateOrder(r.Context(), claims.Email, shipping)
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, o)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	orders, err := h.svc.ListOrders(r.Context(), claims.Email)
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, orders)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	id, ok := pathOrderID(w, r)
	if !ok {
		return
	}
	o, err := h.svc.GetOrder(r.Context(), id, claims.Email)
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, o)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	id, ok := pathOrderID(w, r)
	if !ok {
		return
	}
	var shipping entity.ShippingDetails
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	o, err := h.svc.UpdateOrder(r.Context(), id, claims.Email, shipping)
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, o)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := identity.ClaimsFromContext(r.Context())
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	id, ok := pathOrderID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(r.Context(), id, claims.Email); err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return 0, false
	}
	return id, true
}
