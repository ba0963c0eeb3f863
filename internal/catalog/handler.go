package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/catalog/entity"
	"github.com/oakline/storefront/internal/catalog/repo"
	"github.com/oakline/storefront/internal/httpjson"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(db *sqlx.DB, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: NewService(repo.NewProductRepo(db), logger), logger: logger}
}

// ProductRequest is the payload for create and update.
type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	IsFeatured  bool            `json:"is_featured"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, products)
}

func (h *Handler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListFeatured(r.Context())
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, products)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	p := &entity.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsFeatured:  req.IsFeatured,
	}
	if err := h.svc.CreateProduct(r.Context(), p); err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	p := &entity.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsFeatured:  req.IsFeatured,
	}
	if err := h.svc.UpdateProduct(r.Context(), p); err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.DeleteProduct(r.Context(), id)
	if err != nil {
		httpjson.WriteError(h.logger, w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}
