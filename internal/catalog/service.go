package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/catalog/entity"
	"github.com/oakline/storefront/pkg/utilities"
)

// ProductStore is the catalog persistence adapter. GetByID returns
// sql.ErrNoRows when no product matches.
type ProductStore interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	List(ctx context.Context) ([]entity.Product, error)
	ListFeatured(ctx context.Context) ([]entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store  ProductStore
	logger *zap.SugaredLogger
}

func NewService(store ProductStore, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateProduct validates and persists a new product, assigning its ID.
func (s *Service) CreateProduct(ctx context.Context, p *entity.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.New(apperr.KindValidation, "product name is required")
	}
	if p.Price.IsNegative() {
		return apperr.New(apperr.KindValidation, "price cannot be negative")
	}
	id, err := utilities.NewSnowflakeID()
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not assign product id")
	}
	p.ID = id
	if err := s.store.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Infow("product created", "id", p.ID, "name", p.Name)
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "product not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]entity.Product, error) {
	return s.store.List(ctx)
}

func (s *Service) ListFeatured(ctx context.Context) ([]entity.Product, error) {
	return s.store.ListFeatured(ctx)
}

// UpdateProduct re-verifies existence before mutating.
func (s *Service) UpdateProduct(ctx context.Context, p *entity.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.New(apperr.KindValidation, "product name is required")
	}
	if p.Price.IsNegative() {
		return apperr.New(apperr.KindValidation, "price cannot be negative")
	}
	if _, err := s.GetProduct(ctx, p.ID); err != nil {
		return err
	}
	if err := s.store.Update(ctx, p); err != nil {
		return err
	}
	s.logger.Infow("product updated", "id", p.ID)
	return nil
}

// DeleteProduct removes a product and returns the deleted record.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Infow("product deleted", "id", id)
	return p, nil
}
