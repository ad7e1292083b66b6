// internal/core/services/products.go
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// ProductService handles the catalog surface. Stock counters are out
// of scope here; they only move through orders and adjustments.
type ProductService struct {
	products  ports.ProductRepository
	cache     ports.CacheRepository
	logger    *slog.Logger
	opTimeout time.Duration
}

// NewProductService creates a new product service
func NewProductService(
	products ports.ProductRepository,
	cache ports.CacheRepository,
	opTimeout time.Duration,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:  products,
		cache:     cache,
		logger:    logger.With(slog.String("service", "product")),
		opTimeout: opTimeout,
	}
}

// Save validates and creates a new product
func (s *ProductService) Save(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	product.PrepareForStorage()

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.products.Save(opCtx, product); err != nil {
		return domain.ClassifyTimeout(err)
	}

	s.invalidateSummary(ctx)
	return nil
}

// SaveBatch validates and creates multiple products in one transaction
func (s *ProductService) SaveBatch(ctx context.Context, products []domain.Product) error {
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return err
		}
		products[i].PrepareForStorage()
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.products.SaveBatch(opCtx, products); err != nil {
		return domain.ClassifyTimeout(err)
	}

	s.invalidateSummary(ctx)
	return nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	product, err := s.products.FindByID(opCtx, id)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}
	return product, nil
}

// Update updates a product's catalog fields. When stock is non-nil the
// counter is set to that value and the delta against the prior level is
// written to the ledger inside the same transaction.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, product *domain.Product, stock *int) error {
	product.ID = id
	if err := product.Validate(); err != nil {
		return err
	}
	if stock != nil && *stock < 0 {
		return &domain.ValidationError{Field: "stock_quantity", Reason: "stock cannot be negative"}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.products.Update(opCtx, product, stock); err != nil {
		return domain.ClassifyTimeout(err)
	}

	s.invalidateSummary(ctx)
	return nil
}

// Deactivate retires a product from the catalog
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.products.Deactivate(opCtx, id); err != nil {
		return domain.ClassifyTimeout(err)
	}

	s.invalidateSummary(ctx)
	return nil
}

// List retrieves a page of products
func (s *ProductService) List(ctx context.Context, params ports.ProductListParams) (*ports.ProductListResult, error) {
	normalizePage(&params.Page, &params.PageSize)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	products, total, err := s.products.FindAll(opCtx, params)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}

	return &ports.ProductListResult{
		Products:   products,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: totalPages(total, params.PageSize),
	}, nil
}

func (s *ProductService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, summaryCacheKey); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate summary cache", "err", err)
	}
}
