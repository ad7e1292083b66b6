// internal/core/services/products_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
	"github.com/storeops/backoffice-be/internal/core/services"
	"github.com/storeops/backoffice-be/test/helpers"
	"github.com/storeops/backoffice-be/test/mocks"
)

func newProductService(t *testing.T) (*services.ProductService, *mocks.MockProductRepository, *mocks.MockCacheRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	products := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := services.NewProductService(products, cache, testOpTimeout, helpers.TestLogger())
	return svc, products, cache
}

func TestProductService_Save(t *testing.T) {
	tests := []struct {
		name          string
		product       *domain.Product
		setupMocks    func(products *mocks.MockProductRepository, cache *mocks.MockCacheRepository)
		expectedError bool
		errorContains string
	}{
		{
			name:    "saves_and_invalidates_the_summary_cache",
			product: helpers.CreateTestProduct(func(p *domain.Product) { p.ID = uuid.Nil }),
			setupMocks: func(products *mocks.MockProductRepository, cache *mocks.MockCacheRepository) {
				products.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *domain.Product) error {
						assert.NotEqual(t, uuid.Nil, p.ID)
						assert.False(t, p.UpdatedAt.IsZero())
						return nil
					})
				cache.EXPECT().Delete(gomock.Any(), "stock:summary").Return(nil)
			},
		},
		{
			name: "validation_fails_for_missing_sku",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.SKU = ""
			}),
			setupMocks:    func(*mocks.MockProductRepository, *mocks.MockCacheRepository) {},
			expectedError: true,
			errorContains: "sku is required",
		},
		{
			name: "validation_fails_for_negative_price",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Price = decimal.NewFromFloat(-1.00)
			}),
			setupMocks:    func(*mocks.MockProductRepository, *mocks.MockCacheRepository) {},
			expectedError: true,
			errorContains: "price cannot be negative",
		},
		{
			name:    "duplicate_sku_skips_cache_invalidation",
			product: helpers.CreateTestProduct(),
			setupMocks: func(products *mocks.MockProductRepository, cache *mocks.MockCacheRepository) {
				products.EXPECT().Save(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicate)
			},
			expectedError: true,
			errorContains: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, products, cache := newProductService(t)
			tt.setupMocks(products, cache)

			err := svc.Save(context.Background(), tt.product)

			if tt.expectedError {
				require.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProductService_SaveBatch(t *testing.T) {
	t.Run("prepares_every_product_before_the_batch_write", func(t *testing.T) {
		svc, products, cache := newProductService(t)
		batch := helpers.CreateTestProducts(3)
		for i := range batch {
			batch[i].ID = uuid.Nil
		}

		products.EXPECT().
			SaveBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, saved []domain.Product) error {
				require.Len(t, saved, 3)
				for i := range saved {
					assert.NotEqual(t, uuid.Nil, saved[i].ID)
				}
				return nil
			})
		cache.EXPECT().Delete(gomock.Any(), "stock:summary").Return(nil)

		require.NoError(t, svc.SaveBatch(context.Background(), batch))
	})

	t.Run("rejects_the_whole_batch_when_one_product_is_invalid", func(t *testing.T) {
		svc, _, _ := newProductService(t)
		batch := helpers.CreateTestProducts(2)
		batch[1].Name = ""

		err := svc.SaveBatch(context.Background(), batch)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestProductService_GetByID(t *testing.T) {
	product := helpers.CreateTestProduct()

	t.Run("returns_the_product", func(t *testing.T) {
		svc, products, _ := newProductService(t)
		products.EXPECT().FindByID(gomock.Any(), product.ID).Return(product, nil)

		result, err := svc.GetByID(context.Background(), product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.SKU, result.SKU)
	})

	t.Run("not_found", func(t *testing.T) {
		svc, products, _ := newProductService(t)
		products.EXPECT().
			FindByID(gomock.Any(), product.ID).
			Return(nil, &domain.NotFoundError{Resource: "product", ID: product.ID.String()})

		_, err := svc.GetByID(context.Background(), product.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProductService_Update(t *testing.T) {
	productID := uuid.New()

	t.Run("forces_the_path_id_onto_the_payload", func(t *testing.T) {
		svc, products, cache := newProductService(t)
		payload := helpers.CreateTestProduct(func(p *domain.Product) { p.ID = uuid.New() })

		products.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Nil()).
			DoAndReturn(func(_ context.Context, p *domain.Product, _ *int) error {
				assert.Equal(t, productID, p.ID)
				return nil
			})
		cache.EXPECT().Delete(gomock.Any(), "stock:summary").Return(nil)

		require.NoError(t, svc.Update(context.Background(), productID, payload, nil))
	})

	t.Run("passes_an_explicit_stock_level_through", func(t *testing.T) {
		svc, products, cache := newProductService(t)
		payload := helpers.CreateTestProduct()
		stock := 42

		products.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *domain.Product, s *int) error {
				require.NotNil(t, s)
				assert.Equal(t, 42, *s)
				return nil
			})
		cache.EXPECT().Delete(gomock.Any(), "stock:summary").Return(nil)

		require.NoError(t, svc.Update(context.Background(), productID, payload, &stock))
	})

	t.Run("rejects_a_negative_stock_level", func(t *testing.T) {
		svc, _, _ := newProductService(t)
		payload := helpers.CreateTestProduct()
		stock := -3

		err := svc.Update(context.Background(), productID, payload, &stock)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("validation_error_skips_the_repository", func(t *testing.T) {
		svc, _, _ := newProductService(t)
		payload := helpers.CreateTestProduct(func(p *domain.Product) { p.Name = "" })

		err := svc.Update(context.Background(), productID, payload, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestProductService_Deactivate(t *testing.T) {
	productID := uuid.New()

	t.Run("deactivates_and_invalidates_the_summary_cache", func(t *testing.T) {
		svc, products, cache := newProductService(t)
		products.EXPECT().Deactivate(gomock.Any(), productID).Return(nil)
		cache.EXPECT().Delete(gomock.Any(), "stock:summary").Return(nil)

		require.NoError(t, svc.Deactivate(context.Background(), productID))
	})

	t.Run("not_found", func(t *testing.T) {
		svc, products, _ := newProductService(t)
		products.EXPECT().
			Deactivate(gomock.Any(), productID).
			Return(&domain.NotFoundError{Resource: "product", ID: productID.String()})

		err := svc.Deactivate(context.Background(), productID)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProductService_List(t *testing.T) {
	testProducts := []*domain.Product{helpers.CreateTestProduct()}

	t.Run("normalizes_pagination_and_keeps_filters", func(t *testing.T) {
		svc, products, _ := newProductService(t)
		low := true
		input := ports.ProductListParams{Search: "widget", LowStock: &low, Page: 0, PageSize: 0}
		expected := input
		expected.Page = 1
		expected.PageSize = 50

		products.EXPECT().
			FindAll(gomock.Any(), expected).
			Return(testProducts, int64(1), nil)

		result, err := svc.List(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 50, result.PageSize)
		assert.Equal(t, int64(1), result.TotalCount)
	})

	t.Run("repository_error", func(t *testing.T) {
		svc, products, _ := newProductService(t)
		products.EXPECT().
			FindAll(gomock.Any(), gomock.Any()).
			Return(nil, int64(0), errors.New("database connection failed"))

		_, err := svc.List(context.Background(), ports.ProductListParams{})
		require.Error(t, err)
	})
}
