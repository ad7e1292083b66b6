// internal/core/services/stock_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

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

type stockMocks struct {
	ledger   *mocks.MockLedgerRepository
	products *mocks.MockProductRepository
	cache    *mocks.MockCacheRepository
	alerts   *mocks.MockAlertEnqueuer
}

func newStockService(t *testing.T) (*services.StockService, stockMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := stockMocks{
		ledger:   mocks.NewMockLedgerRepository(ctrl),
		products: mocks.NewMockProductRepository(ctrl),
		cache:    mocks.NewMockCacheRepository(ctrl),
		alerts:   mocks.NewMockAlertEnqueuer(ctrl),
	}
	svc := services.NewStockService(m.ledger, m.products, m.cache, m.alerts, testOpTimeout, helpers.TestLogger())
	return svc, m
}

func TestStockService_Adjust(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name          string
		params        ports.AdjustStockParams
		setupMocks    func(m stockMocks)
		expectedStock int
		expectedError bool
		errorIs       error
	}{
		{
			name:   "inbound_adjustment_records_positive_movement",
			params: ports.AdjustStockParams{ProductID: productID, Quantity: 25, Direction: ports.AdjustIn, Note: "restock"},
			setupMocks: func(m stockMocks) {
				m.ledger.EXPECT().
					Adjust(gomock.Any(), productID, 25, domain.TxAdjustmentIn, "restock").
					Return(125, nil)
				m.cache.EXPECT().Delete(gomock.Any(), "stock:summary").Return(nil)
			},
			expectedStock: 125,
		},
		{
			name:   "outbound_adjustment_checks_for_low_stock",
			params: ports.AdjustStockParams{ProductID: productID, Quantity: 90, Direction: ports.AdjustOut, Note: "damaged"},
			setupMocks: func(m stockMocks) {
				m.ledger.EXPECT().
					Adjust(gomock.Any(), productID, 90, domain.TxAdjustmentOut, "damaged").
					Return(10, nil)
				m.cache.EXPECT().Delete(gomock.Any(), "stock:summary").Return(nil)
				low := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.StockQuantity = 10
				})
				m.products.EXPECT().
					FindLowStock(gomock.Any(), []uuid.UUID{productID}).
					Return([]*domain.Product{low}, nil)
				m.alerts.EXPECT().
					EnqueueLowStockAlert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, alert ports.LowStockAlert) error {
						assert.Equal(t, productID, alert.ProductID)
						assert.Equal(t, 10, alert.StockQuantity)
						return nil
					})
			},
			expectedStock: 10,
		},
		{
			name:          "rejects_zero_quantity",
			params:        ports.AdjustStockParams{ProductID: productID, Quantity: 0, Direction: ports.AdjustIn},
			setupMocks:    func(stockMocks) {},
			expectedError: true,
			errorIs:       domain.ErrValidation,
		},
		{
			name:          "rejects_unknown_direction",
			params:        ports.AdjustStockParams{ProductID: productID, Quantity: 5, Direction: ports.AdjustDirection("sideways")},
			setupMocks:    func(stockMocks) {},
			expectedError: true,
			errorIs:       domain.ErrValidation,
		},
		{
			name:   "insufficient_stock_leaves_cache_untouched",
			params: ports.AdjustStockParams{ProductID: productID, Quantity: 500, Direction: ports.AdjustOut},
			setupMocks: func(m stockMocks) {
				m.ledger.EXPECT().
					Adjust(gomock.Any(), productID, 500, domain.TxAdjustmentOut, "").
					Return(0, &domain.InsufficientStockError{ProductID: productID, Requested: 500, Available: 100})
			},
			expectedError: true,
			errorIs:       domain.ErrInsufficientStock,
		},
		{
			name:   "classifies_ledger_timeout",
			params: ports.AdjustStockParams{ProductID: productID, Quantity: 5, Direction: ports.AdjustIn},
			setupMocks: func(m stockMocks) {
				m.ledger.EXPECT().
					Adjust(gomock.Any(), productID, 5, domain.TxAdjustmentIn, "").
					Return(0, context.DeadlineExceeded)
			},
			expectedError: true,
			errorIs:       domain.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newStockService(t)
			tt.setupMocks(m)

			result, err := svc.Adjust(context.Background(), tt.params)

			if tt.expectedError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.errorIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.params.ProductID, result.ProductID)
			assert.Equal(t, tt.expectedStock, result.NewStock)
		})
	}

	t.Run("failed_cache_invalidation_does_not_fail_the_adjustment", func(t *testing.T) {
		svc, m := newStockService(t)
		m.ledger.EXPECT().
			Adjust(gomock.Any(), productID, 5, domain.TxAdjustmentIn, "").
			Return(105, nil)
		m.cache.EXPECT().Delete(gomock.Any(), "stock:summary").Return(errors.New("redis down"))

		result, err := svc.Adjust(context.Background(), ports.AdjustStockParams{
			ProductID: productID, Quantity: 5, Direction: ports.AdjustIn,
		})
		require.NoError(t, err)
		assert.Equal(t, 105, result.NewStock)
	})
}

func TestStockService_History(t *testing.T) {
	entries := []*domain.LedgerEntry{{ID: uuid.New(), Quantity: -3}}

	t.Run("normalizes_pagination", func(t *testing.T) {
		svc, m := newStockService(t)
		m.ledger.EXPECT().
			FindTransactions(gomock.Any(), ports.LedgerListParams{Page: 1, PageSize: 50}).
			Return(entries, int64(1), nil)

		result, err := svc.History(context.Background(), ports.LedgerListParams{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 50, result.PageSize)
		assert.Equal(t, 1, result.TotalPages)
	})

	t.Run("passes_filters_through", func(t *testing.T) {
		svc, m := newStockService(t)
		productID := uuid.New()
		params := ports.LedgerListParams{ProductID: &productID, Type: "sale", Page: 1, PageSize: 20}
		m.ledger.EXPECT().
			FindTransactions(gomock.Any(), params).
			Return(entries, int64(41), nil)

		result, err := svc.History(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, int64(41), result.TotalCount)
		assert.Equal(t, 3, result.TotalPages)
	})

	t.Run("repository_error", func(t *testing.T) {
		svc, m := newStockService(t)
		m.ledger.EXPECT().
			FindTransactions(gomock.Any(), gomock.Any()).
			Return(nil, int64(0), errors.New("database connection failed"))

		_, err := svc.History(context.Background(), ports.LedgerListParams{})
		require.Error(t, err)
	})
}

func TestStockService_Levels(t *testing.T) {
	svc, m := newStockService(t)
	levels := []domain.StockLevel{{ProductID: uuid.New(), StockQuantity: 2}}
	m.ledger.EXPECT().StockLevels(gomock.Any(), true).Return(levels, nil)

	result, err := svc.Levels(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, levels, result)
}

func TestStockService_Summary(t *testing.T) {
	summary := &domain.StockSummary{
		ActiveProducts:    42,
		InventoryValue:    decimal.NewFromFloat(1234.56),
		LowStockCount:     3,
		OutOfStockCount:   1,
		TransactionsToday: 7,
	}

	t.Run("serves_from_cache", func(t *testing.T) {
		svc, m := newStockService(t)
		m.cache.EXPECT().
			GetOrSet(gomock.Any(), "stock:summary", gomock.Any(), gomock.Any(), 5*time.Minute).
			DoAndReturn(func(_ context.Context, _ string, dest any, _ func() (any, error), _ time.Duration) error {
				*(dest.(*domain.StockSummary)) = *summary
				return nil
			})

		result, err := svc.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(42), result.ActiveProducts)
		assert.True(t, result.InventoryValue.Equal(summary.InventoryValue))
	})

	t.Run("cache_miss_runs_the_fetch_callback", func(t *testing.T) {
		svc, m := newStockService(t)
		m.ledger.EXPECT().Summary(gomock.Any()).Return(summary, nil)
		m.cache.EXPECT().
			GetOrSet(gomock.Any(), "stock:summary", gomock.Any(), gomock.Any(), 5*time.Minute).
			DoAndReturn(func(_ context.Context, _ string, dest any, fetch func() (any, error), _ time.Duration) error {
				v, err := fetch()
				if err != nil {
					return err
				}
				*(dest.(*domain.StockSummary)) = *(v.(*domain.StockSummary))
				return nil
			})

		result, err := svc.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(7), result.TransactionsToday)
	})

	t.Run("falls_back_to_the_ledger_when_the_cache_errors", func(t *testing.T) {
		svc, m := newStockService(t)
		m.cache.EXPECT().
			GetOrSet(gomock.Any(), "stock:summary", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("redis down"))
		m.ledger.EXPECT().Summary(gomock.Any()).Return(summary, nil)

		result, err := svc.Summary(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(42), result.ActiveProducts)
	})

	t.Run("ledger_error_after_cache_failure", func(t *testing.T) {
		svc, m := newStockService(t)
		m.cache.EXPECT().
			GetOrSet(gomock.Any(), "stock:summary", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("redis down"))
		m.ledger.EXPECT().Summary(gomock.Any()).Return(nil, errors.New("database connection failed"))

		_, err := svc.Summary(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database connection failed")
	})
}
