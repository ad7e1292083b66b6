// internal/handlers/stock_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
	"github.com/storeops/backoffice-be/internal/handlers"
	"github.com/storeops/backoffice-be/test/helpers"
	"github.com/storeops/backoffice-be/test/mocks"
)

func TestStockHandler_AdjustStock(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*mocks.MockStockService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "successfully_adjusts_stock_in",
			requestBody: handlers.AdjustStockRequest{
				ProductID: productID,
				Quantity:  25,
				Direction: "in",
				Note:      "supplier delivery",
			},
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					Adjust(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.AdjustStockParams) (*ports.StockAdjustment, error) {
						assert.Equal(t, productID, params.ProductID)
						assert.Equal(t, 25, params.Quantity)
						assert.Equal(t, ports.AdjustIn, params.Direction)
						return &ports.StockAdjustment{ProductID: productID, NewStock: 125}, nil
					})
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response ports.StockAdjustment
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, 125, response.NewStock)
			},
		},
		{
			name: "adjustment_below_zero_rejected",
			requestBody: handlers.AdjustStockRequest{
				ProductID: productID,
				Quantity:  500,
				Direction: "out",
			},
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					Adjust(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("stock would go negative: %w", domain.ErrInsufficientStock))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing_product_id",
			requestBody: handlers.AdjustStockRequest{
				Quantity:  5,
				Direction: "in",
			},
			setupMocks:     func(m *mocks.MockStockService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "product_id is required", response["error"])
			},
		},
		{
			name: "zero_quantity_rejected",
			requestBody: handlers.AdjustStockRequest{
				ProductID: productID,
				Quantity:  0,
				Direction: "in",
			},
			setupMocks:     func(m *mocks.MockStockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown_direction_rejected",
			requestBody: handlers.AdjustStockRequest{
				ProductID: productID,
				Quantity:  5,
				Direction: "sideways",
			},
			setupMocks:     func(m *mocks.MockStockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "product_not_found",
			requestBody: handlers.AdjustStockRequest{
				ProductID: productID,
				Quantity:  5,
				Direction: "in",
			},
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					Adjust(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("product: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockStockService(ctrl)
			handler := handlers.NewStockHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/stock/adjustments", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.AdjustStock(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestStockHandler_GetStockHistory(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		queryParams    map[string]string
		setupMocks     func(*mocks.MockStockService)
		expectedStatus int
	}{
		{
			name:        "lists_all_transactions",
			queryParams: map[string]string{},
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					History(gomock.Any(), gomock.Any()).
					Return(&ports.LedgerListResult{Page: 1, PageSize: 50}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "filters_by_product_and_type",
			queryParams: map[string]string{
				"product_id": productID.String(),
				"type":       "sale",
			},
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					History(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.LedgerListParams) (*ports.LedgerListResult, error) {
						require.NotNil(t, params.ProductID)
						assert.Equal(t, productID, *params.ProductID)
						assert.Equal(t, "sale", params.Type)
						return &ports.LedgerListResult{Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "invalid_product_id_rejected",
			queryParams: map[string]string{
				"product_id": "not-a-uuid",
			},
			setupMocks:     func(m *mocks.MockStockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "service_error",
			queryParams: map[string]string{},
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					History(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockStockService(ctrl)
			handler := handlers.NewStockHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/stock/transactions", nil)
			q := req.URL.Query()
			for k, v := range tt.queryParams {
				q.Add(k, v)
			}
			req.URL.RawQuery = q.Encode()
			w := httptest.NewRecorder()

			handler.GetStockHistory(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestStockHandler_GetStockLevels(t *testing.T) {
	levels := []domain.StockLevel{
		{ProductID: uuid.New(), SKU: "WIDGET-001", Name: "Test Widget", StockQuantity: 5, MinStockLevel: 10},
	}

	tests := []struct {
		name           string
		query          string
		setupMocks     func(*mocks.MockStockService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:  "all_levels",
			query: "",
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					Levels(gomock.Any(), false).
					Return(levels, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]json.RawMessage
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.JSONEq(t, "1", string(response["count"]))
			},
		},
		{
			name:  "low_stock_only",
			query: "?low=true",
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					Levels(gomock.Any(), true).
					Return(levels, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "service_error",
			query: "",
			setupMocks: func(m *mocks.MockStockService) {
				m.EXPECT().
					Levels(gomock.Any(), false).
					Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockStockService(ctrl)
			handler := handlers.NewStockHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/stock/levels"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.GetStockLevels(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestStockHandler_GetStockSummary(t *testing.T) {
	summary := &domain.StockSummary{
		ActiveProducts:    42,
		InventoryValue:    decimal.NewFromFloat(1234.56),
		LowStockCount:     3,
		OutOfStockCount:   1,
		TransactionsToday: 17,
	}

	t.Run("returns_summary", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockService := mocks.NewMockStockService(ctrl)
		mockService.EXPECT().Summary(gomock.Any()).Return(summary, nil)

		handler := handlers.NewStockHandler(mockService, helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/stock/summary", nil)
		w := httptest.NewRecorder()

		handler.GetStockSummary(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)

		var response domain.StockSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(42), response.ActiveProducts)
		assert.True(t, response.InventoryValue.Equal(summary.InventoryValue))
	})

	t.Run("service_error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockService := mocks.NewMockStockService(ctrl)
		mockService.EXPECT().Summary(gomock.Any()).Return(nil, errors.New("database error"))

		handler := handlers.NewStockHandler(mockService, helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/stock/summary", nil)
		w := httptest.NewRecorder()

		handler.GetStockSummary(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
	})
}
