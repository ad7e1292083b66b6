// internal/handlers/products_test.go
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

func TestProductHandler_CreateProduct(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "successfully_creates_product",
			requestBody: handlers.ProductRequest{
				SKU:           "WIDGET-001",
				Name:          "Test Widget",
				Price:         decimal.NewFromFloat(19.99),
				StockQuantity: intPtr(100),
				MinStockLevel: 10,
			},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, p *domain.Product) error {
						assert.Equal(t, "WIDGET-001", p.SKU)
						assert.Equal(t, domain.ProductActive, p.Status)
						p.ID = uuid.New()
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Product
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "WIDGET-001", response.SKU)
				assert.NotEqual(t, uuid.Nil, response.ID)
			},
		},
		{
			name: "missing_sku",
			requestBody: handlers.ProductRequest{
				Name:  "No SKU",
				Price: decimal.NewFromInt(10),
			},
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "sku is required", response["error"])
			},
		},
		{
			name: "negative_price",
			requestBody: handlers.ProductRequest{
				SKU:   "WIDGET-002",
				Name:  "Bad Price",
				Price: decimal.NewFromInt(-5),
			},
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate_sku_conflict",
			requestBody: handlers.ProductRequest{
				SKU:   "WIDGET-001",
				Name:  "Duplicate",
				Price: decimal.NewFromInt(10),
			},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("sku WIDGET-001: %w", domain.ErrDuplicate))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid_json_body",
			requestBody:    "not json",
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/products", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateProduct(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestProductHandler_CreateProductBatch(t *testing.T) {
	valid := handlers.ProductRequest{
		SKU:   "BATCH-001",
		Name:  "Batch Widget",
		Price: decimal.NewFromInt(12),
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
	}{
		{
			name:        "successfully_creates_batch",
			requestBody: []handlers.ProductRequest{valid, {SKU: "BATCH-002", Name: "Other", Price: decimal.NewFromInt(8)}},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					SaveBatch(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, products []domain.Product) error {
						assert.Len(t, products, 2)
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "empty_batch_rejected",
			requestBody:    []handlers.ProductRequest{},
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_item_names_index",
			requestBody:    []handlers.ProductRequest{valid, {Name: "Missing SKU", Price: decimal.NewFromInt(1)}},
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/products/batch", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateProductBatch(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestProductHandler_GetProduct(t *testing.T) {
	testProduct := helpers.CreateTestProduct()

	tests := []struct {
		name           string
		productID      string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
	}{
		{
			name:      "successfully_retrieves_product",
			productID: testProduct.ID.String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					GetByID(gomock.Any(), testProduct.ID).
					Return(testProduct, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid",
			productID:      "nope",
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "product_not_found",
			productID: uuid.New().String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					GetByID(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("product: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/products/"+tt.productID, nil)
			req.SetPathValue("id", tt.productID)
			w := httptest.NewRecorder()

			handler.GetProduct(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestProductHandler_ListProducts(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
	}{
		{
			name:        "defaults_to_name_ascending",
			queryParams: map[string]string{},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.ProductListParams) (*ports.ProductListResult, error) {
						assert.Equal(t, "name", params.SortBy)
						assert.Equal(t, "asc", params.SortOrder)
						return &ports.ProductListResult{Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "filters_low_stock",
			queryParams: map[string]string{
				"low_stock": "true",
			},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.ProductListParams) (*ports.ProductListResult, error) {
						require.NotNil(t, params.LowStock)
						assert.True(t, *params.LowStock)
						return &ports.ProductListResult{Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "filters_by_search_and_category",
			queryParams: map[string]string{
				"search":      "widget",
				"category_id": uuid.New().String(),
			},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.ProductListParams) (*ports.ProductListResult, error) {
						assert.Equal(t, "widget", params.Search)
						require.NotNil(t, params.CategoryID)
						return &ports.ProductListResult{Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "service_error",
			queryParams: map[string]string{},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/products", nil)
			q := req.URL.Query()
			for k, v := range tt.queryParams {
				q.Add(k, v)
			}
			req.URL.RawQuery = q.Encode()
			w := httptest.NewRecorder()

			handler.ListProducts(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestProductHandler_UpdateProduct(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		productID      string
		requestBody    interface{}
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
	}{
		{
			name:      "successfully_updates_product",
			productID: productID.String(),
			requestBody: handlers.ProductRequest{
				SKU:   "WIDGET-001",
				Name:  "Renamed Widget",
				Price: decimal.NewFromFloat(24.99),
			},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Update(gomock.Any(), productID, gomock.Any(), gomock.Nil()).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "stock_edit_is_passed_to_the_service",
			productID: productID.String(),
			requestBody: handlers.ProductRequest{
				SKU:           "WIDGET-001",
				Name:          "Renamed Widget",
				Price:         decimal.NewFromFloat(24.99),
				StockQuantity: intPtr(7),
			},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Update(gomock.Any(), productID, gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ uuid.UUID, _ *domain.Product, stock *int) error {
						require.NotNil(t, stock)
						assert.Equal(t, 7, *stock)
						return nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid",
			productID:      "nope",
			requestBody:    handlers.ProductRequest{},
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "product_not_found",
			productID: productID.String(),
			requestBody: handlers.ProductRequest{
				SKU:   "WIDGET-001",
				Name:  "Renamed Widget",
				Price: decimal.NewFromInt(10),
			},
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Update(gomock.Any(), productID, gomock.Any(), gomock.Nil()).
					Return(fmt.Errorf("product: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("PUT", "/api/v1/products/"+tt.productID, bytes.NewReader(body))
			req.SetPathValue("id", tt.productID)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.UpdateProduct(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestProductHandler_DeactivateProduct(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		productID      string
		setupMocks     func(*mocks.MockProductService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:      "successfully_deactivates_product",
			productID: productID.String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Deactivate(gomock.Any(), productID).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, string(domain.ProductInactive), response["status"])
			},
		},
		{
			name:           "invalid_uuid",
			productID:      "nope",
			setupMocks:     func(m *mocks.MockProductService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "product_not_found",
			productID: productID.String(),
			setupMocks: func(m *mocks.MockProductService) {
				m.EXPECT().
					Deactivate(gomock.Any(), productID).
					Return(fmt.Errorf("product: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockProductService(ctrl)
			handler := handlers.NewProductHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("DELETE", "/api/v1/products/"+tt.productID, nil)
			req.SetPathValue("id", tt.productID)
			w := httptest.NewRecorder()

			handler.DeactivateProduct(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func intPtr(v int) *int { return &v }
