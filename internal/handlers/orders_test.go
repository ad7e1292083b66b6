// internal/handlers/orders_test.go
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

func TestOrderHandler_CreateOrder(t *testing.T) {
	products := helpers.CreateTestProducts(2)
	testOrder := helpers.CreateTestOrder(products, 2)

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*mocks.MockOrderService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "successfully_places_order",
			requestBody: handlers.CreateOrderRequest{
				Items: []handlers.CreateOrderItemRequest{
					{ProductID: products[0].ID, Quantity: 2},
					{ProductID: products[1].ID, Quantity: 2},
				},
				PaymentMethod: "card",
			},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.CreateOrderParams) (*domain.Order, error) {
						require.Len(t, params.Items, 2)
						assert.Equal(t, products[0].ID, params.Items[0].ProductID)
						assert.Equal(t, "card", params.PaymentMethod)
						return testOrder, nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Order
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, testOrder.OrderNumber, response.OrderNumber)
				assert.Len(t, response.Items, 2)
			},
		},
		{
			name:           "invalid_json_body",
			requestBody:    "not json",
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Invalid request body", response["error"])
			},
		},
		{
			name:           "empty_items",
			requestBody:    handlers.CreateOrderRequest{},
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "items is required", response["error"])
			},
		},
		{
			name: "zero_quantity_rejected",
			requestBody: handlers.CreateOrderRequest{
				Items: []handlers.CreateOrderItemRequest{
					{ProductID: products[0].ID, Quantity: 0},
				},
			},
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "items.quantity must be positive", response["error"])
			},
		},
		{
			name: "insufficient_stock",
			requestBody: handlers.CreateOrderRequest{
				Items: []handlers.CreateOrderItemRequest{
					{ProductID: products[0].ID, Quantity: 500},
				},
			},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("product %s: %w", products[0].SKU, domain.ErrInsufficientStock))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "total_mismatch_rejected",
			requestBody: handlers.CreateOrderRequest{
				Items: []handlers.CreateOrderItemRequest{
					{ProductID: products[0].ID, Quantity: 1},
				},
				TotalAmount: decimalPtr(decimal.NewFromFloat(999.99)),
			},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("%w: total_amount does not match computed total", domain.ErrValidation))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "service_error",
			requestBody: handlers.CreateOrderRequest{
				Items: []handlers.CreateOrderItemRequest{
					{ProductID: products[0].ID, Quantity: 1},
				},
			},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Failed to create order", response["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockOrderService(ctrl)
			handler := handlers.NewOrderHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/api/v1/orders", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateOrder(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestOrderHandler_GetOrder(t *testing.T) {
	products := helpers.CreateTestProducts(1)
	testOrder := helpers.CreateTestOrder(products, 1)

	tests := []struct {
		name           string
		orderID        string
		setupMocks     func(*mocks.MockOrderService)
		expectedStatus int
	}{
		{
			name:    "successfully_retrieves_order",
			orderID: testOrder.ID.String(),
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					GetByID(gomock.Any(), testOrder.ID).
					Return(testOrder, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid_format",
			orderID:        "not-a-uuid",
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "order_not_found",
			orderID: uuid.New().String(),
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					GetByID(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("order: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockOrderService(ctrl)
			handler := handlers.NewOrderHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/orders/"+tt.orderID, nil)
			req.SetPathValue("id", tt.orderID)
			w := httptest.NewRecorder()

			handler.GetOrder(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestOrderHandler_ListOrders(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		setupMocks     func(*mocks.MockOrderService)
		expectedStatus int
	}{
		{
			name:        "defaults_applied",
			queryParams: map[string]string{},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.OrderListParams) (*ports.OrderListResult, error) {
						assert.Equal(t, 1, params.Page)
						assert.Equal(t, 50, params.PageSize)
						assert.Equal(t, "created_at", params.SortBy)
						assert.Equal(t, "desc", params.SortOrder)
						return &ports.OrderListResult{Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "filters_by_status_and_date_range",
			queryParams: map[string]string{
				"status":    "pending",
				"date_from": "2026-01-01",
				"date_to":   "2026-01-31",
			},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.OrderListParams) (*ports.OrderListResult, error) {
						assert.Equal(t, "pending", params.Status)
						require.NotNil(t, params.From)
						require.NotNil(t, params.To)
						assert.True(t, params.To.After(*params.From))
						return &ports.OrderListResult{Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "filters_by_customer",
			queryParams: map[string]string{
				"customer_id": uuid.New().String(),
			},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.OrderListParams) (*ports.OrderListResult, error) {
						require.NotNil(t, params.CustomerID)
						return &ports.OrderListResult{Page: 1, PageSize: 50}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "caps_page_size",
			queryParams: map[string]string{
				"limit": "5000",
			},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.OrderListParams) (*ports.OrderListResult, error) {
						assert.Equal(t, 200, params.PageSize)
						return &ports.OrderListResult{Page: 1, PageSize: 200}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "service_error",
			queryParams: map[string]string{},
			setupMocks: func(m *mocks.MockOrderService) {
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

			mockService := mocks.NewMockOrderService(ctrl)
			handler := handlers.NewOrderHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/orders", nil)
			q := req.URL.Query()
			for k, v := range tt.queryParams {
				q.Add(k, v)
			}
			req.URL.RawQuery = q.Encode()
			w := httptest.NewRecorder()

			handler.ListOrders(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	products := helpers.CreateTestProducts(1)
	testOrder := helpers.CreateTestOrder(products, 1)
	testOrder.Status = domain.OrderCancelled

	tests := []struct {
		name           string
		orderID        string
		setupMocks     func(*mocks.MockOrderService)
		expectedStatus int
	}{
		{
			name:    "successfully_cancels_order",
			orderID: testOrder.ID.String(),
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Cancel(gomock.Any(), testOrder.ID).
					Return(testOrder, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "already_cancelled",
			orderID: testOrder.ID.String(),
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Cancel(gomock.Any(), testOrder.ID).
					Return(nil, domain.ErrOrderCancelled)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid_uuid",
			orderID:        "nope",
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "order_not_found",
			orderID: uuid.New().String(),
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					Cancel(gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("order: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockOrderService(ctrl)
			handler := handlers.NewOrderHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("POST", "/api/v1/orders/"+tt.orderID+"/cancel", nil)
			req.SetPathValue("id", tt.orderID)
			w := httptest.NewRecorder()

			handler.CancelOrder(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name           string
		orderID        string
		requestBody    interface{}
		setupMocks     func(*mocks.MockOrderService)
		expectedStatus int
	}{
		{
			name:        "successfully_updates_status",
			orderID:     orderID.String(),
			requestBody: handlers.UpdateOrderStatusRequest{Status: "shipped"},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					UpdateStatus(gomock.Any(), orderID, domain.OrderShipped).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown_status_rejected",
			orderID:        orderID.String(),
			requestBody:    handlers.UpdateOrderStatusRequest{Status: "teleported"},
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "cancelled_order_conflict",
			orderID:     orderID.String(),
			requestBody: handlers.UpdateOrderStatusRequest{Status: "shipped"},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					UpdateStatus(gomock.Any(), orderID, domain.OrderShipped).
					Return(domain.ErrOrderCancelled)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockOrderService(ctrl)
			handler := handlers.NewOrderHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("PATCH", "/api/v1/orders/"+tt.orderID+"/status", bytes.NewReader(body))
			req.SetPathValue("id", tt.orderID)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.UpdateOrderStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestOrderHandler_UpdateOrderPayment(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*mocks.MockOrderService)
		expectedStatus int
	}{
		{
			name:        "successfully_marks_paid",
			requestBody: handlers.UpdateOrderPaymentRequest{PaymentStatus: "paid", PaymentMethod: "card"},
			setupMocks: func(m *mocks.MockOrderService) {
				m.EXPECT().
					UpdatePayment(gomock.Any(), orderID, domain.PaymentPaid, "card").
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown_payment_status",
			requestBody:    handlers.UpdateOrderPaymentRequest{PaymentStatus: "iou"},
			setupMocks:     func(m *mocks.MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockOrderService(ctrl)
			handler := handlers.NewOrderHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("PATCH", "/api/v1/orders/"+orderID.String()+"/payment", bytes.NewReader(body))
			req.SetPathValue("id", orderID.String())
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.UpdateOrderPayment(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
