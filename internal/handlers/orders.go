// internal/handlers/orders.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	service ports.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service ports.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "orders")),
	}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.service.Create(ctx, req.ToParams())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create order",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to create order")
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get order",
			slog.String("order_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to retrieve order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// CancelOrder handles POST /api/v1/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.service.Cancel(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to cancel order",
			slog.String("order_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to cancel order")
		return
	}

	h.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", idStr),
		slog.String("order_number", order.OrderNumber))

	respondJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := domain.OrderStatus(req.Status)
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown order status %q", req.Status))
		return
	}

	if err := h.service.UpdateStatus(ctx, id, status); err != nil {
		h.logger.ErrorContext(ctx, "failed to update order status",
			slog.String("order_id", idStr),
			slog.String("status", req.Status),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to update order status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"order_id": idStr,
		"status":   req.Status,
	})
}

// UpdateOrderPayment handles PATCH /api/v1/orders/{id}/payment
func (h *OrderHandler) UpdateOrderPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var req UpdateOrderPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := domain.PaymentStatus(req.PaymentStatus)
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown payment status %q", req.PaymentStatus))
		return
	}

	if err := h.service.UpdatePayment(ctx, id, status, req.PaymentMethod); err != nil {
		h.logger.ErrorContext(ctx, "failed to update order payment",
			slog.String("order_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to update order payment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"order_id":       idStr,
		"payment_status": req.PaymentStatus,
	})
}

// parseListParams parses query parameters for listing orders
func (h *OrderHandler) parseListParams(r *http.Request) ports.OrderListParams {
	params := ports.OrderListParams{
		SortBy:    "created_at",
		SortOrder: "desc",
	}
	params.Page, params.PageSize = parsePagination(r)

	params.Status = r.URL.Query().Get("status")
	params.PaymentStatus = r.URL.Query().Get("payment_status")

	if c := r.URL.Query().Get("customer_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			params.CustomerID = &id
		}
	}
	if from := r.URL.Query().Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			params.From = &t
		}
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// inclusive upper bound
			t = t.Add(24*time.Hour - time.Nanosecond)
			params.To = &t
		}
	}

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

// Request DTOs

// CreateOrderRequest represents the request body for placing an order
type CreateOrderRequest struct {
	CustomerID     *uuid.UUID               `json:"customer_id,omitempty"`
	Items          []CreateOrderItemRequest `json:"items"`
	TaxAmount      decimal.Decimal          `json:"tax_amount,omitempty"`
	DiscountAmount decimal.Decimal          `json:"discount_amount,omitempty"`
	TotalAmount    *decimal.Decimal         `json:"total_amount,omitempty"`
	PaymentMethod  string                   `json:"payment_method,omitempty"`
	Notes          string                   `json:"notes,omitempty"`
}

// CreateOrderItemRequest is one requested line item. A missing
// unit_price means "charge the product's current price".
type CreateOrderItemRequest struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// Validate validates the create order request
func (r *CreateOrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return fmt.Errorf("items is required")
	}
	for _, item := range r.Items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("items.product_id is required")
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("items.quantity must be positive")
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return fmt.Errorf("items.unit_price cannot be negative")
		}
	}
	if r.TaxAmount.IsNegative() {
		return fmt.Errorf("tax_amount cannot be negative")
	}
	if r.DiscountAmount.IsNegative() {
		return fmt.Errorf("discount_amount cannot be negative")
	}
	return nil
}

// ToParams converts the request to service parameters
func (r *CreateOrderRequest) ToParams() ports.CreateOrderParams {
	params := ports.CreateOrderParams{
		CustomerID:     r.CustomerID,
		TaxAmount:      r.TaxAmount,
		DiscountAmount: r.DiscountAmount,
		TotalAmount:    r.TotalAmount,
		PaymentMethod:  r.PaymentMethod,
		Notes:          r.Notes,
	}
	for _, item := range r.Items {
		params.Items = append(params.Items, ports.CreateOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return params
}

// UpdateOrderStatusRequest represents the request body for a status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderPaymentRequest represents the request body for a payment update
type UpdateOrderPaymentRequest struct {
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method,omitempty"`
}
