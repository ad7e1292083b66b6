// internal/core/services/orders.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// orderNumberAttempts bounds the regenerate-and-retry loop on an
// order-number collision.
const orderNumberAttempts = 3

// OrderService orchestrates the order transaction: it validates and
// prices the request, then hands the whole multi-row write to the
// repository as one atomic unit.
type OrderService struct {
	orders    ports.OrderRepository
	products  ports.ProductRepository
	alerts    ports.AlertEnqueuer
	logger    *slog.Logger
	opTimeout time.Duration
}

// NewOrderService creates a new order service
func NewOrderService(
	orders ports.OrderRepository,
	products ports.ProductRepository,
	alerts ports.AlertEnqueuer,
	opTimeout time.Duration,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		alerts:    alerts,
		logger:    logger.With(slog.String("service", "order")),
		opTimeout: opTimeout,
	}
}

// Create places a new order. Line items missing a unit price are
// priced from the product's current price, totals are computed server
// side, and a client-supplied total that disagrees is rejected rather
// than silently corrected.
func (s *OrderService) Create(ctx context.Context, params ports.CreateOrderParams) (*domain.Order, error) {
	if len(params.Items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Reason: "order must have at least one item"}
	}

	order := &domain.Order{
		CustomerID:     params.CustomerID,
		TaxAmount:      params.TaxAmount,
		DiscountAmount: params.DiscountAmount,
		PaymentMethod:  params.PaymentMethod,
		Notes:          params.Notes,
		Items:          make([]domain.OrderItem, len(params.Items)),
	}

	for i, item := range params.Items {
		order.Items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.UnitPrice != nil {
			order.Items[i].UnitPrice = *item.UnitPrice
			continue
		}

		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		order.Items[i].UnitPrice = product.Price
	}

	order.ComputeTotals()

	if params.TotalAmount != nil && !params.TotalAmount.Equal(order.TotalAmount) {
		return nil, &domain.ValidationError{
			Field: "total_amount",
			Reason: fmt.Sprintf("total %s does not match computed total %s",
				params.TotalAmount.StringFixed(2), order.TotalAmount.StringFixed(2)),
		}
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.PrepareForStorage()

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = domain.NewOrderNumber(time.Now())
		err = s.orders.Create(opCtx, order)
		if err == nil || !errors.Is(err, domain.ErrDuplicate) {
			break
		}
		s.logger.WarnContext(ctx, "order number collision, retrying",
			slog.String("order_number", order.OrderNumber))
	}
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}

	s.notifyLowStock(ctx, order)

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID.String()),
		slog.String("order_number", order.OrderNumber),
		slog.String("total", order.TotalAmount.StringFixed(2)))

	return order, nil
}

// Cancel cancels an order, restoring stock for every line item. A
// second cancel of the same order is rejected.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	order, err := s.orders.Cancel(opCtx, id)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", id.String()),
		slog.String("order_number", order.OrderNumber))

	return order, nil
}

// UpdateStatus moves an order through the fulfillment states.
// Cancellation has side effects on stock and must go through Cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	if !status.Valid() {
		return &domain.ValidationError{Field: "status", Reason: "unknown order status"}
	}
	if status == domain.OrderCancelled {
		return &domain.ValidationError{Field: "status", Reason: "cancellation must go through the cancel operation"}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.orders.UpdateStatus(opCtx, id, status); err != nil {
		return domain.ClassifyTimeout(err)
	}
	return nil
}

// UpdatePayment records a payment state change on an order
func (s *OrderService) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, method string) error {
	if !status.Valid() {
		return &domain.ValidationError{Field: "payment_status", Reason: "unknown payment status"}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.orders.UpdatePayment(opCtx, id, status, method); err != nil {
		return domain.ClassifyTimeout(err)
	}
	return nil
}

// GetByID retrieves an order with its line items
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	order, err := s.orders.FindByID(opCtx, id)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}
	return order, nil
}

// List retrieves a page of orders
func (s *OrderService) List(ctx context.Context, params ports.OrderListParams) (*ports.OrderListResult, error) {
	normalizePage(&params.Page, &params.PageSize)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	orders, total, err := s.orders.FindAll(opCtx, params)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}

	return &ports.OrderListResult{
		Orders:     orders,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: totalPages(total, params.PageSize),
	}, nil
}

// notifyLowStock checks the products touched by an order and enqueues
// an alert task for each one that dropped to its threshold. Alerting
// is best effort; a broker outage never fails the order.
func (s *OrderService) notifyLowStock(ctx context.Context, order *domain.Order) {
	if s.alerts == nil {
		return
	}

	ids := make([]uuid.UUID, 0, len(order.Items))
	for i := range order.Items {
		ids = append(ids, order.Items[i].ProductID)
	}

	low, err := s.products.FindLowStock(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to check low stock after order", "err", err)
		return
	}

	for _, p := range low {
		alert := ports.LowStockAlert{
			ProductID:     p.ID,
			SKU:           p.SKU,
			Name:          p.Name,
			StockQuantity: p.StockQuantity,
			MinStockLevel: p.MinStockLevel,
		}
		if err := s.alerts.EnqueueLowStockAlert(ctx, alert); err != nil {
			s.logger.WarnContext(ctx, "failed to enqueue low stock alert",
				slog.String("sku", p.SKU), "err", err)
		}
	}
}

func normalizePage(page, pageSize *int) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 {
		*pageSize = 50
	}
	if *pageSize > 200 {
		*pageSize = 200
	}
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}
