// internal/core/ports/services.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeops/backoffice-be/internal/core/domain"
)

// OrderService is the application service port for the order
// transaction manager.
type OrderService interface {
	Create(ctx context.Context, params CreateOrderParams) (*domain.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, method string) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, params OrderListParams) (*OrderListResult, error)
}

// StockService is the application service port for stock adjustments
// and ledger queries.
type StockService interface {
	Adjust(ctx context.Context, params AdjustStockParams) (*StockAdjustment, error)
	History(ctx context.Context, params LedgerListParams) (*LedgerListResult, error)
	Levels(ctx context.Context, lowOnly bool) ([]domain.StockLevel, error)
	Summary(ctx context.Context) (*domain.StockSummary, error)
}

// ProductService is the application service port for the catalog
type ProductService interface {
	Save(ctx context.Context, product *domain.Product) error
	SaveBatch(ctx context.Context, products []domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// Update replaces catalog fields. A non-nil stock sets the counter
	// to that value and logs the delta as an adjustment ledger entry.
	Update(ctx context.Context, id uuid.UUID, product *domain.Product, stock *int) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ProductListParams) (*ProductListResult, error)
}

// CustomerService is the application service port for customers
type CustomerService interface {
	Save(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	Update(ctx context.Context, id uuid.UUID, customer *domain.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params CustomerListParams) (*CustomerListResult, error)
}

// AlertEnqueuer hands low-stock alert tasks off to the background
// worker. Implemented by the asynq task client.
type AlertEnqueuer interface {
	EnqueueLowStockAlert(ctx context.Context, alert LowStockAlert) error
}

// LowStockAlert is the payload for a low-stock alert task
type LowStockAlert struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel int       `json:"min_stock_level"`
}

// CreateOrderParams is the validated payload for order creation
type CreateOrderParams struct {
	CustomerID     *uuid.UUID
	Items          []CreateOrderItem
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	// TotalAmount, when set, must match the server-computed total
	TotalAmount   *decimal.Decimal
	PaymentMethod string
	Notes         string
}

// CreateOrderItem is one requested line item. UnitPrice nil means
// "use the product's current price".
type CreateOrderItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// AdjustDirection is the direction of a manual stock adjustment
type AdjustDirection string

const (
	AdjustIn  AdjustDirection = "in"
	AdjustOut AdjustDirection = "out"
)

// AdjustStockParams is the validated payload for a manual adjustment
type AdjustStockParams struct {
	ProductID uuid.UUID
	Quantity  int
	Direction AdjustDirection
	Note      string
}

// StockAdjustment is the result of a successful adjustment
type StockAdjustment struct {
	ProductID uuid.UUID `json:"product_id"`
	NewStock  int       `json:"new_stock"`
}

// OrderListResult is a page of orders
type OrderListResult struct {
	Orders     []*domain.Order `json:"orders"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalCount int64           `json:"total_count"`
	TotalPages int             `json:"total_pages"`
}

// ProductListResult is a page of products
type ProductListResult struct {
	Products   []*domain.Product `json:"products"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}

// LedgerListResult is a page of stock movements
type LedgerListResult struct {
	Transactions []*domain.LedgerEntry `json:"transactions"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalCount   int64                 `json:"total_count"`
	TotalPages   int                   `json:"total_pages"`
}

// CustomerListResult is a page of customers
type CustomerListResult struct {
	Customers  []*domain.Customer `json:"customers"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalCount int64              `json:"total_count"`
	TotalPages int                `json:"total_pages"`
}
