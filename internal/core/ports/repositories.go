// internal/core/ports/repositories.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/domain"
)

// ProductRepository defines the persistence port for the catalog.
// Save and Update are transactional: any change to stock_quantity is
// mirrored by a ledger entry in the same transaction.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) error
	SaveBatch(ctx context.Context, products []domain.Product) error
	Update(ctx context.Context, product *domain.Product, stock *int) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	FindAll(ctx context.Context, params ProductListParams) ([]*domain.Product, int64, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	FindLowStock(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error)
}

// OrderRepository defines the persistence port for orders. Create and
// Cancel are single atomic transactions covering the order header, its
// line items, the per-product stock counters and the ledger.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, method string) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindAll(ctx context.Context, params OrderListParams) ([]*domain.Order, int64, error)
}

// LedgerRepository defines the persistence port for the stock ledger:
// the transactional adjustment write path plus the read-only
// aggregation queries.
type LedgerRepository interface {
	Adjust(ctx context.Context, productID uuid.UUID, magnitude int, txType domain.TransactionType, note string) (int, error)
	FindTransactions(ctx context.Context, params LedgerListParams) ([]*domain.LedgerEntry, int64, error)
	StockLevels(ctx context.Context, lowOnly bool) ([]domain.StockLevel, error)
	Summary(ctx context.Context) (*domain.StockSummary, error)
}

// CustomerRepository defines the persistence port for customers
type CustomerRepository interface {
	Save(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	FindAll(ctx context.Context, params CustomerListParams) ([]*domain.Customer, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogRepository defines the persistence port for categories and
// suppliers, the small lookup tables products hang off of.
type CatalogRepository interface {
	SaveCategory(ctx context.Context, category *domain.Category) error
	FindCategories(ctx context.Context) ([]*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	SaveSupplier(ctx context.Context, supplier *domain.Supplier) error
	FindSuppliers(ctx context.Context) ([]*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
}

// ProductListParams holds filters for listing products
type ProductListParams struct {
	Search     string
	CategoryID *uuid.UUID
	SupplierID *uuid.UUID
	Status     string
	LowStock   *bool
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// OrderListParams holds filters for listing orders
type OrderListParams struct {
	Status        string
	PaymentStatus string
	CustomerID    *uuid.UUID
	From          *time.Time
	To            *time.Time
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}

// LedgerListParams holds filters for the stock-movement history
type LedgerListParams struct {
	ProductID *uuid.UUID
	Type      string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// CustomerListParams holds filters for listing customers
type CustomerListParams struct {
	Search   string
	Page     int
	PageSize int
}
