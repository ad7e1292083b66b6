// internal/handlers/dashboard.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storeops/backoffice-be/internal/adapters/db"
	redis_a "github.com/storeops/backoffice-be/internal/adapters/redis_adapter"
	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// DashboardHandler aggregates stock and order data for the back-office
// landing page. Results are cached for a short window because the
// underlying queries touch several tables.
type DashboardHandler struct {
	db     *db.Database
	stock  ports.StockService
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(database *db.Database, stock ports.StockService, cache ports.CacheRepository, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		db:     database,
		stock:  stock,
		cache:  cache,
		logger: logger.With(slog.String("handler", "dashboard")),
	}
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, "main")
	var dashboard DashboardData

	err := h.cache.GetOrSet(ctx, cacheKey, &dashboard, func() (interface{}, error) {
		return h.loadDashboardData(ctx)
	}, 5*time.Minute)

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) loadDashboardData(ctx context.Context) (*DashboardData, error) {
	dashboard := &DashboardData{
		Timestamp: time.Now().UTC(),
	}

	summary, err := h.stock.Summary(ctx)
	if err != nil {
		return nil, err
	}
	dashboard.Summary = *summary

	if err := h.loadSalesTotals(ctx, dashboard); err != nil {
		return nil, err
	}
	if err := h.loadTopSelling(ctx, dashboard); err != nil {
		return nil, err
	}
	if err := h.loadRecentOrders(ctx, dashboard); err != nil {
		return nil, err
	}

	lowStock, err := h.stock.Levels(ctx, true)
	if err != nil {
		return nil, err
	}
	dashboard.LowStock = lowStock

	if err := h.loadOpenAlerts(ctx, dashboard); err != nil {
		return nil, err
	}

	return dashboard, nil
}

func (h *DashboardHandler) loadSalesTotals(ctx context.Context, dashboard *DashboardData) error {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COUNT(*) FILTER (WHERE created_at >= date_trunc('day', now())),
			COALESCE(SUM(total_amount) FILTER (WHERE created_at >= date_trunc('day', now())), 0)
		FROM orders
		WHERE status <> 'cancelled'
	`
	return h.db.QueryRow(ctx, query).Scan(
		&dashboard.Sales.OrderCount,
		&dashboard.Sales.Revenue,
		&dashboard.Sales.OrdersToday,
		&dashboard.Sales.RevenueToday,
	)
}

func (h *DashboardHandler) loadTopSelling(ctx context.Context, dashboard *DashboardData) error {
	query := `
		SELECT p.id, p.sku, p.name,
			SUM(oi.quantity) AS units_sold,
			SUM(oi.total_price) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id AND o.status <> 'cancelled'
		JOIN products p ON p.id = oi.product_id
		GROUP BY p.id, p.sku, p.name
		ORDER BY units_sold DESC
		LIMIT 10
	`

	rows, err := h.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item TopSellingProduct
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.Name, &item.UnitsSold, &item.Revenue); err != nil {
			return err
		}
		dashboard.TopSelling = append(dashboard.TopSelling, item)
	}
	return rows.Err()
}

func (h *DashboardHandler) loadRecentOrders(ctx context.Context, dashboard *DashboardData) error {
	query := `
		SELECT id, order_number, status, payment_status, total_amount, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT 20
	`

	rows, err := h.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var o RecentOrder
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.PaymentStatus, &o.TotalAmount, &o.CreatedAt); err != nil {
			return err
		}
		dashboard.RecentOrders = append(dashboard.RecentOrders, o)
	}
	return rows.Err()
}

func (h *DashboardHandler) loadOpenAlerts(ctx context.Context, dashboard *DashboardData) error {
	query := `
		SELECT COUNT(*) FROM stock_alerts WHERE acknowledged = FALSE
	`
	return h.db.QueryRow(ctx, query).Scan(&dashboard.OpenAlerts)
}

// Type definitions

type DashboardData struct {
	Summary      domain.StockSummary `json:"summary"`
	Sales        SalesTotals         `json:"sales"`
	TopSelling   []TopSellingProduct `json:"top_selling"`
	RecentOrders []RecentOrder       `json:"recent_orders"`
	LowStock     []domain.StockLevel `json:"low_stock"`
	OpenAlerts   int64               `json:"open_alerts"`
	Timestamp    time.Time           `json:"timestamp"`
}

type SalesTotals struct {
	OrderCount   int64           `json:"order_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	OrdersToday  int64           `json:"orders_today"`
	RevenueToday decimal.Decimal `json:"revenue_today"`
}

type TopSellingProduct struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type RecentOrder struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
