// internal/core/services/stock.go
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

const (
	summaryCacheKey = "stock:summary"
	summaryCacheTTL = 5 * time.Minute
)

// StockService handles manual stock adjustments and the ledger read
// paths. The expensive dashboard aggregation is served from cache.
type StockService struct {
	ledger    ports.LedgerRepository
	products  ports.ProductRepository
	cache     ports.CacheRepository
	alerts    ports.AlertEnqueuer
	logger    *slog.Logger
	opTimeout time.Duration
}

// NewStockService creates a new stock service
func NewStockService(
	ledger ports.LedgerRepository,
	products ports.ProductRepository,
	cache ports.CacheRepository,
	alerts ports.AlertEnqueuer,
	opTimeout time.Duration,
	logger *slog.Logger,
) *StockService {
	return &StockService{
		ledger:    ledger,
		products:  products,
		cache:     cache,
		alerts:    alerts,
		logger:    logger.With(slog.String("service", "stock")),
		opTimeout: opTimeout,
	}
}

// Adjust applies a manual stock movement and returns the new level.
// The quantity is an unsigned magnitude; direction picks the sign.
func (s *StockService) Adjust(ctx context.Context, params ports.AdjustStockParams) (*ports.StockAdjustment, error) {
	if params.Quantity <= 0 {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "quantity must be positive"}
	}

	var txType domain.TransactionType
	switch params.Direction {
	case ports.AdjustIn:
		txType = domain.TxAdjustmentIn
	case ports.AdjustOut:
		txType = domain.TxAdjustmentOut
	default:
		return nil, &domain.ValidationError{Field: "direction", Reason: "direction must be in or out"}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	newStock, err := s.ledger.Adjust(opCtx, params.ProductID, params.Quantity, txType, params.Note)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}

	s.invalidateSummary(ctx)

	if txType == domain.TxAdjustmentOut {
		s.notifyIfLow(ctx, params.ProductID)
	}

	return &ports.StockAdjustment{
		ProductID: params.ProductID,
		NewStock:  newStock,
	}, nil
}

// History retrieves a page of the stock movement ledger
func (s *StockService) History(ctx context.Context, params ports.LedgerListParams) (*ports.LedgerListResult, error) {
	normalizePage(&params.Page, &params.PageSize)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	entries, total, err := s.ledger.FindTransactions(opCtx, params)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}

	return &ports.LedgerListResult{
		Transactions: entries,
		Page:         params.Page,
		PageSize:     params.PageSize,
		TotalCount:   total,
		TotalPages:   totalPages(total, params.PageSize),
	}, nil
}

// Levels returns the per-product stock report
func (s *StockService) Levels(ctx context.Context, lowOnly bool) ([]domain.StockLevel, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	levels, err := s.ledger.StockLevels(opCtx, lowOnly)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}
	return levels, nil
}

// Summary returns the dashboard aggregates, cached for a few minutes
func (s *StockService) Summary(ctx context.Context) (*domain.StockSummary, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	summary := &domain.StockSummary{}

	if s.cache != nil {
		err := s.cache.GetOrSet(opCtx, summaryCacheKey, summary, func() (interface{}, error) {
			return s.ledger.Summary(opCtx)
		}, summaryCacheTTL)
		if err == nil {
			return summary, nil
		}
		s.logger.WarnContext(ctx, "summary cache unavailable, querying directly", "err", err)
	}

	summary, err := s.ledger.Summary(opCtx)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}
	return summary, nil
}

func (s *StockService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, summaryCacheKey); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate summary cache", "err", err)
	}
}

func (s *StockService) notifyIfLow(ctx context.Context, productID uuid.UUID) {
	if s.alerts == nil {
		return
	}

	low, err := s.products.FindLowStock(ctx, []uuid.UUID{productID})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to check low stock after adjustment", "err", err)
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
