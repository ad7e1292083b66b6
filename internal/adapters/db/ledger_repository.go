// internal/adapters/db/ledger_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// ledgerRepository implements ports.LedgerRepository
type ledgerRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new stock ledger repository
func NewLedgerRepository(db *Database, logger *slog.Logger) ports.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "ledger")),
	}
}

// Adjust applies a manual stock movement: the product row is locked,
// the counter checked against going negative, updated, and the signed
// ledger entry written, all in one transaction. Returns the new stock
// level.
func (r *ledgerRepository) Adjust(ctx context.Context, productID uuid.UUID, magnitude int, txType domain.TransactionType, note string) (int, error) {
	var newStock int

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var current int
		err := tx.QueryRow(ctx, `
			SELECT stock_quantity FROM products
			WHERE id = $1
			FOR UPDATE`, productID,
		).Scan(&current)
		if err != nil {
			if err == pgx.ErrNoRows {
				return &domain.NotFoundError{Resource: "product", ID: productID.String()}
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		delta := domain.SignedQuantity(txType, magnitude)
		newStock = current + delta
		if newStock < 0 {
			return &domain.InsufficientStockError{
				ProductID: productID,
				Requested: magnitude,
				Available: current,
			}
		}

		now := time.Now()

		_, err = tx.Exec(ctx, `
			UPDATE products SET stock_quantity = $2, updated_at = $3 WHERE id = $1`,
			productID, newStock, now,
		)
		if err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_transactions (
				id, product_id, transaction_type, quantity, notes, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), productID, txType, delta, nullString(note), now,
		)
		if err != nil {
			return fmt.Errorf("failed to record adjustment: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, TranslateError(err)
	}

	r.logger.InfoContext(ctx, "stock adjusted",
		slog.String("product_id", productID.String()),
		slog.String("type", string(txType)),
		slog.Int("magnitude", magnitude),
		slog.Int("new_stock", newStock))

	return newStock, nil
}

// FindTransactions retrieves ledger entries with filtering and
// pagination, newest first.
func (r *ledgerRepository) FindTransactions(ctx context.Context, params ports.LedgerListParams) ([]*domain.LedgerEntry, int64, error) {
	filter := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.ProductID != nil {
			qb = qb.Where(squirrel.Eq{"product_id": *params.ProductID})
		}
		if params.Type != "" {
			qb = qb.Where(squirrel.Eq{"transaction_type": params.Type})
		}
		if params.From != nil {
			qb = qb.Where(squirrel.GtOrEq{"created_at": *params.From})
		}
		if params.To != nil {
			qb = qb.Where(squirrel.Lt{"created_at": *params.To})
		}
		return qb
	}

	countSQL, countArgs, err := filter(squirrel.Select("COUNT(*)").
		From("inventory_transactions").
		PlaceholderFormat(squirrel.Dollar)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", TranslateError(err))
	}

	qb := filter(squirrel.Select(
		"id", "product_id", "transaction_type", "quantity",
		"reference_id", "reference_type", "notes", "created_at",
	).From("inventory_transactions").
		PlaceholderFormat(squirrel.Dollar)).
		OrderBy("created_at DESC")

	if params.PageSize > 0 {
		qb = qb.Limit(uint64(params.PageSize))
		if params.Page > 1 {
			qb = qb.Offset(uint64((params.Page - 1) * params.PageSize))
		}
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", TranslateError(err))
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry := &domain.LedgerEntry{}
		var referenceType, notes sql.NullString

		err := rows.Scan(
			&entry.ID, &entry.ProductID, &entry.Type, &entry.Quantity,
			&entry.ReferenceID, &referenceType, &notes, &entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}

		entry.ReferenceType = referenceType.String
		entry.Notes = notes.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, totalCount, nil
}

// StockLevels returns the per-product stock report over the active
// catalog, optionally restricted to products at or below threshold.
func (r *ledgerRepository) StockLevels(ctx context.Context, lowOnly bool) ([]domain.StockLevel, error) {
	qb := squirrel.Select(
		"id", "sku", "name", "stock_quantity", "min_stock_level",
	).From("products").
		Where(squirrel.Eq{"status": domain.ProductActive}).
		OrderBy("stock_quantity ASC, sku ASC").
		PlaceholderFormat(squirrel.Dollar)

	if lowOnly {
		qb = qb.Where("stock_quantity <= min_stock_level")
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", TranslateError(err))
	}
	defer rows.Close()

	var levels []domain.StockLevel
	for rows.Next() {
		var level domain.StockLevel
		err := rows.Scan(
			&level.ProductID, &level.SKU, &level.Name,
			&level.StockQuantity, &level.MinStockLevel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}

		switch {
		case level.StockQuantity <= 0:
			level.Status = domain.StockOut
		case level.StockQuantity <= level.MinStockLevel:
			level.Status = domain.StockLow
		default:
			level.Status = domain.StockOK
		}
		levels = append(levels, level)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return levels, nil
}

// Summary computes the dashboard aggregates in a single round trip
func (r *ledgerRepository) Summary(ctx context.Context) (*domain.StockSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products WHERE status = 'active'),
			(SELECT COALESCE(SUM(price * stock_quantity), 0) FROM products WHERE status = 'active'),
			(SELECT COUNT(*) FROM products WHERE status = 'active' AND stock_quantity > 0 AND stock_quantity <= min_stock_level),
			(SELECT COUNT(*) FROM products WHERE status = 'active' AND stock_quantity <= 0),
			(SELECT COUNT(*) FROM inventory_transactions WHERE created_at >= CURRENT_DATE)`

	summary := &domain.StockSummary{}
	err := r.db.QueryRow(ctx, query).Scan(
		&summary.ActiveProducts,
		&summary.InventoryValue,
		&summary.LowStockCount,
		&summary.OutOfStockCount,
		&summary.TransactionsToday,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stock summary: %w", TranslateError(err))
	}

	return summary, nil
}
