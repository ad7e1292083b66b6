// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// productRepository implements ports.ProductRepository
type productRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *Database, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "product")),
	}
}

const productColumns = `
	id, sku, name, description, category_id, supplier_id,
	price, cost, stock_quantity, min_stock_level, status,
	created_at, updated_at`

// Save creates a new product. When the product starts with stock on
// hand, an initial_stock ledger entry is written in the same
// transaction so the counter and the ledger agree from row one.
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		return insertProduct(ctx, tx, product)
	})
	if err != nil {
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, product.SKU)
		}
		return fmt.Errorf("failed to save product: %w", TranslateError(err))
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.String("id", product.ID.String()),
		slog.String("sku", product.SKU))

	return nil
}

// SaveBatch saves multiple products in a single transaction
func (r *productRepository) SaveBatch(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		for i := range products {
			if err := insertProduct(ctx, tx, &products[i]); err != nil {
				return fmt.Errorf("failed to save product %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return TranslateError(err)
	}

	r.logger.InfoContext(ctx, "product batch saved",
		slog.Int("count", len(products)))

	return nil
}

func insertProduct(ctx context.Context, tx pgx.Tx, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := tx.Exec(ctx, query,
		product.ID, product.SKU, product.Name, nullString(product.Description),
		product.CategoryID, product.SupplierID,
		product.Price, product.Cost, product.StockQuantity, product.MinStockLevel,
		product.Status, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if product.StockQuantity > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_transactions (
				id, product_id, transaction_type, quantity, notes, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), product.ID, domain.TxInitialStock,
			product.StockQuantity, "initial stock on product creation", product.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record initial stock: %w", err)
		}
	}

	return nil
}

// Update updates a product's catalog fields. A non-nil stock sets the
// counter to that value; the delta against the prior level is appended
// to the ledger as an adjustment entry in the same transaction, so the
// reconciliation invariant survives direct edits.
func (r *productRepository) Update(ctx context.Context, product *domain.Product, stock *int) error {
	product.UpdatedAt = time.Now()

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var prior int
		err := tx.QueryRow(ctx,
			`SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE`,
			product.ID,
		).Scan(&prior)
		if err != nil {
			if err == pgx.ErrNoRows {
				return &domain.NotFoundError{Resource: "product", ID: product.ID.String()}
			}
			return err
		}

		newStock := prior
		if stock != nil {
			newStock = *stock
		}

		err = tx.QueryRow(ctx, `
			UPDATE products SET
				sku = $2, name = $3, description = $4,
				category_id = $5, supplier_id = $6,
				price = $7, cost = $8, stock_quantity = $9,
				min_stock_level = $10, status = $11, updated_at = $12
			WHERE id = $1
			RETURNING created_at`,
			product.ID, product.SKU, product.Name, nullString(product.Description),
			product.CategoryID, product.SupplierID,
			product.Price, product.Cost, newStock, product.MinStockLevel,
			product.Status, product.UpdatedAt,
		).Scan(&product.CreatedAt)
		if err != nil {
			return err
		}
		product.StockQuantity = newStock

		delta := newStock - prior
		if delta == 0 {
			return nil
		}

		txType := domain.TxAdjustmentIn
		if delta < 0 {
			txType = domain.TxAdjustmentOut
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_transactions (
				id, product_id, transaction_type, quantity, notes, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), product.ID, txType, delta,
			"stock edit on product update", product.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return err
		}
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, product.SKU)
		}
		return fmt.Errorf("failed to update product: %w", TranslateError(err))
	}

	r.logger.DebugContext(ctx, "product updated",
		slog.String("id", product.ID.String()))

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanProduct(r.db.QueryRow(ctx, query, id), id.String())
}

// FindBySKU retrieves a product by its SKU
func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	return r.scanProduct(r.db.QueryRow(ctx, query, sku), sku)
}

func (r *productRepository) scanProduct(row pgx.Row, ref string) (*domain.Product, error) {
	product := &domain.Product{}
	var description sql.NullString

	err := row.Scan(
		&product.ID, &product.SKU, &product.Name, &description,
		&product.CategoryID, &product.SupplierID,
		&product.Price, &product.Cost, &product.StockQuantity, &product.MinStockLevel,
		&product.Status, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &domain.NotFoundError{Resource: "product", ID: ref}
		}
		return nil, fmt.Errorf("failed to find product: %w", TranslateError(err))
	}

	product.Description = description.String
	return product, nil
}

// FindAll retrieves products with filtering and pagination
func (r *productRepository) FindAll(ctx context.Context, params ports.ProductListParams) ([]*domain.Product, int64, error) {
	filter := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.Search != "" {
			qb = qb.Where("(name ILIKE '%' || ? || '%' OR sku ILIKE '%' || ? || '%')",
				params.Search, params.Search)
		}
		if params.CategoryID != nil {
			qb = qb.Where(squirrel.Eq{"category_id": *params.CategoryID})
		}
		if params.SupplierID != nil {
			qb = qb.Where(squirrel.Eq{"supplier_id": *params.SupplierID})
		}
		if params.Status != "" {
			qb = qb.Where(squirrel.Eq{"status": params.Status})
		}
		if params.LowStock != nil && *params.LowStock {
			qb = qb.Where("stock_quantity <= min_stock_level")
		}
		return qb
	}

	qb := filter(squirrel.Select(
		"id", "sku", "name", "description", "category_id", "supplier_id",
		"price", "cost", "stock_quantity", "min_stock_level", "status",
		"created_at", "updated_at",
	).From("products").
		PlaceholderFormat(squirrel.Dollar))

	countSQL, countArgs, err := filter(squirrel.Select("COUNT(*)").
		From("products").
		PlaceholderFormat(squirrel.Dollar)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", TranslateError(err))
	}

	direction := "ASC"
	if params.SortOrder == "desc" {
		direction = "DESC"
	}
	orderBy := "created_at DESC"
	switch params.SortBy {
	case "name":
		orderBy = fmt.Sprintf("name %s", direction)
	case "sku":
		orderBy = fmt.Sprintf("sku %s", direction)
	case "price":
		orderBy = fmt.Sprintf("price %s", direction)
	case "stock":
		orderBy = fmt.Sprintf("stock_quantity %s", direction)
	case "updated":
		orderBy = fmt.Sprintf("updated_at %s", direction)
	}
	qb = qb.OrderBy(orderBy)

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
		return nil, 0, fmt.Errorf("failed to query products: %w", TranslateError(err))
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product := &domain.Product{}
		var description sql.NullString

		err := rows.Scan(
			&product.ID, &product.SKU, &product.Name, &description,
			&product.CategoryID, &product.SupplierID,
			&product.Price, &product.Cost, &product.StockQuantity, &product.MinStockLevel,
			&product.Status, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}

		product.Description = description.String
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, totalCount, nil
}

// Deactivate retires a product from the catalog. Rows are never hard
// deleted because order items and ledger entries reference them.
func (r *productRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE products SET status = $2, updated_at = $3
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, domain.ProductInactive, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "product", ID: id.String()}
	}

	r.logger.InfoContext(ctx, "product deactivated",
		slog.String("id", id.String()))

	return nil
}

// Exists checks if a product exists
func (r *productRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", TranslateError(err))
	}
	return exists, nil
}

// FindLowStock returns, among ids, the active products sitting at or
// below their reorder threshold.
func (r *productRepository) FindLowStock(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		  AND status = $2
		  AND stock_quantity <= min_stock_level
		ORDER BY stock_quantity ASC`

	rows, err := r.db.Query(ctx, query, ids, domain.ProductActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", TranslateError(err))
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product := &domain.Product{}
		var description sql.NullString

		err := rows.Scan(
			&product.ID, &product.SKU, &product.Name, &description,
			&product.CategoryID, &product.SupplierID,
			&product.Price, &product.Cost, &product.StockQuantity, &product.MinStockLevel,
			&product.Status, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		product.Description = description.String
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
