// internal/adapters/db/order_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// orderRepository implements ports.OrderRepository
type orderRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *Database, logger *slog.Logger) ports.OrderRepository {
	return &orderRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "order")),
	}
}

const orderColumns = `
	id, order_number, customer_id, status,
	total_amount, tax_amount, discount_amount,
	payment_status, payment_method, notes,
	created_at, updated_at`

// Create persists an order atomically: the header, every line item,
// the stock decrement on each product and the matching sale ledger
// entries all commit or roll back together. Each product row is locked
// and its stock re-checked under the lock, so two concurrent orders
// can never both consume the last unit.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (`+orderColumns+`
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			order.ID, order.OrderNumber, order.CustomerID, order.Status,
			order.TotalAmount, order.TaxAmount, order.DiscountAmount,
			order.PaymentStatus, nullString(order.PaymentMethod), nullString(order.Notes),
			order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		// Lock products in a stable order so two concurrent orders
		// touching the same products cannot deadlock.
		idx := make([]int, len(order.Items))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool {
			return order.Items[idx[a]].ProductID.String() < order.Items[idx[b]].ProductID.String()
		})

		for _, i := range idx {
			item := &order.Items[i]

			var available int
			err := tx.QueryRow(ctx, `
				SELECT stock_quantity FROM products
				WHERE id = $1 AND status = $2
				FOR UPDATE`,
				item.ProductID, domain.ProductActive,
			).Scan(&available)
			if err != nil {
				if err == pgx.ErrNoRows {
					return &domain.NotFoundError{Resource: "product", ID: item.ProductID.String()}
				}
				return fmt.Errorf("failed to lock product: %w", err)
			}

			if available < item.Quantity {
				return &domain.InsufficientStockError{
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Available: available,
				}
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO order_items (
					id, order_id, product_id, quantity, unit_price, total_price
				) VALUES ($1, $2, $3, $4, $5, $6)`,
				item.ID, order.ID, item.ProductID,
				item.Quantity, item.UnitPrice, item.TotalPrice,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}

			_, err = tx.Exec(ctx, `
				UPDATE products
				SET stock_quantity = stock_quantity - $2, updated_at = $3
				WHERE id = $1`,
				item.ProductID, item.Quantity, order.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO inventory_transactions (
					id, product_id, transaction_type, quantity,
					reference_id, reference_type, notes, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.New(), item.ProductID, domain.TxSale,
				domain.SignedQuantity(domain.TxSale, item.Quantity),
				order.ID, "order", "sale "+order.OrderNumber, order.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to record sale: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		if IsUniqueViolation(err, "orders_order_number_key") {
			return fmt.Errorf("%w: order_number %s", domain.ErrDuplicate, order.OrderNumber)
		}
		return TranslateError(err)
	}

	r.logger.InfoContext(ctx, "order created",
		slog.String("id", order.ID.String()),
		slog.String("order_number", order.OrderNumber),
		slog.Int("items", len(order.Items)))

	return nil
}

// Cancel cancels an order and restores stock: for every line item the
// product counter goes back up and a return ledger entry is written,
// all in one transaction. Cancelling an already cancelled order fails
// so stock is never restored twice.
func (r *orderRepository) Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order *domain.Order

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		o, err := scanOrderRow(tx.QueryRow(ctx, `
			SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if err == pgx.ErrNoRows {
				return &domain.NotFoundError{Resource: "order", ID: id.String()}
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		if o.Status == domain.OrderCancelled {
			return fmt.Errorf("%w: %s", domain.ErrOrderCancelled, o.OrderNumber)
		}

		items, err := loadOrderItems(ctx, tx, id)
		if err != nil {
			return err
		}
		o.Items = items

		now := time.Now()

		idx := make([]int, len(items))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool {
			return items[idx[a]].ProductID.String() < items[idx[b]].ProductID.String()
		})

		for _, i := range idx {
			item := &items[i]

			_, err = tx.Exec(ctx, `
				UPDATE products
				SET stock_quantity = stock_quantity + $2, updated_at = $3
				WHERE id = $1`,
				item.ProductID, item.Quantity, now,
			)
			if err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO inventory_transactions (
					id, product_id, transaction_type, quantity,
					reference_id, reference_type, notes, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.New(), item.ProductID, domain.TxReturn,
				domain.SignedQuantity(domain.TxReturn, item.Quantity),
				o.ID, "order", "cancellation of "+o.OrderNumber, now,
			)
			if err != nil {
				return fmt.Errorf("failed to record return: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
			id, domain.OrderCancelled, now,
		)
		if err != nil {
			return fmt.Errorf("failed to mark order cancelled: %w", err)
		}

		o.Status = domain.OrderCancelled
		o.UpdatedAt = now
		order = o
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}

	r.logger.InfoContext(ctx, "order cancelled",
		slog.String("id", id.String()),
		slog.String("order_number", order.OrderNumber))

	return order, nil
}

// UpdateStatus moves an order through the fulfillment states. A
// cancelled order cannot be revived this way.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = $3
		WHERE id = $1 AND status <> $4`,
		id, status, time.Now(), domain.OrderCancelled,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", TranslateError(err))
	}

	if tag.RowsAffected() == 0 {
		var current domain.OrderStatus
		err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
		if err == pgx.ErrNoRows {
			return &domain.NotFoundError{Resource: "order", ID: id.String()}
		}
		if err != nil {
			return fmt.Errorf("failed to check order status: %w", TranslateError(err))
		}
		return fmt.Errorf("%w: %s", domain.ErrOrderCancelled, id)
	}

	r.logger.DebugContext(ctx, "order status updated",
		slog.String("id", id.String()),
		slog.String("status", string(status)))

	return nil
}

// UpdatePayment records the payment state and method for an order
func (r *orderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, method string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET payment_status = $2, payment_method = $3, updated_at = $4
		WHERE id = $1`,
		id, status, nullString(method), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "order", ID: id.String()}
	}

	return nil
}

// FindByID retrieves an order and its line items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrderRow(r.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &domain.NotFoundError{Resource: "order", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to find order: %w", TranslateError(err))
	}

	items, err := loadOrderItems(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// FindAll retrieves order headers with filtering and pagination. Line
// items are not loaded on list views.
func (r *orderRepository) FindAll(ctx context.Context, params ports.OrderListParams) ([]*domain.Order, int64, error) {
	filter := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.Status != "" {
			qb = qb.Where(squirrel.Eq{"status": params.Status})
		}
		if params.PaymentStatus != "" {
			qb = qb.Where(squirrel.Eq{"payment_status": params.PaymentStatus})
		}
		if params.CustomerID != nil {
			qb = qb.Where(squirrel.Eq{"customer_id": *params.CustomerID})
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
		From("orders").
		PlaceholderFormat(squirrel.Dollar)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", TranslateError(err))
	}

	qb := filter(squirrel.Select(
		"id", "order_number", "customer_id", "status",
		"total_amount", "tax_amount", "discount_amount",
		"payment_status", "payment_method", "notes",
		"created_at", "updated_at",
	).From("orders").
		PlaceholderFormat(squirrel.Dollar))

	direction := "DESC"
	if params.SortOrder == "asc" {
		direction = "ASC"
	}
	orderBy := fmt.Sprintf("created_at %s", direction)
	switch params.SortBy {
	case "total":
		orderBy = fmt.Sprintf("total_amount %s", direction)
	case "order_number":
		orderBy = fmt.Sprintf("order_number %s", direction)
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
		return nil, 0, fmt.Errorf("failed to query orders: %w", TranslateError(err))
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, totalCount, nil
}

func scanOrderRow(row pgx.Row) (*domain.Order, error) {
	order := &domain.Order{}
	var paymentMethod, notes sql.NullString

	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.Status,
		&order.TotalAmount, &order.TaxAmount, &order.DiscountAmount,
		&order.PaymentStatus, &paymentMethod, &notes,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.PaymentMethod = paymentMethod.String
	order.Notes = notes.String
	return order, nil
}

// querier covers both the pool wrapper and an open transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func loadOrderItems(ctx context.Context, q querier, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}
