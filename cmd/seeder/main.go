// cmd/seeder/main.go
//
// Development data seeder. Populates categories, suppliers, products,
// customers and a batch of historical orders so the dashboard and
// reports have something to show. Every stock movement it writes goes
// through the ledger, so SUM(quantity) per product always matches the
// product's stock counter.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/storeops/backoffice-be/internal/core/domain"
)

var categoryNames = []string{
	"Electronics", "Office Supplies", "Kitchen", "Outdoor",
	"Lighting", "Storage", "Cleaning", "Tools",
}

var supplierNames = []string{
	"Northwind Traders", "Fabrikam Supply", "Contoso Wholesale",
	"Tailspin Goods", "Wingtip Imports",
}

var productAdjectives = []string{
	"Compact", "Heavy-Duty", "Wireless", "Stainless", "Foldable",
	"Ergonomic", "Portable", "Industrial", "Premium", "Classic",
}

var productNouns = []string{
	"Desk Lamp", "Label Printer", "Storage Bin", "Utility Knife",
	"Power Strip", "Office Chair", "Shelf Unit", "Tool Kit",
	"Kettle", "Monitor Stand", "Cable Organizer", "Floor Mat",
}

var customerNames = []string{
	"Maple Street Hardware", "Harbor Cafe", "Atlas Fitness",
	"Birchwood Hotel", "City Print Shop", "Grove Dental",
	"Lakeside Books", "Summit Catering", "Pioneer Garage",
	"Willow Florists",
}

type seeder struct {
	db     *pgxpool.Pool
	rng    *rand.Rand
	logger *slog.Logger
	dryRun bool

	categoryIDs []uuid.UUID
	supplierIDs []uuid.UUID
	customerIDs []uuid.UUID
	products    []seededProduct
}

type seededProduct struct {
	ID    uuid.UUID
	SKU   string
	Price decimal.Decimal
	Stock int
}

func main() {
	var (
		productCount  = flag.Int("products", 60, "Number of products to create")
		customerCount = flag.Int("customers", 10, "Number of customers to create")
		orderCount    = flag.Int("orders", 40, "Number of historical orders to create")
		seed          = flag.Int64("seed", 42, "Random seed for reproducible data")
		logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun        = flag.Bool("dry-run", false, "Preview without writing to the database")
	)
	flag.Parse()

	var slogLevel slog.Level
	switch *logLevel {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)

	dbURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "storeops"),
		getEnv("DB_PASSWORD", "storeops_dev_2026"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "storeops_backoffice"),
		getEnv("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()

	var pool *pgxpool.Pool
	if !*dryRun {
		var err error
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
	}

	s := &seeder{
		db:     pool,
		rng:    rand.New(rand.NewSource(*seed)),
		logger: logger,
		dryRun: *dryRun,
	}

	if err := s.run(ctx, *productCount, *customerCount, *orderCount); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *dryRun {
		fmt.Println("[DRY RUN] No changes were made to the database")
	}
}

func (s *seeder) run(ctx context.Context, productCount, customerCount, orderCount int) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"categories", s.seedCategories},
		{"suppliers", s.seedSuppliers},
		{"products", func(ctx context.Context) error { return s.seedProducts(ctx, productCount) }},
		{"customers", func(ctx context.Context) error { return s.seedCustomers(ctx, customerCount) }},
		{"orders", func(ctx context.Context) error { return s.seedOrders(ctx, orderCount) }},
	}

	for _, step := range steps {
		start := time.Now()
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("seeding %s: %w", step.name, err)
		}
		s.logger.Info("seeded "+step.name,
			slog.Duration("took", time.Since(start)))
	}

	s.logger.Info("seed completed",
		slog.Int("products", len(s.products)),
		slog.Int("customers", len(s.customerIDs)))
	return nil
}

func (s *seeder) seedCategories(ctx context.Context) error {
	for _, name := range categoryNames {
		id := uuid.New()
		s.categoryIDs = append(s.categoryIDs, id)
		if s.dryRun {
			continue
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO categories (id, name, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING`,
			id, name, name+" department")
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedSuppliers(ctx context.Context) error {
	for i, name := range supplierNames {
		id := uuid.New()
		s.supplierIDs = append(s.supplierIDs, id)
		if s.dryRun {
			continue
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO suppliers (id, name, contact_name, email, phone)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO NOTHING`,
			id, name,
			fmt.Sprintf("Contact %d", i+1),
			fmt.Sprintf("sales%d@example.com", i+1),
			fmt.Sprintf("+1-555-01%02d", i+1))
		if err != nil {
			return err
		}
	}
	return nil
}

// seedProducts creates each product together with its initial_stock
// ledger entry in one batch transaction.
func (s *seeder) seedProducts(ctx context.Context, count int) error {
	batch := &pgx.Batch{}

	for i := 0; i < count; i++ {
		adjective := productAdjectives[s.rng.Intn(len(productAdjectives))]
		noun := productNouns[s.rng.Intn(len(productNouns))]

		p := seededProduct{
			ID:    uuid.New(),
			SKU:   fmt.Sprintf("SKU-%04d", i+1),
			Price: decimal.NewFromInt(int64(5 + s.rng.Intn(195))).Add(decimal.NewFromFloat(0.99)),
			Stock: 20 + s.rng.Intn(180),
		}
		s.products = append(s.products, p)

		cost := p.Price.Mul(decimal.NewFromFloat(0.6)).Round(2)
		categoryID := s.categoryIDs[s.rng.Intn(len(s.categoryIDs))]
		supplierID := s.supplierIDs[s.rng.Intn(len(s.supplierIDs))]

		batch.Queue(`
			INSERT INTO products (
				id, sku, name, description, category_id, supplier_id,
				price, cost, stock_quantity, min_stock_level, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'active')
			ON CONFLICT (sku) DO NOTHING`,
			p.ID, p.SKU,
			fmt.Sprintf("%s %s", adjective, noun),
			fmt.Sprintf("%s %s, model %04d", adjective, noun, i+1),
			categoryID, supplierID,
			p.Price, cost, p.Stock, 10+s.rng.Intn(15))

		batch.Queue(`
			INSERT INTO inventory_transactions (
				product_id, transaction_type, quantity, notes
			) VALUES ($1, $2, $3, $4)`,
			p.ID, string(domain.TxInitialStock), p.Stock, "seed data")
	}

	return s.sendBatch(ctx, batch)
}

func (s *seeder) seedCustomers(ctx context.Context, count int) error {
	batch := &pgx.Batch{}

	for i := 0; i < count; i++ {
		name := customerNames[i%len(customerNames)]
		if i >= len(customerNames) {
			name = fmt.Sprintf("%s %d", name, i/len(customerNames)+1)
		}

		id := uuid.New()
		s.customerIDs = append(s.customerIDs, id)

		batch.Queue(`
			INSERT INTO customers (id, name, email, phone, address, city, country)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (email) DO NOTHING`,
			id, name,
			fmt.Sprintf("orders+%d@example.com", i+1),
			fmt.Sprintf("+1-555-02%02d", i+1),
			fmt.Sprintf("%d Main Street", 100+i),
			"Springfield", "US")
	}

	return s.sendBatch(ctx, batch)
}

// seedOrders creates delivered historical orders. Each order debits
// product stock and appends matching sale entries to the ledger.
func (s *seeder) seedOrders(ctx context.Context, count int) error {
	for i := 0; i < count; i++ {
		orderID := uuid.New()
		customerID := s.customerIDs[s.rng.Intn(len(s.customerIDs))]
		createdAt := time.Now().AddDate(0, 0, -s.rng.Intn(60))
		orderNumber := fmt.Sprintf("ORD-%s-%06x", createdAt.Format("20060102"), s.rng.Intn(1<<24))

		batch := &pgx.Batch{}
		total := decimal.Zero
		lines := 1 + s.rng.Intn(3)

		for j := 0; j < lines; j++ {
			p := &s.products[s.rng.Intn(len(s.products))]
			if p.Stock < 5 {
				continue
			}
			quantity := 1 + s.rng.Intn(4)
			p.Stock -= quantity

			lineTotal := p.Price.Mul(decimal.NewFromInt(int64(quantity)))
			total = total.Add(lineTotal)

			batch.Queue(`
				INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
				VALUES ($1, $2, $3, $4, $5)`,
				orderID, p.ID, quantity, p.Price, lineTotal)

			batch.Queue(`
				UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = $2
				WHERE id = $3`,
				quantity, createdAt, p.ID)

			batch.Queue(`
				INSERT INTO inventory_transactions (
					product_id, transaction_type, quantity,
					reference_id, reference_type, created_at
				) VALUES ($1, $2, $3, $4, 'order', $5)`,
				p.ID, string(domain.TxSale), -quantity, orderID, createdAt)
		}

		if total.IsZero() {
			continue
		}

		headBatch := &pgx.Batch{}
		headBatch.Queue(`
			INSERT INTO orders (
				id, order_number, customer_id, status, total_amount,
				payment_status, payment_method, created_at, updated_at
			) VALUES ($1, $2, $3, 'delivered', $4, 'paid', 'card', $5, $5)`,
			orderID, orderNumber, customerID, total, createdAt)

		if err := s.sendBatch(ctx, headBatch); err != nil {
			return err
		}
		if err := s.sendBatch(ctx, batch); err != nil {
			return err
		}
	}

	return nil
}

func (s *seeder) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	if s.dryRun || batch.Len() == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch statement %d failed: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	return tx.Commit(ctx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
