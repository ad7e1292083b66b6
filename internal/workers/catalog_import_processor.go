// internal/workers/catalog_import_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// CatalogImportProcessor imports product spreadsheets in the
// background. Expected columns: sku, name, description, price, cost,
// stock quantity, min stock level.
type CatalogImportProcessor struct {
	products ports.ProductService
	cache    ports.CacheRepository
	logger   *slog.Logger
}

// NewCatalogImportProcessor creates a new catalog import processor
func NewCatalogImportProcessor(products ports.ProductService, cache ports.CacheRepository, logger *slog.Logger) *CatalogImportProcessor {
	return &CatalogImportProcessor{
		products: products,
		cache:    cache,
		logger:   logger.With(slog.String("processor", "catalog_import")),
	}
}

// ProcessCatalogImport parses the spreadsheet and saves all products
// in one batch, so a malformed file imports nothing rather than half.
func (p *CatalogImportProcessor) ProcessCatalogImport(ctx context.Context, t *asynq.Task) error {
	var payload CatalogImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing catalog import",
		slog.String("job_id", payload.JobID),
		slog.String("file_path", payload.FilePath))

	updateJobStatus(ctx, p.cache, p.logger, payload.JobID, func(s *ImportJobStatus) {
		s.Status = JobRunning
	})

	file, err := xlsx.OpenFile(payload.FilePath)
	if err != nil {
		p.failJob(ctx, payload.JobID, err)
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	var products []domain.Product
	var skipped int

	if len(file.Sheets) > 0 {
		sheet := file.Sheets[0]
		rowIdx := 0

		err = sheet.ForEachRow(func(r *xlsx.Row) error {
			if rowIdx == 0 {
				rowIdx++
				return nil
			}
			rowIdx++

			product := p.parseRow(r)
			if product == nil {
				skipped++
				return nil
			}
			products = append(products, *product)
			return nil
		})
		if err != nil {
			p.failJob(ctx, payload.JobID, err)
			return fmt.Errorf("failed to process spreadsheet rows: %w", err)
		}
	}

	if len(products) > 0 {
		if err := p.products.SaveBatch(ctx, products); err != nil {
			p.failJob(ctx, payload.JobID, err)
			return fmt.Errorf("failed to save products: %w", err)
		}
	}

	_ = os.Remove(payload.FilePath)

	updateJobStatus(ctx, p.cache, p.logger, payload.JobID, func(s *ImportJobStatus) {
		s.Status = JobCompleted
		s.RowsTotal = len(products) + skipped
		s.RowsOK = len(products)
		s.RowsFailed = skipped
		s.CompletedAt = time.Now().UTC()
	})

	p.logger.InfoContext(ctx, "catalog import completed",
		slog.String("job_id", payload.JobID),
		slog.Int("imported", len(products)),
		slog.Int("skipped", skipped))

	return nil
}

func (p *CatalogImportProcessor) failJob(ctx context.Context, jobID string, cause error) {
	updateJobStatus(ctx, p.cache, p.logger, jobID, func(s *ImportJobStatus) {
		s.Status = JobFailed
		s.Error = cause.Error()
		s.CompletedAt = time.Now().UTC()
	})
}

func (p *CatalogImportProcessor) parseRow(r *xlsx.Row) *domain.Product {
	get := func(i int) string {
		c := r.GetCell(i)
		if c == nil {
			return ""
		}
		return strings.TrimSpace(c.String())
	}

	getDecimal := func(i int) decimal.Decimal {
		s := get(i)
		if s == "" {
			return decimal.Zero
		}
		d, _ := decimal.NewFromString(strings.TrimPrefix(s, "$"))
		return d
	}

	getInt := func(i int) int {
		n, _ := strconv.Atoi(get(i))
		return n
	}

	sku := get(0)
	name := get(1)
	if sku == "" || name == "" {
		return nil
	}

	return &domain.Product{
		SKU:           sku,
		Name:          name,
		Description:   get(2),
		Price:         getDecimal(3),
		Cost:          getDecimal(4),
		StockQuantity: getInt(5),
		MinStockLevel: getInt(6),
		Status:        domain.ProductActive,
	}
}
