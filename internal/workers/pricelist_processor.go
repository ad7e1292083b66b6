// internal/workers/pricelist_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/storeops/backoffice-be/internal/core/ports"
)

// PriceListProcessor imports supplier price list PDFs. Each priced
// line carries a SKU and a unit cost; matching products get their
// cost updated.
type PriceListProcessor struct {
	products ports.ProductRepository
	cache    ports.CacheRepository
	logger   *slog.Logger
}

// NewPriceListProcessor creates a new price list processor
func NewPriceListProcessor(products ports.ProductRepository, cache ports.CacheRepository, logger *slog.Logger) *PriceListProcessor {
	return &PriceListProcessor{
		products: products,
		cache:    cache,
		logger:   logger.With(slog.String("processor", "price_list")),
	}
}

// ProcessPriceList extracts SKU/price pairs from the PDF and applies
// them. Unknown SKUs are counted and skipped, never fatal.
func (p *PriceListProcessor) ProcessPriceList(ctx context.Context, t *asynq.Task) error {
	var payload PriceListImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing price list",
		slog.String("job_id", payload.JobID),
		slog.String("file_path", payload.FilePath))

	updateJobStatus(ctx, p.cache, p.logger, payload.JobID, func(s *ImportJobStatus) {
		s.Status = JobRunning
	})

	lines, err := p.extractLines(ctx, payload.FilePath)
	if err != nil {
		p.failJob(ctx, payload.JobID, err)
		return err
	}

	entries := p.parsePriceLines(lines)

	var updated, unknown int
	for sku, cost := range entries {
		product, err := p.products.FindBySKU(ctx, sku)
		if err != nil {
			unknown++
			continue
		}

		product.Cost = cost
		if err := p.products.Update(ctx, product, nil); err != nil {
			p.failJob(ctx, payload.JobID, err)
			return fmt.Errorf("failed to update cost for %s: %w", sku, err)
		}
		updated++
	}

	_ = os.Remove(payload.FilePath)

	updateJobStatus(ctx, p.cache, p.logger, payload.JobID, func(s *ImportJobStatus) {
		s.Status = JobCompleted
		s.RowsTotal = len(entries)
		s.RowsOK = updated
		s.RowsFailed = unknown
		s.CompletedAt = time.Now().UTC()
	})

	p.logger.InfoContext(ctx, "price list import completed",
		slog.String("job_id", payload.JobID),
		slog.Int("updated", updated),
		slog.Int("unknown_skus", unknown))

	return nil
}

func (p *PriceListProcessor) failJob(ctx context.Context, jobID string, cause error) {
	updateJobStatus(ctx, p.cache, p.logger, jobID, func(s *ImportJobStatus) {
		s.Status = JobFailed
		s.Error = cause.Error()
		s.CompletedAt = time.Now().UTC()
	})
}

func (p *PriceListProcessor) extractLines(ctx context.Context, filePath string) ([]string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var lines []string
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to extract text from page",
				slog.Int("page", pageNum),
				slog.String("error", err.Error()))
			continue
		}

		lines = append(lines, strings.Split(text, "\n")...)
	}

	return lines, nil
}

var priceLineRe = regexp.MustCompile(`^([A-Z0-9][A-Z0-9._-]{1,62})\s+.*?\$?\s*(\d{1,3}(?:,\d{3})*\.\d{2})\s*$`)

// parsePriceLines keeps the last price seen per SKU, so a corrected
// line later in the document wins.
func (p *PriceListProcessor) parsePriceLines(lines []string) map[string]decimal.Decimal {
	entries := make(map[string]decimal.Decimal)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := priceLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		cost, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
		if err != nil {
			continue
		}
		entries[m[1]] = cost
	}

	return entries
}
