// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/storeops/backoffice-be/internal/adapters/redis_adapter"
	"github.com/storeops/backoffice-be/internal/adapters/storage"
	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// exportPageSize is the page size used when draining paginated listings
// into an export file.
const exportPageSize = 200

// ExportHandler produces downloadable snapshots of the catalog and the
// order book. The storage client is optional; when configured, exports
// can be archived to S3 and served as presigned links.
type ExportHandler struct {
	products ports.ProductService
	orders   ports.OrderService
	cache    ports.CacheRepository
	storage  storage.StorageClient
	logger   *slog.Logger
}

// NewExportHandler creates a new export handler. storageClient may be
// nil when no bucket is configured.
func NewExportHandler(
	products ports.ProductService,
	orders ports.OrderService,
	cache ports.CacheRepository,
	storageClient storage.StorageClient,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		products: products,
		orders:   orders,
		cache:    cache,
		storage:  storageClient,
		logger:   logger.With(slog.String("handler", "export")),
	}
}

// ExportProducts handles GET /api/v1/export/products
//
// Produces an xlsx snapshot of the full catalog. With archive=true and
// S3 configured, the file is uploaded and a presigned URL returned
// instead of the file body.
func (h *ExportHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.collectProducts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to collect products for export",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to retrieve products")
		return
	}

	excelData, err := h.generateProductWorkbook(products)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate workbook",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate export file")
		return
	}

	filename := fmt.Sprintf("products_export_%s.xlsx", time.Now().Format("20060102_150405"))

	if r.URL.Query().Get("archive") == "true" {
		h.archiveAndRespond(ctx, w, filename, excelData)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(excelData)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(excelData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "product export completed",
		slog.Int("total_rows", len(products)),
		slog.String("filename", filename))
}

// ExportOrders handles GET /api/v1/export/orders
//
// Produces a JSON snapshot of orders, optionally filtered by date
// range. Responses are cached briefly since exports tend to be pulled
// repeatedly by reporting tools.
func (h *ExportHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseOrderExportParams(r)

	cacheKey := redis_a.BuildKey(redis_a.PrefixExport, "orders", h.cacheKeyFromParams(params))
	var cachedData []byte
	if err := h.cache.Get(ctx, cacheKey, &cachedData); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Header().Set("Content-Length", strconv.Itoa(len(cachedData)))
		if _, err := w.Write(cachedData); err != nil {
			h.logger.ErrorContext(ctx, "failed to write cached export",
				slog.String("error", err.Error()))
		}
		return
	}

	orders, err := h.collectOrders(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to collect orders for export",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to retrieve orders")
		return
	}

	response := OrderExportResponse{
		Orders: orders,
		Metadata: ExportMetadata{
			ExportDate: time.Now().UTC(),
			TotalItems: len(orders),
			DateFrom:   params.From,
			DateTo:     params.To,
		},
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal export",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("Content-Length", strconv.Itoa(len(responseData)))

	if _, err := w.Write(responseData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response",
			slog.String("error", err.Error()))
		return
	}

	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := h.cache.SetWithTTL(cacheCtx, cacheKey, responseData, 5*time.Minute); err != nil {
			h.logger.WarnContext(cacheCtx, "failed to cache export",
				slog.String("error", err.Error()))
		}
	}()

	h.logger.InfoContext(ctx, "order export completed",
		slog.Int("total_rows", len(orders)))
}

// collectProducts drains the paginated product listing into one slice
func (h *ExportHandler) collectProducts(ctx context.Context) ([]*domain.Product, error) {
	var all []*domain.Product

	params := ports.ProductListParams{
		SortBy:    "sku",
		SortOrder: "asc",
		Page:      1,
		PageSize:  exportPageSize,
	}

	for {
		result, err := h.products.List(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Products...)
		if params.Page >= result.TotalPages || len(result.Products) == 0 {
			break
		}
		params.Page++
	}

	return all, nil
}

func (h *ExportHandler) collectOrders(ctx context.Context, params ports.OrderListParams) ([]*domain.Order, error) {
	var all []*domain.Order

	params.Page = 1
	params.PageSize = exportPageSize
	params.SortBy = "created_at"
	params.SortOrder = "desc"

	for {
		result, err := h.orders.List(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Orders...)
		if params.Page >= result.TotalPages || len(result.Orders) == 0 {
			break
		}
		params.Page++
	}

	return all, nil
}

func (h *ExportHandler) generateProductWorkbook(products []*domain.Product) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"SKU", "Name", "Description", "Price", "Cost",
		"Stock Quantity", "Min Stock Level", "Status",
		"Stock Status", "Inventory Value", "Created At", "Updated At",
	}

	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, p := range products {
		row := sheet.AddRow()
		for _, value := range []string{
			p.SKU,
			p.Name,
			p.Description,
			p.Price.StringFixed(2),
			p.Cost.StringFixed(2),
			strconv.Itoa(p.StockQuantity),
			strconv.Itoa(p.MinStockLevel),
			string(p.Status),
			string(p.StockStatus()),
			p.InventoryValue().StringFixed(2),
			p.CreatedAt.Format("2006-01-02 15:04:05"),
			p.UpdatedAt.Format("2006-01-02 15:04:05"),
		} {
			row.AddCell().Value = value
		}
	}

	for i := range headers {
		sheet.SetColWidth(i, i, 18)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buffer.Bytes(), nil
}

// archiveAndRespond uploads the export to object storage and returns a
// time-limited download link.
func (h *ExportHandler) archiveAndRespond(ctx context.Context, w http.ResponseWriter, filename string, data []byte) {
	if h.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "Export archival is not configured")
		return
	}

	key := "exports/" + filename
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	if _, err := h.storage.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		h.logger.ErrorContext(ctx, "failed to archive export",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to archive export")
		return
	}

	url, err := h.storage.GetPresignedURL(ctx, key, 15*time.Minute)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to presign export",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate download link")
		return
	}

	h.logger.InfoContext(ctx, "export archived",
		slog.String("key", key))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"key":          key,
		"download_url": url,
		"expires_in":   "15m",
	})
}

func (h *ExportHandler) parseOrderExportParams(r *http.Request) ports.OrderListParams {
	q := r.URL.Query()
	params := ports.OrderListParams{
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
	}

	if from := q.Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			params.From = &t
		}
	}
	if to := q.Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			inclusive := t.Add(24*time.Hour - time.Nanosecond)
			params.To = &inclusive
		}
	}

	return params
}

func (h *ExportHandler) cacheKeyFromParams(params ports.OrderListParams) string {
	key := "all"
	if params.Status != "" {
		key = params.Status
	}
	if params.PaymentStatus != "" {
		key += "_pay_" + params.PaymentStatus
	}
	if params.From != nil {
		key += "_from_" + params.From.Format("20060102")
	}
	if params.To != nil {
		key += "_to_" + params.To.Format("20060102")
	}
	return key
}

// OrderExportResponse is the JSON export envelope
type OrderExportResponse struct {
	Orders   []*domain.Order `json:"orders"`
	Metadata ExportMetadata  `json:"metadata"`
}

// ExportMetadata describes when and how an export was produced
type ExportMetadata struct {
	ExportDate time.Time  `json:"export_date"`
	TotalItems int        `json:"total_items"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
}
