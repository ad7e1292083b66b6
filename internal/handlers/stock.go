// internal/handlers/stock.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/ports"
)

// StockHandler handles stock adjustment and ledger HTTP requests
type StockHandler struct {
	service ports.StockService
	logger  *slog.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(service ports.StockService, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "stock")),
	}
}

// AdjustStock handles POST /api/v1/stock/adjustments
func (h *StockHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Adjust(ctx, ports.AdjustStockParams{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Direction: ports.AdjustDirection(req.Direction),
		Note:      req.Note,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to adjust stock",
			slog.String("product_id", req.ProductID.String()),
			slog.String("direction", req.Direction),
			slog.Int("quantity", req.Quantity),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to adjust stock")
		return
	}

	h.logger.InfoContext(ctx, "stock adjusted",
		slog.String("product_id", req.ProductID.String()),
		slog.String("direction", req.Direction),
		slog.Int("quantity", req.Quantity),
		slog.Int("new_stock", result.NewStock))

	respondJSON(w, http.StatusOK, result)
}

// GetStockHistory handles GET /api/v1/stock/transactions
func (h *StockHandler) GetStockHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.LedgerListParams{}
	params.Page, params.PageSize = parsePagination(r)

	if p := r.URL.Query().Get("product_id"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID format")
			return
		}
		params.ProductID = &id
	}
	params.Type = r.URL.Query().Get("type")
	if from := r.URL.Query().Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			params.From = &t
		}
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			t = t.Add(24*time.Hour - time.Nanosecond)
			params.To = &t
		}
	}

	result, err := h.service.History(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load stock history",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to load stock history")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetStockLevels handles GET /api/v1/stock/levels
func (h *StockHandler) GetStockLevels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lowOnly := r.URL.Query().Get("low") == "true"

	levels, err := h.service.Levels(ctx, lowOnly)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load stock levels",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to load stock levels")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"levels": levels,
		"count":  len(levels),
	})
}

// GetStockSummary handles GET /api/v1/stock/summary
func (h *StockHandler) GetStockSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load stock summary",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to load stock summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// AdjustStockRequest represents the request body for a manual stock
// adjustment. Quantity is an unsigned magnitude; direction carries the
// sign.
type AdjustStockRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Direction string    `json:"direction"`
	Note      string    `json:"note,omitempty"`
}

// Validate validates the adjustment request
func (r *AdjustStockRequest) Validate() error {
	if r.ProductID == uuid.Nil {
		return fmt.Errorf("product_id is required")
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if r.Direction != string(ports.AdjustIn) && r.Direction != string(ports.AdjustOut) {
		return fmt.Errorf("direction must be %q or %q", ports.AdjustIn, ports.AdjustOut)
	}
	return nil
}
