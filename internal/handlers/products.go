// internal/handlers/products.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// ProductHandler handles catalog HTTP requests
type ProductHandler struct {
	service ports.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service ports.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "products")),
	}
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := req.ToDomain()

	if err := h.service.Save(ctx, product); err != nil {
		h.logger.ErrorContext(ctx, "failed to create product",
			slog.String("sku", req.SKU),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to create product")
		return
	}

	h.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID.String()),
		slog.String("sku", product.SKU))

	respondJSON(w, http.StatusCreated, product)
}

// CreateProductBatch handles POST /api/v1/products/batch
func (h *ProductHandler) CreateProductBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqs []ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(reqs) == 0 {
		respondError(w, http.StatusBadRequest, "At least one product is required")
		return
	}

	products := make([]domain.Product, 0, len(reqs))
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("product %d: %s", i, err.Error()))
			return
		}
		products = append(products, *reqs[i].ToDomain())
	}

	if err := h.service.SaveBatch(ctx, products); err != nil {
		h.logger.ErrorContext(ctx, "failed to create product batch",
			slog.Int("count", len(products)),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to create products")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"created": len(products),
	})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get product",
			slog.String("product_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to retrieve product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := req.ToDomain()

	if err := h.service.Update(ctx, id, product, req.StockQuantity); err != nil {
		h.logger.ErrorContext(ctx, "failed to update product",
			slog.String("product_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to update product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// DeactivateProduct handles DELETE /api/v1/products/{id}. Products are
// never removed from the catalog, only retired: orders and ledger rows
// keep referencing them.
func (h *ProductHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.service.Deactivate(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to deactivate product",
			slog.String("product_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to deactivate product")
		return
	}

	h.logger.InfoContext(ctx, "product deactivated",
		slog.String("product_id", idStr))

	respondJSON(w, http.StatusOK, map[string]string{
		"product_id": idStr,
		"status":     string(domain.ProductInactive),
	})
}

// parseListParams parses query parameters for listing products
func (h *ProductHandler) parseListParams(r *http.Request) ports.ProductListParams {
	params := ports.ProductListParams{
		SortBy:    "name",
		SortOrder: "asc",
	}
	params.Page, params.PageSize = parsePagination(r)

	params.Search = r.URL.Query().Get("search")
	params.Status = r.URL.Query().Get("status")

	if c := r.URL.Query().Get("category_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			params.CategoryID = &id
		}
	}
	if s := r.URL.Query().Get("supplier_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			params.SupplierID = &id
		}
	}
	if low := r.URL.Query().Get("low_stock"); low != "" {
		if val, err := strconv.ParseBool(low); err == nil {
			params.LowStock = &val
		}
	}

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

// ProductRequest represents the request body for creating or updating
// a product. On update an omitted stock_quantity leaves the counter
// alone; a present one sets it, and the delta lands in the ledger.
type ProductRequest struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Cost          decimal.Decimal `json:"cost,omitempty"`
	StockQuantity *int            `json:"stock_quantity,omitempty"`
	MinStockLevel int             `json:"min_stock_level,omitempty"`
	Status        string          `json:"status,omitempty"`
}

// Validate validates the product request
func (r *ProductRequest) Validate() error {
	if r.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	if r.Cost.IsNegative() {
		return fmt.Errorf("cost cannot be negative")
	}
	if r.StockQuantity != nil && *r.StockQuantity < 0 {
		return fmt.Errorf("stock_quantity cannot be negative")
	}
	if r.MinStockLevel < 0 {
		return fmt.Errorf("min_stock_level cannot be negative")
	}
	if r.Status != "" && r.Status != string(domain.ProductActive) && r.Status != string(domain.ProductInactive) {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	return nil
}

// ToDomain converts the request to a domain model
func (r *ProductRequest) ToDomain() *domain.Product {
	product := &domain.Product{
		SKU:           r.SKU,
		Name:          r.Name,
		Description:   r.Description,
		CategoryID:    r.CategoryID,
		SupplierID:    r.SupplierID,
		Price:         r.Price,
		Cost:          r.Cost,
		MinStockLevel: r.MinStockLevel,
		Status:        domain.ProductStatus(r.Status),
	}
	if r.StockQuantity != nil {
		product.StockQuantity = *r.StockQuantity
	}
	if product.Status == "" {
		product.Status = domain.ProductActive
	}
	return product
}
