// internal/handlers/catalog.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// CatalogHandler handles the category and supplier lookup tables.
// These are plain CRUD with no business rules, so the handler talks to
// the repository directly.
type CatalogHandler struct {
	repo   ports.CatalogRepository
	logger *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(repo ports.CatalogRepository, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo:   repo,
		logger: logger.With(slog.String("handler", "catalog")),
	}
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.repo.FindCategories(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to list categories")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// CreateCategory handles POST /api/v1/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	category := &domain.Category{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.repo.SaveCategory(ctx, category); err != nil {
		h.logger.ErrorContext(ctx, "failed to create category",
			slog.String("name", req.Name),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to create category")
		return
	}

	respondJSON(w, http.StatusCreated, category)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if err := h.repo.DeleteCategory(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete category",
			slog.String("category_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to delete category")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"category_id": idStr,
		"message":     "Category deleted",
	})
}

// ListSuppliers handles GET /api/v1/suppliers
func (h *CatalogHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	suppliers, err := h.repo.FindSuppliers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list suppliers",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to list suppliers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"count":     len(suppliers),
	})
}

// CreateSupplier handles POST /api/v1/suppliers
func (h *CatalogHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	supplier := &domain.Supplier{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
	}

	if err := h.repo.SaveSupplier(ctx, supplier); err != nil {
		h.logger.ErrorContext(ctx, "failed to create supplier",
			slog.String("name", req.Name),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to create supplier")
		return
	}

	respondJSON(w, http.StatusCreated, supplier)
}

// DeleteSupplier handles DELETE /api/v1/suppliers/{id}
func (h *CatalogHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	if err := h.repo.DeleteSupplier(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete supplier",
			slog.String("supplier_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to delete supplier")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"supplier_id": idStr,
		"message":     "Supplier deleted",
	})
}

// CategoryRequest represents the request body for creating a category
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SupplierRequest represents the request body for creating a supplier
type SupplierRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}
