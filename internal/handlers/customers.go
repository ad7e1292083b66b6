// internal/handlers/customers.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// CustomerHandler handles customer HTTP requests
type CustomerHandler struct {
	service ports.CustomerService
	logger  *slog.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(service ports.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "customers")),
	}
}

// CreateCustomer handles POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer := req.ToDomain()

	if err := h.service.Save(ctx, customer); err != nil {
		h.logger.ErrorContext(ctx, "failed to create customer",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to create customer")
		return
	}

	respondJSON(w, http.StatusCreated, customer)
}

// GetCustomer handles GET /api/v1/customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	customer, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get customer",
			slog.String("customer_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to retrieve customer")
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

// ListCustomers handles GET /api/v1/customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.CustomerListParams{
		Search: r.URL.Query().Get("search"),
	}
	params.Page, params.PageSize = parsePagination(r)

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list customers",
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to list customers")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// UpdateCustomer handles PUT /api/v1/customers/{id}
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer := req.ToDomain()

	if err := h.service.Update(ctx, id, customer); err != nil {
		h.logger.ErrorContext(ctx, "failed to update customer",
			slog.String("customer_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to update customer")
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/{id}. Past orders
// keep their order history; their customer reference is nulled by the
// schema.
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete customer",
			slog.String("customer_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, err, "Failed to delete customer")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"customer_id": idStr,
		"message":     "Customer deleted",
	})
}

// CustomerRequest represents the request body for creating or updating
// a customer
type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Validate validates the customer request
func (r *CustomerRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// ToDomain converts the request to a domain model
func (r *CustomerRequest) ToDomain() *domain.Customer {
	return &domain.Customer{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		City:    r.City,
		Country: r.Country,
	}
}
