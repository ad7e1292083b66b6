// internal/core/services/customers.go
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// CustomerService handles the customer book
type CustomerService struct {
	customers ports.CustomerRepository
	logger    *slog.Logger
	opTimeout time.Duration
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customers ports.CustomerRepository,
	opTimeout time.Duration,
	logger *slog.Logger,
) *CustomerService {
	return &CustomerService{
		customers: customers,
		logger:    logger.With(slog.String("service", "customer")),
		opTimeout: opTimeout,
	}
}

// Save validates and creates a new customer
func (s *CustomerService) Save(ctx context.Context, customer *domain.Customer) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	customer.PrepareForStorage()

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.customers.Save(opCtx, customer); err != nil {
		return domain.ClassifyTimeout(err)
	}
	return nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	customer, err := s.customers.FindByID(opCtx, id)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}
	return customer, nil
}

// Update updates an existing customer
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, customer *domain.Customer) error {
	customer.ID = id
	if err := customer.Validate(); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.customers.Update(opCtx, customer); err != nil {
		return domain.ClassifyTimeout(err)
	}
	return nil
}

// Delete removes a customer. Past orders keep their history; the
// order rows only lose the customer reference.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.customers.Delete(opCtx, id); err != nil {
		return domain.ClassifyTimeout(err)
	}
	return nil
}

// List retrieves a page of customers
func (s *CustomerService) List(ctx context.Context, params ports.CustomerListParams) (*ports.CustomerListResult, error) {
	normalizePage(&params.Page, &params.PageSize)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	customers, total, err := s.customers.FindAll(opCtx, params)
	if err != nil {
		return nil, domain.ClassifyTimeout(err)
	}

	return &ports.CustomerListResult{
		Customers:  customers,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: totalPages(total, params.PageSize),
	}, nil
}
