// internal/adapters/db/customer_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// customerRepository implements ports.CustomerRepository
type customerRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *Database, logger *slog.Logger) ports.CustomerRepository {
	return &customerRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "customer")),
	}
}

const customerColumns = `
	id, name, email, phone, address, city, country, created_at, updated_at`

// Save creates a new customer
func (r *customerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		customer.ID, customer.Name,
		nullString(customer.Email), nullString(customer.Phone),
		nullString(customer.Address), nullString(customer.City), nullString(customer.Country),
		customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: email %s", domain.ErrDuplicate, customer.Email)
		}
		return fmt.Errorf("failed to save customer: %w", TranslateError(err))
	}

	r.logger.DebugContext(ctx, "customer saved",
		slog.String("id", customer.ID.String()))

	return nil
}

// Update updates an existing customer
func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers SET
			name = $2, email = $3, phone = $4,
			address = $5, city = $6, country = $7, updated_at = $8
		WHERE id = $1`

	customer.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query,
		customer.ID, customer.Name,
		nullString(customer.Email), nullString(customer.Phone),
		nullString(customer.Address), nullString(customer.City), nullString(customer.Country),
		customer.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: email %s", domain.ErrDuplicate, customer.Email)
		}
		return fmt.Errorf("failed to update customer: %w", TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "customer", ID: customer.ID.String()}
	}

	return nil
}

// FindByID retrieves a customer by ID
func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &domain.NotFoundError{Resource: "customer", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to find customer: %w", TranslateError(err))
	}

	return customer, nil
}

// FindAll retrieves customers with search and pagination
func (r *customerRepository) FindAll(ctx context.Context, params ports.CustomerListParams) ([]*domain.Customer, int64, error) {
	filter := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.Search != "" {
			qb = qb.Where("(name ILIKE '%' || ? || '%' OR email ILIKE '%' || ? || '%')",
				params.Search, params.Search)
		}
		return qb
	}

	countSQL, countArgs, err := filter(squirrel.Select("COUNT(*)").
		From("customers").
		PlaceholderFormat(squirrel.Dollar)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", TranslateError(err))
	}

	qb := filter(squirrel.Select(
		"id", "name", "email", "phone", "address", "city", "country",
		"created_at", "updated_at",
	).From("customers").
		PlaceholderFormat(squirrel.Dollar)).
		OrderBy("name ASC")

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
		return nil, 0, fmt.Errorf("failed to query customers: %w", TranslateError(err))
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return customers, totalCount, nil
}

// Delete removes a customer. Order history survives because orders
// keep a nullable customer reference.
func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "customer", ID: id.String()}
	}

	r.logger.InfoContext(ctx, "customer deleted",
		slog.String("id", id.String()))

	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	customer := &domain.Customer{}
	var email, phone, address, city, country sql.NullString

	err := row.Scan(
		&customer.ID, &customer.Name, &email, &phone,
		&address, &city, &country,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	customer.Email = email.String
	customer.Phone = phone.String
	customer.Address = address.String
	customer.City = city.String
	customer.Country = country.String
	return customer, nil
}
