// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// catalogRepository implements ports.CatalogRepository
type catalogRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCatalogRepository creates a repository for categories and suppliers
func NewCatalogRepository(db *Database, logger *slog.Logger) ports.CatalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "catalog")),
	}
}

// SaveCategory creates a new category
func (r *catalogRepository) SaveCategory(ctx context.Context, category *domain.Category) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO categories (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, nullString(category.Description), category.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: category %s", domain.ErrDuplicate, category.Name)
		}
		return fmt.Errorf("failed to save category: %w", TranslateError(err))
	}

	return nil
}

// FindCategories lists all categories
func (r *catalogRepository) FindCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, created_at
		FROM categories
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", TranslateError(err))
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category := &domain.Category{}
		var description sql.NullString
		if err := rows.Scan(&category.ID, &category.Name, &description, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		category.Description = description.String
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return categories, nil
}

// DeleteCategory removes a category. Products keep a nullable category
// reference, so deletion detaches rather than cascades.
func (r *catalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "category", ID: id.String()}
	}

	r.logger.InfoContext(ctx, "category deleted", slog.String("id", id.String()))
	return nil
}

// SaveSupplier creates a new supplier
func (r *catalogRepository) SaveSupplier(ctx context.Context, supplier *domain.Supplier) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO suppliers (id, name, contact_name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		supplier.ID, supplier.Name,
		nullString(supplier.ContactName), nullString(supplier.Email), nullString(supplier.Phone),
		supplier.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: supplier %s", domain.ErrDuplicate, supplier.Name)
		}
		return fmt.Errorf("failed to save supplier: %w", TranslateError(err))
	}

	return nil
}

// FindSuppliers lists all suppliers
func (r *catalogRepository) FindSuppliers(ctx context.Context) ([]*domain.Supplier, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, contact_name, email, phone, created_at
		FROM suppliers
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", TranslateError(err))
	}
	defer rows.Close()

	var suppliers []*domain.Supplier
	for rows.Next() {
		supplier := &domain.Supplier{}
		var contactName, email, phone sql.NullString
		err := rows.Scan(&supplier.ID, &supplier.Name, &contactName, &email, &phone, &supplier.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		supplier.ContactName = contactName.String
		supplier.Email = email.String
		supplier.Phone = phone.String
		suppliers = append(suppliers, supplier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return suppliers, nil
}

// DeleteSupplier removes a supplier
func (r *catalogRepository) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "supplier", ID: id.String()}
	}

	r.logger.InfoContext(ctx, "supplier deleted", slog.String("id", id.String()))
	return nil
}
