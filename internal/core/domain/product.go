// internal/core/domain/product.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle state of a product
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

// StockStatus tags a product's current stock position relative to its
// reorder threshold
type StockStatus string

const (
	StockOut StockStatus = "out_of_stock"
	StockLow StockStatus = "low_stock"
	StockOK  StockStatus = "in_stock"
)

// Product represents a sellable catalog item. StockQuantity is the
// authoritative live counter; every change to it is mirrored by a
// LedgerEntry so the two can be reconciled at any time.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Cost          decimal.Decimal `json:"cost"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	Status        ProductStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate performs domain validation on the product
func (p *Product) Validate() error {
	if p.SKU == "" {
		return &ValidationError{Field: "sku", Reason: "sku is required"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if p.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "price cannot be negative"}
	}
	if p.Cost.IsNegative() {
		return &ValidationError{Field: "cost", Reason: "cost cannot be negative"}
	}
	if p.StockQuantity < 0 {
		return &ValidationError{Field: "stock_quantity", Reason: "stock quantity cannot be negative"}
	}
	if p.MinStockLevel < 0 {
		return &ValidationError{Field: "min_stock_level", Reason: "min stock level cannot be negative"}
	}
	if p.Status == "" {
		p.Status = ProductActive
	}
	return nil
}

// PrepareForStorage assigns identity and timestamps before persistence
func (p *Product) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// StockStatus classifies the current stock level against the reorder
// threshold
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.StockQuantity <= 0:
		return StockOut
	case p.StockQuantity <= p.MinStockLevel:
		return StockLow
	default:
		return StockOK
	}
}

// IsLowStock reports whether the product sits at or below its reorder
// threshold
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// InventoryValue returns price times quantity on hand
func (p *Product) InventoryValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}
