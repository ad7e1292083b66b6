// internal/core/domain/ledger.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a stock movement
type TransactionType string

const (
	TxInitialStock  TransactionType = "initial_stock"
	TxSale          TransactionType = "sale"
	TxReturn        TransactionType = "return"
	TxAdjustmentIn  TransactionType = "adjustment_in"
	TxAdjustmentOut TransactionType = "adjustment_out"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TxInitialStock, TxSale, TxReturn, TxAdjustmentIn, TxAdjustmentOut:
		return true
	}
	return false
}

// LedgerEntry is an immutable audit row recording one stock-quantity
// change and its cause. Quantities are stored signed: sale and
// adjustment_out are negative, everything else positive, so a
// product's live counter always equals SUM(quantity) over its entries.
type LedgerEntry struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Type          TransactionType `json:"transaction_type"`
	Quantity      int             `json:"quantity"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SignedQuantity applies the per-type sign convention to an unsigned
// magnitude.
func SignedQuantity(t TransactionType, magnitude int) int {
	switch t {
	case TxSale, TxAdjustmentOut:
		return -magnitude
	default:
		return magnitude
	}
}

// StockLevel is one row of the stock-level report
type StockLevel struct {
	ProductID     uuid.UUID   `json:"product_id"`
	SKU           string      `json:"sku"`
	Name          string      `json:"name"`
	StockQuantity int         `json:"stock_quantity"`
	MinStockLevel int         `json:"min_stock_level"`
	Status        StockStatus `json:"status"`
}

// StockSummary aggregates the ledger and catalog for the dashboard
type StockSummary struct {
	ActiveProducts    int64           `json:"active_products"`
	InventoryValue    decimal.Decimal `json:"inventory_value"`
	LowStockCount     int64           `json:"low_stock_count"`
	OutOfStockCount   int64           `json:"out_of_stock_count"`
	TransactionsToday int64           `json:"transactions_today"`
}
