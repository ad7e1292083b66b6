// internal/core/domain/order.go
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents order fulfillment states
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// PaymentStatus represents payment states
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Order represents a customer order and its monetary totals. The line
// items are created atomically with the header; stock decrements and
// sale ledger entries ride the same transaction.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"order_number"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	Status         OrderStatus     `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Items          []OrderItem     `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem is one product/quantity/price triple on an order. UnitPrice
// is a snapshot taken at the time of sale and never tracks later
// product price edits.
type OrderItem struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Validate performs domain validation on the order and its line items
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "order must have at least one item"}
	}
	for i := range o.Items {
		if o.Items[i].ProductID == uuid.Nil {
			return &ValidationError{Field: "items.product_id", Reason: "product reference is required"}
		}
		if o.Items[i].Quantity <= 0 {
			return &ValidationError{Field: "items.quantity", Reason: "quantity must be positive"}
		}
		if o.Items[i].UnitPrice.IsNegative() {
			return &ValidationError{Field: "items.unit_price", Reason: "unit price cannot be negative"}
		}
	}
	if o.TaxAmount.IsNegative() {
		return &ValidationError{Field: "tax_amount", Reason: "tax amount cannot be negative"}
	}
	if o.DiscountAmount.IsNegative() {
		return &ValidationError{Field: "discount_amount", Reason: "discount amount cannot be negative"}
	}
	if o.TotalAmount.IsNegative() {
		return &ValidationError{Field: "total_amount", Reason: "total amount cannot be negative"}
	}
	return nil
}

// ComputeTotals fills each line item's total and derives the order
// total as sum of line totals plus tax minus discount.
func (o *Order) ComputeTotals() {
	sum := decimal.Zero
	for i := range o.Items {
		o.Items[i].TotalPrice = o.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(o.Items[i].Quantity)))
		sum = sum.Add(o.Items[i].TotalPrice)
	}
	o.TotalAmount = sum.Add(o.TaxAmount).Sub(o.DiscountAmount)
}

// PrepareForStorage assigns identities and timestamps before persistence
func (o *Order) PrepareForStorage() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = OrderPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
}

// NewOrderNumber builds a human-facing order number: a date prefix plus
// a random hex suffix. Uniqueness is enforced by the database; callers
// retry with a fresh suffix on collision.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// fall back to the timestamp's own entropy
		n := now.UnixNano()
		buf[0], buf[1], buf[2] = byte(n), byte(n>>8), byte(n>>16)
	}
	return "ORD-" + now.Format("20060102") + "-" + hex.EncodeToString(buf)
}
