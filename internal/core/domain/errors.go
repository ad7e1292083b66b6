// internal/core/domain/errors.go
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the failure taxonomy. Handlers translate these
// into status codes; services guarantee that any failure inside a
// transactional operation leaves state unchanged.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderCancelled    = errors.New("order already cancelled")
	ErrTimeout           = errors.New("operation timed out")
	ErrDuplicate         = errors.New("duplicate value")
)

// ValidationError reports malformed input. It unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports an absent product/order/customer. It unwraps
// to ErrNotFound.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports a stock deduction that would drive a
// product's counter negative. It unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ClassifyTimeout maps context deadline exhaustion onto ErrTimeout so
// callers can distinguish a retryable timeout from a hard persistence
// failure. Other errors pass through unchanged.
func ClassifyTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
