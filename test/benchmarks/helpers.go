// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeops/backoffice-be/internal/core/domain"
	"github.com/storeops/backoffice-be/internal/core/ports"
)

// benchmarkProducts builds n active products with effectively unlimited
// stock so order-creation benchmarks never run the counters dry.
func benchmarkProducts(n int) []domain.Product {
	products := make([]domain.Product, n)
	for i := 0; i < n; i++ {
		products[i] = domain.Product{
			ID:            uuid.New(),
			SKU:           fmt.Sprintf("BENCH-%05d", i+1),
			Name:          fmt.Sprintf("Benchmark Product %d", i+1),
			Price:         decimal.NewFromInt(int64(10 + i%90)),
			Cost:          decimal.NewFromInt(int64(4 + i%40)),
			StockQuantity: 1 << 30,
			MinStockLevel: 0,
			Status:        domain.ProductActive,
		}
	}
	return products
}

// orderParamsFor builds a catalog-priced order request covering the
// given products, one line item each.
func orderParamsFor(products []domain.Product, quantity int) ports.CreateOrderParams {
	items := make([]ports.CreateOrderItem, len(products))
	for i := range products {
		items[i] = ports.CreateOrderItem{
			ProductID: products[i].ID,
			Quantity:  quantity,
		}
	}
	return ports.CreateOrderParams{
		Items:         items,
		PaymentMethod: "card",
	}
}

// benchmarkOrder builds an in-memory order with the given number of
// line items, totals computed.
func benchmarkOrder(numItems int) *domain.Order {
	order := &domain.Order{
		ID:            uuid.New(),
		OrderNumber:   domain.NewOrderNumber(time.Now()),
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
		Items:         make([]domain.OrderItem, numItems),
	}
	for i := range order.Items {
		order.Items[i] = domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: uuid.New(),
			Quantity:  1 + i%5,
			UnitPrice: decimal.NewFromFloat(19.99),
		}
	}
	order.ComputeTotals()
	return order
}
