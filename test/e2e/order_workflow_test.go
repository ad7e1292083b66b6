//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/suite"

	"github.com/storeops/backoffice-be/internal/adapters/db"
	redis_a "github.com/storeops/backoffice-be/internal/adapters/redis_adapter"
	"github.com/storeops/backoffice-be/internal/core/services"
	"github.com/storeops/backoffice-be/internal/handlers"
	"github.com/storeops/backoffice-be/internal/workers"
	"github.com/storeops/backoffice-be/test/helpers"
)

type OrderWorkflowSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
}

func (s *OrderWorkflowSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *OrderWorkflowSuite) TearDownSuite() {
	s.server.Close()
}

func (s *OrderWorkflowSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
}

func (s *OrderWorkflowSuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	opTimeout := 5 * time.Second

	cache := redis_a.NewCache(s.testRedis.Client, time.Hour, logger)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: s.testRedis.Server.Addr()})
	s.T().Cleanup(func() { asynqClient.Close() })
	tasks := workers.NewTaskClient(asynqClient, logger)

	productRepo := db.NewProductRepository(s.testDB.Database, logger)
	orderRepo := db.NewOrderRepository(s.testDB.Database, logger)
	ledgerRepo := db.NewLedgerRepository(s.testDB.Database, logger)
	customerRepo := db.NewCustomerRepository(s.testDB.Database, logger)
	catalogRepo := db.NewCatalogRepository(s.testDB.Database, logger)

	productSvc := services.NewProductService(productRepo, cache, opTimeout, logger)
	orderSvc := services.NewOrderService(orderRepo, productRepo, tasks, opTimeout, logger)
	stockSvc := services.NewStockService(ledgerRepo, productRepo, cache, tasks, opTimeout, logger)
	customerSvc := services.NewCustomerService(customerRepo, opTimeout, logger)

	cfg := helpers.LoadTestConfig()

	orderHandler := handlers.NewOrderHandler(orderSvc, logger)
	productHandler := handlers.NewProductHandler(productSvc, logger)
	stockHandler := handlers.NewStockHandler(stockSvc, logger)
	customerHandler := handlers.NewCustomerHandler(customerSvc, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, logger)
	dashboardHandler := handlers.NewDashboardHandler(s.testDB.Database, stockSvc, cache, logger)
	exportHandler := handlers.NewExportHandler(productSvc, orderSvc, cache, nil, logger)
	importHandler := handlers.NewImportHandler(tasks, cache, logger, 10<<20, s.T().TempDir())
	healthHandler := handlers.NewHealthHandler(s.testDB.Database, s.testRedis.Client, nil, cfg, logger)

	const apiV1 = "/api/v1"
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Readiness)

	mux.HandleFunc("POST "+apiV1+"/orders", orderHandler.CreateOrder)
	mux.HandleFunc("GET "+apiV1+"/orders", orderHandler.ListOrders)
	mux.HandleFunc("GET "+apiV1+"/orders/{id}", orderHandler.GetOrder)
	mux.HandleFunc("POST "+apiV1+"/orders/{id}/cancel", orderHandler.CancelOrder)
	mux.HandleFunc("PATCH "+apiV1+"/orders/{id}/status", orderHandler.UpdateOrderStatus)
	mux.HandleFunc("PATCH "+apiV1+"/orders/{id}/payment", orderHandler.UpdateOrderPayment)

	mux.HandleFunc("POST "+apiV1+"/products", productHandler.CreateProduct)
	mux.HandleFunc("POST "+apiV1+"/products/batch", productHandler.CreateProductBatch)
	mux.HandleFunc("GET "+apiV1+"/products", productHandler.ListProducts)
	mux.HandleFunc("GET "+apiV1+"/products/{id}", productHandler.GetProduct)
	mux.HandleFunc("PUT "+apiV1+"/products/{id}", productHandler.UpdateProduct)
	mux.HandleFunc("DELETE "+apiV1+"/products/{id}", productHandler.DeactivateProduct)

	mux.HandleFunc("POST "+apiV1+"/stock/adjustments", stockHandler.AdjustStock)
	mux.HandleFunc("GET "+apiV1+"/stock/transactions", stockHandler.GetStockHistory)
	mux.HandleFunc("GET "+apiV1+"/stock/levels", stockHandler.GetStockLevels)
	mux.HandleFunc("GET "+apiV1+"/stock/summary", stockHandler.GetStockSummary)

	mux.HandleFunc("POST "+apiV1+"/customers", customerHandler.CreateCustomer)
	mux.HandleFunc("GET "+apiV1+"/customers", customerHandler.ListCustomers)
	mux.HandleFunc("GET "+apiV1+"/customers/{id}", customerHandler.GetCustomer)
	mux.HandleFunc("PUT "+apiV1+"/customers/{id}", customerHandler.UpdateCustomer)
	mux.HandleFunc("DELETE "+apiV1+"/customers/{id}", customerHandler.DeleteCustomer)

	mux.HandleFunc("GET "+apiV1+"/categories", catalogHandler.ListCategories)
	mux.HandleFunc("POST "+apiV1+"/categories", catalogHandler.CreateCategory)
	mux.HandleFunc("GET "+apiV1+"/dashboard", dashboardHandler.GetDashboard)
	mux.HandleFunc("GET "+apiV1+"/export/products", exportHandler.ExportProducts)
	mux.HandleFunc("POST "+apiV1+"/import/catalog", importHandler.ImportCatalog)
	mux.HandleFunc("GET "+apiV1+"/import/status/{jobId}", importHandler.ImportStatus)

	return httptest.NewServer(mux)
}

func (s *OrderWorkflowSuite) TestCompleteOrderWorkflow() {
	// 1. Stock the catalog
	batch := map[string]interface{}{
		"products": []map[string]interface{}{
			{"sku": "E2E-WIDGET", "name": "E2E Widget", "price": 19.99, "cost": 8.50, "stock_quantity": 20, "min_stock_level": 5},
			{"sku": "E2E-GADGET", "name": "E2E Gadget", "price": 5.00, "cost": 2.00, "stock_quantity": 50, "min_stock_level": 10},
		},
	}
	resp := s.makeRequest("POST", "/products/batch", batch)
	s.Equal(http.StatusCreated, resp.StatusCode)
	s.drain(resp)

	widgetID := s.findProductID("E2E-WIDGET")
	gadgetID := s.findProductID("E2E-GADGET")

	// 2. Place an order; the widget line is priced from the catalog
	orderReq := map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": widgetID, "quantity": 3},
			{"product_id": gadgetID, "quantity": 2, "unit_price": 5.00},
		},
	}
	resp = s.makeRequest("POST", "/orders", orderReq)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var order map[string]interface{}
	s.decodeResponse(resp, &order)
	orderID := order["id"].(string)
	s.NotEmpty(order["order_number"])
	s.Equal("pending", order["status"])
	s.Equal("69.97", fmt.Sprintf("%v", order["total_amount"]))

	// 3. Stock came down and the sale is on the ledger
	s.Equal(17, s.stockQuantity(widgetID))

	resp = s.makeRequest("GET", "/stock/transactions?product_id="+widgetID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var history map[string]interface{}
	s.decodeResponse(resp, &history)
	s.Equal(float64(1), history["total_count"])

	// 4. A manual outbound adjustment
	adjustReq := map[string]interface{}{
		"product_id": widgetID, "quantity": 12, "direction": "out", "note": "damaged in transit",
	}
	resp = s.makeRequest("POST", "/stock/adjustments", adjustReq)
	s.Equal(http.StatusOK, resp.StatusCode)
	var adjustment map[string]interface{}
	s.decodeResponse(resp, &adjustment)
	s.Equal(float64(5), adjustment["new_stock"])

	// 5. The widget now shows up in the low stock report
	resp = s.makeRequest("GET", "/stock/levels?low=true", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var levels map[string]interface{}
	s.decodeResponse(resp, &levels)
	s.GreaterOrEqual(len(levels["levels"].([]interface{})), 1)

	// 6. Summary and dashboard respond
	resp = s.makeRequest("GET", "/stock/summary", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.drain(resp)

	resp = s.makeRequest("GET", "/dashboard", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var dashboard map[string]interface{}
	s.decodeResponse(resp, &dashboard)
	s.Contains(dashboard, "summary")
	s.Contains(dashboard, "sales")

	// 7. Cancel the order; stock is restored
	resp = s.makeRequest("POST", fmt.Sprintf("/orders/%s/cancel", orderID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.drain(resp)
	s.Equal(8, s.stockQuantity(widgetID)) // 17 restored +3, minus the adjustment of 12

	// 8. A second cancel is a conflict
	resp = s.makeRequest("POST", fmt.Sprintf("/orders/%s/cancel", orderID), nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.drain(resp)

	// 9. Export the catalog as a spreadsheet
	resp = s.makeRequest("GET", "/export/products", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	s.drain(resp)
}

func (s *OrderWorkflowSuite) TestOrderRejectedWhenStockIsShort() {
	resp := s.makeRequest("POST", "/products", map[string]interface{}{
		"sku": "SCARCE-1", "name": "Scarce Item", "price": 10.00, "stock_quantity": 2,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	s.drain(resp)
	productID := s.findProductID("SCARCE-1")

	resp = s.makeRequest("POST", "/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": productID, "quantity": 3},
		},
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.drain(resp)

	// Nothing moved
	s.Equal(2, s.stockQuantity(productID))
}

func (s *OrderWorkflowSuite) TestCustomerLifecycle() {
	resp := s.makeRequest("POST", "/customers", map[string]interface{}{
		"name": "Joan Holloway", "email": "joan@example.com", "city": "New York",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	s.decodeResponse(resp, &created)
	customerID := created["id"].(string)

	resp = s.makeRequest("PUT", "/customers/"+customerID, map[string]interface{}{
		"name": "Joan Harris", "email": "joan@example.com",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.drain(resp)

	resp = s.makeRequest("GET", "/customers/"+customerID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var fetched map[string]interface{}
	s.decodeResponse(resp, &fetched)
	s.Equal("Joan Harris", fetched["name"])

	resp = s.makeRequest("DELETE", "/customers/"+customerID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.drain(resp)

	resp = s.makeRequest("GET", "/customers/"+customerID, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.drain(resp)
}

func (s *OrderWorkflowSuite) TestCatalogImportQueuesJob() {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="catalog.xlsx"`)
	header.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	part, err := writer.CreatePart(header)
	s.NoError(err)
	_, err = io.Copy(part, bytes.NewReader([]byte("PK\x03\x04 not a real sheet but enough to upload")))
	s.NoError(err)
	s.NoError(writer.Close())

	req, err := http.NewRequest("POST", s.baseURL+"/import/catalog", body)
	s.NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	s.NoError(err)
	s.Equal(http.StatusAccepted, resp.StatusCode)

	var accepted map[string]interface{}
	s.decodeResponse(resp, &accepted)
	jobID := accepted["job_id"].(string)
	s.NotEmpty(jobID)

	// The job record is immediately readable
	resp = s.makeRequest("GET", "/import/status/"+jobID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var status map[string]interface{}
	s.decodeResponse(resp, &status)
	s.Equal("queued", status["status"])
}

func (s *OrderWorkflowSuite) TestHealthCheck() {
	resp, err := s.client.Get(s.server.URL + "/health")
	s.NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	s.decodeResponse(resp, &health)
	s.Equal("healthy", health["status"])

	services := health["services"].(map[string]interface{})
	s.Contains(services, "database")
	s.Contains(services, "redis")
}

// Helper methods

func (s *OrderWorkflowSuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.NoError(err)
	return resp
}

func (s *OrderWorkflowSuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func (s *OrderWorkflowSuite) drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (s *OrderWorkflowSuite) findProductID(sku string) string {
	resp := s.makeRequest("GET", "/products?search="+sku, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var list map[string]interface{}
	s.decodeResponse(resp, &list)
	products := list["products"].([]interface{})
	s.Require().NotEmpty(products)
	return products[0].(map[string]interface{})["id"].(string)
}

func (s *OrderWorkflowSuite) stockQuantity(productID string) int {
	resp := s.makeRequest("GET", "/products/"+productID, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var product map[string]interface{}
	s.decodeResponse(resp, &product)
	return int(product["stock_quantity"].(float64))
}

func TestOrderWorkflowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(OrderWorkflowSuite))
}
