package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/deliverly/order-api/internal/core/domain"
	"github.com/deliverly/order-api/internal/core/service"
	"github.com/deliverly/order-api/internal/port"
)

type stubOrderAPI struct {
	placeResult *service.PlacementResult
	placeErr    error
	placeReq    service.PlaceOrderRequest

	orders   []domain.Order
	byID     *domain.Order
	byIDErr  error
	searched port.OrderQuery
}

func (s *stubOrderAPI) PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.PlacementResult, error) {
	s.placeReq = req
	return s.placeResult, s.placeErr
}

func (s *stubOrderAPI) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders, nil
}

func (s *stubOrderAPI) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.byID, s.byIDErr
}

func (s *stubOrderAPI) GetOrdersByCustomer(ctx context.Context, customerID int) ([]domain.Order, error) {
	return s.orders, nil
}

func (s *stubOrderAPI) SearchOrders(ctx context.Context, q port.OrderQuery) ([]domain.Order, error) {
	s.searched = q
	return s.orders, nil
}

func setupRouter(api OrderAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHTTPHandler(api).RegisterRoutes(r, nil)
	return r
}

const validPayload = `{
	"customerId": 1,
	"address": "Test",
	"items": [
		{"productId": 1, "productName": "Pizza", "quantity": 2, "price": 29.99},
		{"productId": 2, "productName": "Cola", "quantity": 1, "price": 15.50}
	]
}`

func TestPlaceOrder_Created(t *testing.T) {
	stub := &stubOrderAPI{
		placeResult: &service.PlacementResult{
			Order: &domain.Order{
				ID:          "order-1",
				CustomerID:  1,
				Status:      domain.OrderStatusOutForDelivery,
				DeliveryID:  456,
				TotalAmount: 75.48,
			},
			Message: "order placed successfully",
		},
	}
	r := setupRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(validPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/api/orders/order-1" {
		t.Errorf("unexpected Location: %q", loc)
	}

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !resp.Success || resp.Message != "order placed successfully" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if stub.placeReq.RequestID != "req-1" {
		t.Errorf("idempotency key not forwarded: %q", stub.placeReq.RequestID)
	}
	if len(stub.placeReq.Items) != 2 || stub.placeReq.Items[0].Price != 29.99 {
		t.Errorf("items not mapped: %+v", stub.placeReq.Items)
	}
}

func TestPlaceOrder_BadBody(t *testing.T) {
	r := setupRouter(&stubOrderAPI{})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"customerId": "nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPlaceOrder_ValidationFailed(t *testing.T) {
	r := setupRouter(&stubOrderAPI{})

	payload := `{"customerId": 1, "address": "Test", "items": []}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient stock", service.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{"duplicate", service.ErrDuplicateRequest, http.StatusConflict},
		{"invalid", service.ErrInvalidOrder, http.StatusBadRequest},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(&stubOrderAPI{placeErr: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(validPayload))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestGetOrderByID_NotFound(t *testing.T) {
	r := setupRouter(&stubOrderAPI{byIDErr: service.ErrOrderNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetAllOrders(t *testing.T) {
	stub := &stubOrderAPI{orders: []domain.Order{{ID: "a"}, {ID: "b"}}}
	r := setupRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Success bool           `json:"success"`
		Data    []domain.Order `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 orders, got %d", len(resp.Data))
	}
}

func TestSearchOrders_QueryParsing(t *testing.T) {
	stub := &stubOrderAPI{}
	r := setupRouter(stub)

	url := "/api/orders/search?customerId=7&status=PENDING_DELIVERY&address=Alpha" +
		"&from=2026-01-01T00:00:00Z&to=2026-12-31T00:00:00Z&minAmount=10&maxAmount=99.5&limit=20&offset=40"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	q := stub.searched
	if q.CustomerID != 7 || q.Status != domain.OrderStatusPendingDelivery || q.AddressContains != "Alpha" {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.MinAmount != 10 || q.MaxAmount != 99.5 || q.Limit != 20 || q.Offset != 40 {
		t.Errorf("unexpected ranges: %+v", q)
	}
	if q.From.IsZero() || q.To.IsZero() {
		t.Error("date range not parsed")
	}
}

func TestSearchOrders_BadParams(t *testing.T) {
	r := setupRouter(&stubOrderAPI{})

	for _, url := range []string{
		"/api/orders/search?customerId=abc",
		"/api/orders/search?status=NOT_A_STATUS",
		"/api/orders/search?from=yesterday",
		"/api/orders/search?minAmount=-5",
		"/api/orders/search?limit=x",
	} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", url, w.Code)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(&stubOrderAPI{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
