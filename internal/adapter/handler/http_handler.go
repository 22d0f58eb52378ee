package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/deliverly/order-api/internal/core/domain"
	"github.com/deliverly/order-api/internal/core/service"
	"github.com/deliverly/order-api/internal/port"
)

// OrderAPI is the slice of the orchestrator the HTTP layer needs.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.PlacementResult, error)
	GetAllOrders(ctx context.Context) ([]domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrdersByCustomer(ctx context.Context, customerID int) ([]domain.Order, error)
	SearchOrders(ctx context.Context, q port.OrderQuery) ([]domain.Order, error)
}

type HTTPHandler struct {
	orders   OrderAPI
	validate *validatorv10.Validate
}

func NewHTTPHandler(orders OrderAPI) *HTTPHandler {
	return &HTTPHandler{
		orders:   orders,
		validate: newValidator(),
	}
}

// RegisterRoutes wires the order API onto the router. metricsHandler
// may be nil when no scrape endpoint is wanted.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, metricsHandler http.Handler) {
	r.GET("/health", h.HealthCheck)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api/orders")
	api.POST("", h.PlaceOrder)
	api.GET("", h.GetAllOrders)
	api.GET("/search", h.SearchOrders)
	api.GET("/:id", h.GetOrderByID)
}

func (h *HTTPHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderHTTPRequest
	if err := bindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	items := make([]domain.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}

	result, err := h.orders.PlaceOrder(c.Request.Context(), service.PlaceOrderRequest{
		RequestID:  c.GetHeader("Idempotency-Key"),
		CustomerID: req.CustomerID,
		Address:    req.Address,
		Items:      items,
	})
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		switch {
		case errors.Is(err, service.ErrInvalidOrder):
			status = http.StatusBadRequest
			message = err.Error()
		case errors.Is(err, service.ErrDuplicateRequest):
			status = http.StatusConflict
			message = "duplicate request"
		case errors.Is(err, service.ErrInsufficientStock):
			status = http.StatusUnprocessableEntity
			message = "insufficient stock"
		}

		c.JSON(status, APIResponse{Success: false, Error: message})
		return
	}

	c.Header("Location", "/api/orders/"+result.Order.ID)
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    result.Order,
		Message: result.Message,
	})
}

func (h *HTTPHandler) GetAllOrders(c *gin.Context) {
	orders, err := h.orders.GetAllOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: orders})
}

func (h *HTTPHandler) GetOrderByID(c *gin.Context) {
	order, err := h.orders.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: order})
}

func (h *HTTPHandler) SearchOrders(c *gin.Context) {
	q, err := parseOrderQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}

	orders, err := h.orders.SearchOrders(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: orders})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseOrderQuery(c *gin.Context) (port.OrderQuery, error) {
	var q port.OrderQuery

	if v := c.Query("customerId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return q, errors.New("customerId must be a positive integer")
		}
		q.CustomerID = id
	}
	if v := c.Query("status"); v != "" {
		status := domain.OrderStatus(v)
		if !status.IsValid() {
			return q, errors.New("unknown status: " + v)
		}
		q.Status = status
	}
	q.AddressContains = c.Query("address")

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errors.New("from must be RFC3339")
		}
		q.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errors.New("to must be RFC3339")
		}
		q.To = t
	}
	if v := c.Query("minAmount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return q, errors.New("minAmount must be a non-negative number")
		}
		q.MinAmount = f
	}
	if v := c.Query("maxAmount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return q, errors.New("maxAmount must be a non-negative number")
		}
		q.MaxAmount = f
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, errors.New("limit must be a non-negative integer")
		}
		q.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, errors.New("offset must be a non-negative integer")
		}
		q.Offset = n
	}

	return q, nil
}
