package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deliverly/order-api/internal/core/domain"
	"github.com/deliverly/order-api/internal/metrics"
	"github.com/deliverly/order-api/internal/port"
)

var (
	ErrInvalidOrder      = errors.New("invalid order request")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrOrderNotFound     = errors.New("order not found")
)

// Placement result messages returned alongside the persisted order.
const (
	msgPlaced          = "order placed successfully"
	msgPendingDelivery = "order accepted, delivery will be retried"
	msgStockError      = "order accepted, stock reconciliation pending"
)

// PlaceOrderRequest is the orchestrator's input. RequestID is an
// optional client-supplied idempotency key.
type PlaceOrderRequest struct {
	RequestID  string
	CustomerID int
	Address    string
	Items      []domain.OrderLine
}

// PlacementResult carries the persisted order and a human-readable
// outcome message. The order is always persisted when a result is
// returned; the message may carry a caveat.
type PlacementResult struct {
	Order   *domain.Order
	Message string
}

// Config groups the orchestrator's collaborators. Orders, Stock and
// Delivery are required; Cache, Events, Metrics and Logger are
// optional.
type Config struct {
	Orders   port.OrderRepository
	Stock    port.StockClient
	Delivery port.DeliveryClient
	Cache    port.CacheRepository
	Events   port.EventPublisher
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// OrderService drives the order-placement workflow:
// stock check, persist, start delivery, reduce stock.
//
// Failure policy is fail-forward: once an order is persisted it is
// never rolled back. Delivery failures park the order in
// PENDING_DELIVERY for the retry sweep; a failed stock reduction is
// recorded as STOCK_ERROR and reported as a caveat, not an error.
type OrderService struct {
	orders   port.OrderRepository
	stock    port.StockClient
	delivery port.DeliveryClient
	cache    port.CacheRepository
	events   port.EventPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	nowFunc  func() time.Time
}

func NewOrderService(cfg Config) *OrderService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orders:   cfg.Orders,
		stock:    cfg.Stock,
		delivery: cfg.Delivery,
		cache:    cfg.Cache,
		events:   cfg.Events,
		metrics:  cfg.Metrics,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// PlaceOrder runs the placement workflow. The only rejections that
// reach the caller as errors happen before any side effect: validation,
// a duplicate request id, and an unavailable stock check. After the
// order is persisted every downstream failure degrades the status
// instead of failing the call.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlacementResult, error) {
	order := domain.Order{
		CustomerID: req.CustomerID,
		Address:    req.Address,
		Items:      req.Items,
		Status:     domain.OrderStatusPending,
		OrderDate:  s.nowFunc(),
	}
	order.TotalAmount = order.ComputeTotalAmount()

	if err := order.Validate(); err != nil {
		s.metrics.IncPlacement(metrics.OutcomeRejectedValidation)
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	if s.cache != nil && req.RequestID != "" {
		key := fmt.Sprintf("order:req:%s", req.RequestID)
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			s.metrics.IncPlacement(metrics.OutcomeRejectedDuplicate)
			return nil, ErrDuplicateRequest
		}
	}

	items := stockItems(order.Items)

	available, err := s.checkStock(ctx, items)
	if err != nil {
		s.logger.Warn("stock check failed", "error", err, "customer_id", req.CustomerID)
	}
	if err != nil || !available {
		s.metrics.IncPlacement(metrics.OutcomeRejectedStock)
		return nil, ErrInsufficientStock
	}

	saved, err := s.orders.Create(ctx, order)
	if err != nil {
		s.metrics.IncPlacement(metrics.OutcomeFailed)
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.logger.Info("order persisted", "order_id", saved.ID, "customer_id", saved.CustomerID, "total", saved.TotalAmount)

	message := s.startDelivery(ctx, saved)

	ok, err := s.reduceStock(ctx, items)
	if err != nil || !ok {
		s.logger.Error("stock reduction failed", "order_id", saved.ID, "error", err)
		s.transition(ctx, saved, domain.OrderStatusStockError)
		s.metrics.IncPlacement(metrics.OutcomeStockError)
		return &PlacementResult{Order: saved, Message: msgStockError}, nil
	}

	switch saved.Status {
	case domain.OrderStatusOutForDelivery:
		s.metrics.IncPlacement(metrics.OutcomePlaced)
	default:
		s.metrics.IncPlacement(metrics.OutcomePendingDelivery)
	}
	return &PlacementResult{Order: saved, Message: message}, nil
}

// startDelivery runs step 4 of the workflow and mutates order in
// place. Any failure, reported or transport-level, parks the order in
// PENDING_DELIVERY; this step never fails the placement.
func (s *OrderService) startDelivery(ctx context.Context, order *domain.Order) string {
	start := s.nowFunc()
	res, err := s.delivery.StartDelivery(ctx, *order)
	s.metrics.ObserveDownstream(metrics.TargetDeliveryStart, s.nowFunc().Sub(start))

	if err != nil || res == nil || !res.Success {
		if err != nil {
			s.logger.Warn("delivery service unreachable", "order_id", order.ID, "error", err)
		} else if res == nil {
			s.logger.Warn("delivery service returned empty response", "order_id", order.ID)
		} else {
			s.logger.Warn("delivery start declined", "order_id", order.ID, "message", res.Message)
		}
		s.transition(ctx, order, domain.OrderStatusPendingDelivery)
		return msgPendingDelivery
	}

	if err := s.orders.SetDelivery(ctx, order.ID, order.Status, res.DeliveryID, domain.OrderStatusOutForDelivery); err != nil {
		s.logger.Error("record delivery failed", "order_id", order.ID, "error", err)
		s.transition(ctx, order, domain.OrderStatusPendingDelivery)
		return msgPendingDelivery
	}

	from := order.Status
	order.Status = domain.OrderStatusOutForDelivery
	order.DeliveryID = res.DeliveryID
	s.publish(ctx, order, from)
	s.logger.Info("delivery started", "order_id", order.ID, "delivery_id", res.DeliveryID)
	return msgPlaced
}

// RetryPendingDeliveries re-drives delivery for orders parked in
// PENDING_DELIVERY. Per-order failures are logged and skipped; a
// conditional-update conflict means somebody else already advanced the
// order, which is equally fine. Returns the number recovered.
func (s *OrderService) RetryPendingDeliveries(ctx context.Context) (int, error) {
	pending, err := s.orders.FindByStatus(ctx, domain.OrderStatusPendingDelivery)
	if err != nil {
		return 0, fmt.Errorf("scan pending deliveries: %w", err)
	}

	recovered := 0
	for i := range pending {
		order := pending[i]

		start := s.nowFunc()
		res, err := s.delivery.StartDelivery(ctx, order)
		s.metrics.ObserveDownstream(metrics.TargetDeliveryStart, s.nowFunc().Sub(start))
		if err != nil || res == nil || !res.Success {
			s.logger.Warn("delivery retry failed", "order_id", order.ID, "error", err)
			continue
		}

		err = s.orders.SetDelivery(ctx, order.ID, domain.OrderStatusPendingDelivery, res.DeliveryID, domain.OrderStatusOutForDelivery)
		if errors.Is(err, port.ErrStatusConflict) {
			// raced by a concurrent transition, already moved forward
			continue
		}
		if err != nil {
			s.logger.Error("delivery retry update failed", "order_id", order.ID, "error", err)
			continue
		}

		order.DeliveryID = res.DeliveryID
		order.Status = domain.OrderStatusOutForDelivery
		s.publish(ctx, &order, domain.OrderStatusPendingDelivery)
		s.logger.Info("delivery recovered", "order_id", order.ID, "delivery_id", res.DeliveryID)
		recovered++
	}

	s.metrics.AddRecovered(recovered)
	return recovered, nil
}

func (s *OrderService) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.FindAll(ctx)
}

func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) GetOrdersByCustomer(ctx context.Context, customerID int) ([]domain.Order, error) {
	return s.orders.FindByCustomerID(ctx, customerID)
}

func (s *OrderService) SearchOrders(ctx context.Context, q port.OrderQuery) ([]domain.Order, error) {
	return s.orders.Search(ctx, q)
}

func (s *OrderService) checkStock(ctx context.Context, items []port.StockItem) (bool, error) {
	start := s.nowFunc()
	available, err := s.stock.CheckStock(ctx, items)
	s.metrics.ObserveDownstream(metrics.TargetStockCheck, s.nowFunc().Sub(start))
	return available, err
}

func (s *OrderService) reduceStock(ctx context.Context, items []port.StockItem) (bool, error) {
	start := s.nowFunc()
	ok, err := s.stock.ReduceStock(ctx, items)
	s.metrics.ObserveDownstream(metrics.TargetStockReduce, s.nowFunc().Sub(start))
	return ok, err
}

// transition applies a conditional status update and mutates order in
// place on success. Conflicts and storage errors are logged; the
// caller's flow continues either way.
func (s *OrderService) transition(ctx context.Context, order *domain.Order, next domain.OrderStatus) {
	if !order.Status.CanTransitionTo(next) {
		s.logger.Error("illegal status transition", "order_id", order.ID, "from", order.Status, "to", next)
		return
	}
	err := s.orders.UpdateStatus(ctx, order.ID, order.Status, next)
	if errors.Is(err, port.ErrStatusConflict) {
		s.logger.Warn("status transition raced", "order_id", order.ID, "from", order.Status, "to", next)
		return
	}
	if err != nil {
		s.logger.Error("status update failed", "order_id", order.ID, "from", order.Status, "to", next, "error", err)
		return
	}
	from := order.Status
	order.Status = next
	s.publish(ctx, order, from)
}

func (s *OrderService) publish(ctx context.Context, order *domain.Order, from domain.OrderStatus) {
	if s.events == nil {
		return
	}
	ev := port.OrderEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		FromStatus: from,
		ToStatus:   order.Status,
		DeliveryID: order.DeliveryID,
		OccurredAt: s.nowFunc(),
	}
	if err := s.events.PublishStatusChange(ctx, ev); err != nil {
		s.logger.Warn("event publish failed", "order_id", order.ID, "error", err)
	}
}

func stockItems(lines []domain.OrderLine) []port.StockItem {
	items := make([]port.StockItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, port.StockItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return items
}
