package port

import (
	"context"
	"time"

	"github.com/deliverly/order-api/internal/core/domain"
)

// OrderEvent describes a status transition on an order.
type OrderEvent struct {
	OrderID    string             `json:"orderId"`
	CustomerID int                `json:"customerId"`
	FromStatus domain.OrderStatus `json:"fromStatus"`
	ToStatus   domain.OrderStatus `json:"toStatus"`
	DeliveryID int                `json:"deliveryId,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// EventPublisher emits order lifecycle events. Publishing is
// best-effort: the workflow never fails because an event could not be
// delivered.
type EventPublisher interface {
	PublishStatusChange(ctx context.Context, ev OrderEvent) error
}
