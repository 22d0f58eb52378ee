package port

import (
	"context"

	"github.com/deliverly/order-api/internal/core/domain"
)

// DeliveryResult is the delivery service's answer to a start request.
// Success false with a nil error means the service was reachable but
// declined the delivery.
type DeliveryResult struct {
	Success    bool
	DeliveryID int
	Message    string
}

type DeliveryClient interface {
	// StartDelivery registers a delivery for a persisted order.
	// Transport failures surface as an error.
	StartDelivery(ctx context.Context, order domain.Order) (*DeliveryResult, error)
}
