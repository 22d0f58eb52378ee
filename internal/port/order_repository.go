package port

import (
	"context"
	"errors"
	"time"

	"github.com/deliverly/order-api/internal/core/domain"
)

// ErrStatusConflict is returned by conditional updates when the stored
// status no longer matches the expected one (another writer advanced
// the order first).
var ErrStatusConflict = errors.New("order status conflict")

// OrderQuery filters the read-side search. Zero values mean "not set".
type OrderQuery struct {
	CustomerID      int
	Status          domain.OrderStatus
	AddressContains string
	From            time.Time
	To              time.Time
	MinAmount       float64
	MaxAmount       float64
	Limit           int
	Offset          int
}

type OrderRepository interface {
	// Create persists a new order and returns it with the assigned id.
	Create(ctx context.Context, order domain.Order) (*domain.Order, error)

	// FindByID returns the order or (nil, nil) when absent.
	FindByID(ctx context.Context, id string) (*domain.Order, error)

	FindAll(ctx context.Context) ([]domain.Order, error)

	FindByCustomerID(ctx context.Context, customerID int) ([]domain.Order, error)

	FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)

	// Search applies the query filters, newest orders first.
	Search(ctx context.Context, q OrderQuery) ([]domain.Order, error)

	// UpdateStatus moves the order from expected to next.
	// Returns ErrStatusConflict if the stored status differs from expected.
	UpdateStatus(ctx context.Context, id string, expected, next domain.OrderStatus) error

	// SetDelivery records the delivery id while moving the order from
	// expected to next, with the same conditional guard as UpdateStatus.
	SetDelivery(ctx context.Context, id string, expected domain.OrderStatus, deliveryID int, next domain.OrderStatus) error
}
