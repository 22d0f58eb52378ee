package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusConfirmed       OrderStatus = "CONFIRMED"
	OrderStatusOutForDelivery  OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusPendingDelivery OrderStatus = "PENDING_DELIVERY"
	OrderStatusStockError      OrderStatus = "STOCK_ERROR"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// transitions lists the forward moves allowed from each status.
// Statuses with no entry are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusConfirmed,
		OrderStatusOutForDelivery,
		OrderStatusPendingDelivery,
		OrderStatusStockError,
		OrderStatusCancelled,
	},
	OrderStatusConfirmed: {
		OrderStatusOutForDelivery,
		OrderStatusPendingDelivery,
		OrderStatusCancelled,
	},
	OrderStatusPendingDelivery: {
		OrderStatusOutForDelivery,
		OrderStatusStockError,
		OrderStatusCancelled,
	},
	OrderStatusOutForDelivery: {
		OrderStatusDelivered,
		OrderStatusStockError,
	},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusOutForDelivery,
		OrderStatusPendingDelivery, OrderStatusStockError,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is a legal
// forward transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OrderLine struct {
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

func (l OrderLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

type Order struct {
	ID          string      `json:"id"`
	CustomerID  int         `json:"customerId"`
	Address     string      `json:"address"`
	Items       []OrderLine `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Status      OrderStatus `json:"status"`
	DeliveryID  int         `json:"deliveryId,omitempty"`
	OrderDate   time.Time   `json:"orderDate"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ComputeTotalAmount sums the line subtotals, rounded to cents.
func (o *Order) ComputeTotalAmount() float64 {
	var sum float64
	for _, l := range o.Items {
		sum += l.Subtotal()
	}
	return math.Round(sum*100) / 100
}

// Validate checks the request shape before any external call is made.
func (o *Order) Validate() error {
	if o.CustomerID <= 0 {
		return errors.New("customer id must be positive")
	}
	if strings.TrimSpace(o.Address) == "" {
		return errors.New("address is required")
	}
	if len(o.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for i, l := range o.Items {
		if l.ProductID <= 0 {
			return fmt.Errorf("item %d: product id must be positive", i)
		}
		if strings.TrimSpace(l.ProductName) == "" {
			return fmt.Errorf("item %d: product name is required", i)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i)
		}
		if l.Price <= 0 {
			return fmt.Errorf("item %d: price must be positive", i)
		}
	}
	return nil
}
