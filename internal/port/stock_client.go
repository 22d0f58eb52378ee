package port

import "context"

type StockItem struct {
	ProductID int
	Quantity  int
}

// StockClient talks to the external inventory service. Both calls are
// fail-closed: callers must treat a non-nil error the same as a false
// result.
type StockClient interface {
	// CheckStock reports whether every item is available in the
	// requested quantity.
	CheckStock(ctx context.Context, items []StockItem) (bool, error)

	// ReduceStock decrements inventory for the given items.
	ReduceStock(ctx context.Context, items []StockItem) (bool, error)
}
