package handler

// OrderItemRequest is a single line of a placement request.
type OrderItemRequest struct {
	ProductID   int     `json:"productId" validate:"required,gt=0"`
	ProductName string  `json:"productName" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

// PlaceOrderHTTPRequest is the payload for POST /api/orders.
type PlaceOrderHTTPRequest struct {
	CustomerID int                `json:"customerId" validate:"required,gt=0"`
	Address    string             `json:"address" validate:"required"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// APIResponse is the uniform envelope for every endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
