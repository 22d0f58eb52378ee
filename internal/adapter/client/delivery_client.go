package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deliverly/order-api/internal/core/domain"
	"github.com/deliverly/order-api/internal/port"
)

type deliveryItemDTO struct {
	ProductID   int    `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

type deliveryRequest struct {
	OrderID     string            `json:"orderId"`
	CustomerID  int               `json:"customerId"`
	Address     string            `json:"address"`
	Items       []deliveryItemDTO `json:"items"`
	RequestTime string            `json:"requestTime"`
}

type deliveryResponse struct {
	Success    bool   `json:"success"`
	DeliveryID int    `json:"deliveryId"`
	Message    string `json:"message"`
}

// DeliveryHTTPClient calls the delivery service's start endpoint.
// A reachable service that declines the delivery is not an error; the
// decline is conveyed in the result. Transport failures are errors.
type DeliveryHTTPClient struct {
	baseURL string
	http    *http.Client
	nowFunc func() time.Time
}

func NewDeliveryHTTPClient(baseURL string, httpClient *http.Client) *DeliveryHTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &DeliveryHTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		nowFunc: time.Now,
	}
}

func (c *DeliveryHTTPClient) StartDelivery(ctx context.Context, order domain.Order) (*port.DeliveryResult, error) {
	payload := deliveryRequest{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Address:     order.Address,
		Items:       make([]deliveryItemDTO, 0, len(order.Items)),
		RequestTime: c.nowFunc().UTC().Format(time.RFC3339),
	}
	for _, l := range order.Items {
		payload.Items = append(payload.Items, deliveryItemDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal delivery request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/start", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("delivery service call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("delivery service returned status %d", resp.StatusCode)
	}

	var out deliveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode delivery response: %w", err)
	}

	return &port.DeliveryResult{
		Success:    out.Success,
		DeliveryID: out.DeliveryID,
		Message:    out.Message,
	}, nil
}
