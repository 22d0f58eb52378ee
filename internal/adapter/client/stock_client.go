package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deliverly/order-api/internal/port"
)

const defaultTimeout = 5 * time.Second

type stockItemDTO struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type stockRequest struct {
	Items []stockItemDTO `json:"items"`
}

type stockResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// StockHTTPClient calls the inventory service. Both operations are
// fail-closed: any transport error, timeout or non-2xx response comes
// back as (false, err).
type StockHTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewStockHTTPClient(baseURL string, httpClient *http.Client) *StockHTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &StockHTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *StockHTTPClient) CheckStock(ctx context.Context, items []port.StockItem) (bool, error) {
	return c.post(ctx, "/stock/check", items)
}

func (c *StockHTTPClient) ReduceStock(ctx context.Context, items []port.StockItem) (bool, error) {
	return c.post(ctx, "/stock/reduce", items)
}

func (c *StockHTTPClient) post(ctx context.Context, path string, items []port.StockItem) (bool, error) {
	payload := stockRequest{Items: make([]stockItemDTO, 0, len(items))}
	for _, it := range items {
		payload.Items = append(payload.Items, stockItemDTO{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal stock request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build stock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("stock service call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("stock service returned status %d", resp.StatusCode)
	}

	var out stockResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode stock response: %w", err)
	}

	return out.Available, nil
}
