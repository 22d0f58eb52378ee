package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deliverly/order-api/internal/port"
)

var testItems = []port.StockItem{
	{ProductID: 1, Quantity: 2},
	{ProductID: 2, Quantity: 1},
}

func TestCheckStock_Available(t *testing.T) {
	var gotPath string
	var gotBody stockRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(stockResponse{Available: true, Message: "ok"})
	}))
	defer srv.Close()

	c := NewStockHTTPClient(srv.URL, srv.Client())
	available, err := c.CheckStock(context.Background(), testItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !available {
		t.Error("expected available")
	}
	if gotPath != "/stock/check" {
		t.Errorf("expected /stock/check, got %s", gotPath)
	}
	if len(gotBody.Items) != 2 || gotBody.Items[0].ProductID != 1 || gotBody.Items[0].Quantity != 2 {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
}

func TestCheckStock_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(stockResponse{Available: false, Message: "out of stock"})
	}))
	defer srv.Close()

	c := NewStockHTTPClient(srv.URL, srv.Client())
	available, err := c.CheckStock(context.Background(), testItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available {
		t.Error("expected unavailable")
	}
}

func TestCheckStock_ServerError_FailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewStockHTTPClient(srv.URL, srv.Client())
	available, err := c.CheckStock(context.Background(), testItems)
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if available {
		t.Error("non-2xx must fail closed")
	}
}

func TestCheckStock_Unreachable_FailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewStockHTTPClient(srv.URL, nil)
	available, err := c.CheckStock(context.Background(), testItems)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if available {
		t.Error("transport error must fail closed")
	}
}

func TestCheckStock_BadBody_FailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewStockHTTPClient(srv.URL, srv.Client())
	available, err := c.CheckStock(context.Background(), testItems)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if available {
		t.Error("undecodable response must fail closed")
	}
}

func TestReduceStock_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(stockResponse{Available: true})
	}))
	defer srv.Close()

	c := NewStockHTTPClient(srv.URL, srv.Client())
	ok, err := c.ReduceStock(context.Background(), testItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected success")
	}
	if gotPath != "/stock/reduce" {
		t.Errorf("expected /stock/reduce, got %s", gotPath)
	}
}
