package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rishav/matching-engine/internal/config"
	"github.com/rishav/matching-engine/internal/metrics"
	"github.com/rishav/matching-engine/internal/orderbook"
	"github.com/rishav/matching-engine/internal/ring"
)

func newTestServer(ringCapacity uint64) *server {
	return &server{
		cfg:     config.Shard{ShardID: "a", Symbols: []string{"X"}},
		r:       ring.New(ringCapacity),
		manager: orderbook.NewManager([]string{"X"}),
		metrics: metrics.NewShard(),
		log:     nil,
		symbols: map[string]bool{"X": true},
	}
}

func postOrder(t *testing.T, s *server, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.handleOrder(rec, req)
	return rec
}

func TestHandleOrder_AcceptsValidOrder(t *testing.T) {
	s := newTestServer(16)

	rec := postOrder(t, s, map[string]any{
		"orderId": "o-1", "symbol": "X", "side": "BUY", "type": "LIMIT", "price": 100, "quantity": 5,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ACCEPTED" {
		t.Errorf("expected ACCEPTED, got %v", resp["status"])
	}
}

func TestHandleOrder_RejectsUnknownSymbol(t *testing.T) {
	s := newTestServer(16)

	rec := postOrder(t, s, map[string]any{
		"orderId": "o-1", "symbol": "UNKNOWN", "side": "BUY", "type": "LIMIT", "price": 100, "quantity": 5,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// TestHandleOrder_BackPressure implements the spec's back-pressure scenario:
// with ring capacity 2 and no consumer draining it, a third rapid submission
// must be rejected with 503 while the first two succeed.
func TestHandleOrder_BackPressure(t *testing.T) {
	s := newTestServer(2)

	first := postOrder(t, s, map[string]any{"orderId": "o-1", "symbol": "X", "side": "BUY", "type": "LIMIT", "price": 100, "quantity": 1})
	second := postOrder(t, s, map[string]any{"orderId": "o-2", "symbol": "X", "side": "BUY", "type": "LIMIT", "price": 100, "quantity": 1})
	third := postOrder(t, s, map[string]any{"orderId": "o-3", "symbol": "X", "side": "BUY", "type": "LIMIT", "price": 100, "quantity": 1})

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected the first two claims to succeed, got %d and %d", first.Code, second.Code)
	}
	if third.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 once the ring is full, got %d", third.Code)
	}

	var resp map[string]any
	json.Unmarshal(third.Body.Bytes(), &resp)
	if resp["reason"] != "Ring buffer full" {
		t.Errorf("expected reason %q, got %v", "Ring buffer full", resp["reason"])
	}
}

func TestHandleSeed_InsertsDirectlyIntoBook(t *testing.T) {
	s := newTestServer(16)

	raw, _ := json.Marshal(map[string]any{
		"orders": []map[string]any{
			{"orderId": "s-1", "symbol": "X", "side": "BUY", "type": "LIMIT", "price": 100, "quantity": 5},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/seed", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.handleSeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	book, ok := s.manager.Lookup("X")
	if !ok {
		t.Fatalf("expected book X to exist")
	}
	if book.Get("s-1") == nil {
		t.Errorf("expected seeded order to be resting in the book")
	}
}
