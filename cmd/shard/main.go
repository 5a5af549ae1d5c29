// Command shard runs one matching shard: an HTTP front door that claims
// ring slots for incoming orders, and a single consumer goroutine (the
// OrderEventHandler, internal/engine) that drains the ring, matches, logs,
// and publishes.
//
// Grounded on rishavpaul-system-design's order-matching-engine/cmd/server
// and the rate-limiter gateway's net/http wiring style (ServeMux,
// explicit timeouts, os/signal graceful shutdown).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rishav/matching-engine/internal/config"
	"github.com/rishav/matching-engine/internal/engine"
	"github.com/rishav/matching-engine/internal/eventbus"
	"github.com/rishav/matching-engine/internal/matching"
	"github.com/rishav/matching-engine/internal/metrics"
	"github.com/rishav/matching-engine/internal/orderbook"
	"github.com/rishav/matching-engine/internal/orders"
	"github.com/rishav/matching-engine/internal/ring"
	"github.com/rishav/matching-engine/internal/wal"
)

type orderRequest struct {
	OrderID  string `json:"orderId"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type server struct {
	cfg     config.Shard
	r       *ring.Ring
	manager *orderbook.Manager
	metrics *metrics.Shard
	log     *slog.Logger
	symbols map[string]bool
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.LoadShard()

	m := metrics.NewShard()
	manager := orderbook.NewManager(cfg.Symbols)
	matcher := matching.New()
	r := ring.New(cfg.RingBufferSize)

	if err := os.MkdirAll(cfg.WALPath, 0o755); err != nil {
		log.Error("failed to create wal directory", "path", cfg.WALPath, "error", err)
		os.Exit(1)
	}
	walLog, err := wal.Open(filepath.Join(cfg.WALPath, "wal.dat"), cfg.WALSizeBytes)
	if err != nil {
		log.Error("failed to open wal", "error", err)
		os.Exit(1)
	}

	bus := eventbus.New(eventbus.Config{
		Brokers:   []string{cfg.KafkaBootstrap},
		Topic:     "order-events-" + cfg.ShardID,
		QueueSize: 4096,
	}, log)

	handler := engine.New(cfg.ShardID, cfg.Symbols, manager, matcher, walLog, bus, m, log)

	srv := &server{cfg: cfg, r: r, manager: manager, metrics: m, log: log, symbols: symbolSet(cfg.Symbols)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", srv.handleOrder)
	mux.HandleFunc("POST /seed", srv.handleSeed)
	mux.HandleFunc("GET /health", srv.handleHealth)

	httpSrv := &http.Server{
		Addr:         addrFor(cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	metricsSrv := &http.Server{
		Addr:    addrFor(cfg.MetricsPort),
		Handler: m.Handler(),
	}

	go handler.Run(r)

	go func() {
		log.Info("shard http listening", "shard", cfg.ShardID, "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()
	go func() {
		log.Info("shard metrics listening", "shard", cfg.ShardID, "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down", "shard", cfg.ShardID)

	// spec.md §5 shutdown sequence: stop accepting claims, drain the ring,
	// flush the WAL, close the publisher, close the WAL.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	handler.Stop()
	select {
	case <-handler.Done():
	case <-time.After(5 * time.Second):
		log.Warn("handler did not drain before timeout", "shard", cfg.ShardID)
	}

	if err := walLog.Flush(); err != nil {
		log.Warn("final wal flush failed", "error", err)
	}
	if err := bus.Close(); err != nil {
		log.Warn("eventbus close failed", "error", err)
	}
	if err := walLog.Close(); err != nil {
		log.Warn("wal close failed", "error", err)
	}

	log.Info("shutdown complete", "shard", cfg.ShardID)
}

// handleOrder validates, claims a ring slot, fills it via the translator,
// and publishes — then returns immediately. It never waits for the match
// result (spec.md §4.1, §6): on success the response carries only the
// acceptance, never a match-dependent status.
func (s *server) handleOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "cannot read body"})
		return
	}

	var req orderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "malformed json"})
		return
	}

	if req.OrderID == "" || req.Symbol == "" || req.Quantity <= 0 {
		s.rejectOrder(w, req.OrderID, "missing required field")
		return
	}
	if !s.symbols[req.Symbol] {
		s.rejectOrder(w, req.OrderID, "unowned symbol")
		return
	}
	side, ok := orders.ParseSide(req.Side)
	if !ok {
		s.rejectOrder(w, req.OrderID, "invalid side")
		return
	}
	orderType, ok := orders.ParseOrderType(req.Type)
	if !ok {
		s.rejectOrder(w, req.OrderID, "invalid type")
		return
	}
	if orderType == orders.OrderTypeLimit && req.Price <= 0 {
		s.rejectOrder(w, req.OrderID, "limit order requires positive price")
		return
	}

	seq, err := s.r.TryClaim()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "REJECTED", "reason": "Ring buffer full"})
		return
	}

	slot := s.r.Slot(seq)
	ring.FillSlot(slot, req.OrderID, req.Symbol, side, orderType, req.Price, req.Quantity)
	s.r.Publish(seq)

	s.metrics.OrdersReceivedTotal.WithLabelValues(s.cfg.ShardID, side.String()).Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ACCEPTED",
		"orderId":   req.OrderID,
		"shardId":   s.cfg.ShardID,
		"timestamp": time.Now().UnixNano(),
	})
}

func (s *server) rejectOrder(w http.ResponseWriter, orderID, reason string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "orderId": orderID, "reason": reason})
}

type seedRequest struct {
	Orders []orderRequest `json:"orders"`
}

// handleSeed inserts orders directly into their books, bypassing the ring
// and the matcher entirely (spec.md §6): a setup-only backdoor, never used
// under load.
func (s *server) handleSeed(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "cannot read body"})
		return
	}

	var req seedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "malformed json"})
		return
	}

	seeded := make([]string, 0, len(req.Orders))
	for _, o := range req.Orders {
		side, ok := orders.ParseSide(o.Side)
		if !ok {
			continue
		}
		orderType, ok := orders.ParseOrderType(o.Type)
		if !ok || orderType != orders.OrderTypeLimit {
			continue
		}
		order := orders.New(o.OrderID, o.Symbol, side, orderType, o.Price, o.Quantity, time.Now().UnixNano())
		book := s.manager.BookFor(o.Symbol)
		if err := book.Add(order); err == nil {
			seeded = append(seeded, o.OrderID)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "SEEDED", "count": len(seeded), "orderIds": seeded})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP", "shardId": s.cfg.ShardID})
}

func symbolSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set
}

func addrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
