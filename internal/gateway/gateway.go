package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rishav/matching-engine/internal/metrics"
)

// orderEnvelope extracts only the symbol field the router needs; the full
// body is forwarded verbatim regardless of what else it contains
// (spec.md §6: "forward the body verbatim").
type orderEnvelope struct {
	Symbol string `json:"symbol"`
}

// Gateway is the symbol-routing edge proxy (spec.md §4.7, §6).
type Gateway struct {
	router  *Router
	metrics *metrics.Gateway
	log     *slog.Logger
	client  *http.Client
}

// New creates a Gateway.
func New(router *Router, m *metrics.Gateway, log *slog.Logger) *Gateway {
	return &Gateway{
		router:  router,
		metrics: m,
		log:     log,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Routes registers the gateway's handlers on mux.
func (g *Gateway) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", g.handleOrders)
	mux.HandleFunc("POST /seed/{shardId}", g.handleSeed)
	mux.HandleFunc("GET /health", g.handleHealth)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (g *Gateway) handleOrders(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.metrics.RoutingErrors.WithLabelValues("bad_body").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "cannot read body"})
		return
	}

	var env orderEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Symbol == "" {
		g.metrics.RoutingErrors.WithLabelValues("bad_json").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "malformed order"})
		return
	}

	shardID, err := g.router.ShardID(env.Symbol)
	if err != nil {
		g.metrics.RoutingErrors.WithLabelValues("unknown_symbol").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "unknown symbol"})
		return
	}

	baseURL, err := g.router.ShardURL(env.Symbol)
	if err != nil {
		g.metrics.RoutingErrors.WithLabelValues("misconfigured").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "misconfigured shard"})
		return
	}

	g.forward(w, r, shardID, baseURL+"/orders", body)
}

func (g *Gateway) handleSeed(w http.ResponseWriter, r *http.Request) {
	shardID := r.PathValue("shardId")

	baseURL, ok := g.router.URLForShard(shardID)
	if !ok {
		g.metrics.RoutingErrors.WithLabelValues("unknown_shard").Inc()
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "REJECTED", "reason": "cannot read body"})
		return
	}

	g.forward(w, r, shardID, baseURL+"/seed", body)
}

// forward proxies body to the shard at url, classifying the outcome per
// spec.md §4.7: network error -> 502, timeout -> 504, otherwise pass the
// shard's own status/body through verbatim.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, shardID, url string, body []byte) {
	start := time.Now()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		g.metrics.RequestsTotal.WithLabelValues(shardID, "502").Inc()
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	g.metrics.RequestDuration.WithLabelValues(shardID).Observe(time.Since(start).Seconds())

	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			status = http.StatusGatewayTimeout
		}
		g.metrics.RequestsTotal.WithLabelValues(shardID, fmt.Sprint(status)).Inc()
		g.log.Warn("shard proxy failed", "shard", shardID, "error", err)
		w.WriteHeader(status)
		return
	}
	defer resp.Body.Close()

	g.metrics.RequestsTotal.WithLabelValues(shardID, statusClass(resp.StatusCode)).Inc()

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// statusClass buckets a status code into "2xx"/"4xx"/"5xx" for the
// gw_requests_total label set (spec.md §6).
func statusClass(code int) string {
	switch code / 100 {
	case 2:
		return "2xx"
	case 4:
		return "4xx"
	default:
		return "5xx"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
