// Package metrics exposes the Prometheus counters, histograms, and gauges
// named by spec.md §6 — the metric names and label sets are part of the
// external contract, so this wires prometheus/client_golang directly
// rather than through a higher abstraction layer (DESIGN.md C12).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway holds the gateway-side metric contract.
type Gateway struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RoutingErrors    *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewGateway constructs and registers the gateway's metrics.
func NewGateway() *Gateway {
	reg := prometheus.NewRegistry()

	g := &Gateway{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gw_requests_total",
			Help: "Total gateway-proxied requests.",
		}, []string{"shard", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gw_request_duration_seconds",
			Help:    "Gateway proxy round-trip duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"shard"}),
		RoutingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gw_routing_errors_total",
			Help: "Gateway routing failures by reason.",
		}, []string{"reason"}),
		registry: reg,
	}

	reg.MustRegister(g.RequestsTotal, g.RequestDuration, g.RoutingErrors)
	return g
}

// Handler returns the scrape endpoint handler.
func (g *Gateway) Handler() http.Handler {
	return promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{})
}

// Shard holds the shard-side metric contract.
type Shard struct {
	OrdersReceivedTotal       *prometheus.CounterVec
	MatchesTotal              *prometheus.CounterVec
	OrderValidationDuration   *prometheus.HistogramVec
	OrderbookInsertionDuration *prometheus.HistogramVec
	MatchingAlgorithmDuration *prometheus.HistogramVec
	WALAppendDuration         *prometheus.HistogramVec
	EventPublishDuration      *prometheus.HistogramVec
	MatchDuration             *prometheus.HistogramVec
	RingbufferUtilization     *prometheus.GaugeVec
	OrderbookDepth            *prometheus.GaugeVec
	OrderbookPriceLevels      *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewShard constructs and registers the shard's metrics.
func NewShard() *Shard {
	reg := prometheus.NewRegistry()

	s := &Shard{
		OrdersReceivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_received_total",
			Help: "Orders accepted onto the claim ring.",
		}, []string{"shard", "side"}),
		MatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matches_total",
			Help: "Match results produced.",
		}, []string{"shard"}),
		OrderValidationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "order_validation_duration_seconds",
			Help:    "Time spent validating an incoming order.",
			Buckets: prometheus.DefBuckets,
		}, []string{"shard"}),
		OrderbookInsertionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orderbook_insertion_duration_seconds",
			Help:    "Time spent inserting a residual into the book.",
			Buckets: prometheus.DefBuckets,
		}, []string{"shard"}),
		MatchingAlgorithmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matching_algorithm_duration_seconds",
			Help:    "Time spent inside the matching algorithm.",
			Buckets: prometheus.DefBuckets,
		}, []string{"shard"}),
		WALAppendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wal_append_duration_seconds",
			Help:    "Time spent appending a record to the WAL.",
			Buckets: prometheus.DefBuckets,
		}, []string{"shard"}),
		EventPublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "event_publish_duration_seconds",
			Help:    "Time spent enqueuing events to the publisher.",
			Buckets: prometheus.DefBuckets,
		}, []string{"shard"}),
		MatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "match_duration_seconds",
			Help:    "End-to-end latency from claim to pipeline completion.",
			Buckets: prometheus.DefBuckets,
		}, []string{"shard"}),
		RingbufferUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ringbuffer_utilization",
			Help: "Fraction of claim ring capacity currently in use.",
		}, []string{"shard"}),
		OrderbookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orderbook_depth",
			Help: "Aggregate resting quantity by side.",
		}, []string{"shard", "side"}),
		OrderbookPriceLevels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orderbook_price_levels",
			Help: "Distinct price levels by side.",
		}, []string{"shard", "side"}),
		registry: reg,
	}

	reg.MustRegister(
		s.OrdersReceivedTotal, s.MatchesTotal, s.OrderValidationDuration,
		s.OrderbookInsertionDuration, s.MatchingAlgorithmDuration,
		s.WALAppendDuration, s.EventPublishDuration, s.MatchDuration,
		s.RingbufferUtilization, s.OrderbookDepth, s.OrderbookPriceLevels,
	)
	return s
}

// Handler returns the scrape endpoint handler.
func (s *Shard) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
