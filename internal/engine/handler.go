// Package engine implements the OrderEventHandler consumer pipeline of
// spec.md §4.2: the single goroutine that drains the claim ring in
// sequence order, validates, matches, persists, and publishes each order,
// and must never halt for a per-event reason (spec.md §7).
//
// Grounded on rishavpaul-system-design's internal/disruptor/processor.go
// (spin-wait consume loop, panic recovery, gating-sequence advance) and
// internal/disruptor/batcher.go (end-of-batch driven flush), reworked into
// the exact ten-step pipeline spec.md §4.2 enumerates.
package engine

import (
	"encoding/json"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rishav/matching-engine/internal/eventbus"
	"github.com/rishav/matching-engine/internal/matching"
	"github.com/rishav/matching-engine/internal/metrics"
	"github.com/rishav/matching-engine/internal/orderbook"
	"github.com/rishav/matching-engine/internal/orders"
	"github.com/rishav/matching-engine/internal/ring"
	"github.com/rishav/matching-engine/internal/wal"
)

const maxBatch = 256

// Handler owns every single-writer resource on the hot path: the book
// manager, the matcher, the WAL, and the publish/metrics glue around them.
type Handler struct {
	shardID string
	symbols map[string]bool

	manager *orderbook.Manager
	matcher *matching.Matcher
	wal     *wal.Log
	bus     *eventbus.Publisher
	metrics *metrics.Shard
	log     *slog.Logger

	stopped atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a Handler for shardID, owning symbols.
func New(shardID string, symbols []string, manager *orderbook.Manager, matcher *matching.Matcher, walLog *wal.Log, bus *eventbus.Publisher, m *metrics.Shard, log *slog.Logger) *Handler {
	symSet := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		symSet[s] = true
	}
	return &Handler{
		shardID: shardID,
		symbols: symSet,
		manager: manager,
		matcher: matcher,
		wal:     walLog,
		bus:     bus,
		metrics: m,
		log:     log,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Run is the consumer loop. It must be started in exactly one goroutine
// (spec.md §5); call Stop and wait on Done to shut it down cooperatively.
func (h *Handler) Run(r *ring.Ring) {
	defer close(h.doneCh)

	next := uint64(1)
	for {
		count, endOfBatch := r.PollBatch(next, maxBatch)

		for i := 0; i < count; i++ {
			h.processOne(r, next+uint64(i))
		}
		if count > 0 {
			next += uint64(count)
			r.Advance(next - 1)
		}
		if endOfBatch && count > 0 {
			// Force at the batch boundary, not per record (spec.md §4.2
			// step 10, §9): amortizes the msync cost across the batch.
			if err := h.wal.Flush(); err != nil {
				h.log.Warn("wal flush failed", "shard", h.shardID, "error", err)
			}
		}
		h.metrics.RingbufferUtilization.WithLabelValues(h.shardID).Set(r.Utilization())

		if count == 0 {
			if h.stopped.Load() {
				return
			}
			runtime.Gosched()
		}
	}
}

// Stop signals the consumer to drain whatever is already published and
// exit; it does not interrupt a batch in progress.
func (h *Handler) Stop() {
	h.stopped.Store(true)
}

// Done returns a channel closed once Run has returned.
func (h *Handler) Done() <-chan struct{} {
	return h.doneCh
}

// processOne runs the ten-step pipeline of spec.md §4.2 for one sequence.
// A panic here (a "Matcher" error per spec.md §7) is recovered so that one
// bad event can never halt the consumer thread or poison the ring.
func (h *Handler) processOne(r *ring.Ring, seq uint64) {
	slot := r.Slot(seq)

	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("matcher panic recovered", "shard", h.shardID, "sequence", seq, "panic", rec)
		}
		slot.Clear()
	}()

	// 1. Skip if the slot was never claimed (defensive against replay of a
	//    slot cleared by a previous pass).
	if slot.Unset() {
		return
	}

	// 2. Validate ownership.
	if !h.symbols[slot.Symbol] {
		h.log.Warn("order for unowned symbol", "shard", h.shardID, "symbol", slot.Symbol, "sequence", seq)
		return
	}

	// 3. Construct the Order from the slot.
	validationStart := time.Now()
	order := ring.ToOrder(slot)
	h.metrics.OrderValidationDuration.WithLabelValues(h.shardID).Observe(time.Since(validationStart).Seconds())

	// 4. Fetch-or-create the book.
	book := h.manager.BookFor(slot.Symbol)

	// 5. Match. The matcher both consumes liquidity and inserts any
	//    unfilled residual; this handler never adds then matches.
	matchStart := time.Now()
	result := h.matcher.Match(order, book)
	h.metrics.MatchingAlgorithmDuration.WithLabelValues(h.shardID).Observe(time.Since(matchStart).Seconds())
	if result.ResidualInserted {
		h.metrics.OrderbookInsertionDuration.WithLabelValues(h.shardID).Observe(result.ResidualInsertDuration.Seconds())
	}

	// 6. WAL append. Failures are logged and ignored (spec.md §7 WAL kind).
	walStart := time.Now()
	if err := h.wal.Append(encodeWALRecord(order, result)); err != nil {
		h.log.Warn("wal append failed", "shard", h.shardID, "order_id", order.ID, "error", err)
	}
	h.metrics.WALAppendDuration.WithLabelValues(h.shardID).Observe(time.Since(walStart).Seconds())

	// 7. Publish: one ORDER_PLACED, one MATCH_EXECUTED per result.
	publishStart := time.Now()
	h.publish(order, result)
	h.metrics.EventPublishDuration.WithLabelValues(h.shardID).Observe(time.Since(publishStart).Seconds())

	// 8. Observe end-to-end latency and refresh gauges.
	latency := time.Duration(time.Now().UnixNano() - slot.ReceivedMonotonicTime)
	h.metrics.MatchDuration.WithLabelValues(h.shardID).Observe(latency.Seconds())
	if len(result.Fills) > 0 {
		h.metrics.MatchesTotal.WithLabelValues(h.shardID).Add(float64(len(result.Fills)))
	}
	h.refreshDepthGauges(book)

	// 9. Clear happens in the deferred func above.
	// 10. end_of_batch flush happens in Run, not per event.
}

func (h *Handler) refreshDepthGauges(book *orderbook.Book) {
	h.metrics.OrderbookPriceLevels.WithLabelValues(h.shardID, "bid").Set(float64(book.BidLevels()))
	h.metrics.OrderbookPriceLevels.WithLabelValues(h.shardID, "ask").Set(float64(book.AskLevels()))

	var bidQty, askQty int64
	for _, l := range book.Depth(orders.SideBuy, 0) {
		bidQty += l.TotalQty
	}
	for _, l := range book.Depth(orders.SideSell, 0) {
		askQty += l.TotalQty
	}
	h.metrics.OrderbookDepth.WithLabelValues(h.shardID, "bid").Set(float64(bidQty))
	h.metrics.OrderbookDepth.WithLabelValues(h.shardID, "ask").Set(float64(askQty))
}

// walRecord is the opaque payload written inside the WAL's length-prefixed
// frame (spec.md §4.2 step 6: "length-prefixed JSON-ish record").
type walRecord struct {
	OrderID     string `json:"orderId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
	MatchCount  int    `json:"matchCount"`
	TotalFilled int64  `json:"totalFilled"`
}

func encodeWALRecord(order *orders.Order, result *orders.MatchResultSet) []byte {
	rec := walRecord{
		OrderID:     order.ID,
		Symbol:      order.Symbol,
		Side:        order.Side.String(),
		Price:       order.LimitPrice,
		Quantity:    order.OriginalQuantity,
		MatchCount:  len(result.Fills),
		TotalFilled: result.TotalFilledQuantity,
	}
	b, _ := json.Marshal(rec)
	return b
}

type orderPlacedPayload struct {
	OrderID   string `json:"orderId"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Timestamp int64  `json:"timestamp"`
}

type matchExecutedPayload struct {
	MatchID        string `json:"matchId"`
	TakerOrderID   string `json:"takerOrderId"`
	MakerOrderID   string `json:"makerOrderId"`
	Symbol         string `json:"symbol"`
	ExecutionPrice int64  `json:"executionPrice"`
	ExecutionQty   int64  `json:"executionQty"`
	Timestamp      int64  `json:"timestamp"`
	TakerSide      string `json:"takerSide"`
}

// publish emits ORDER_PLACED before any MATCH_EXECUTED for the same
// incoming order (spec.md §5: a per-order guarantee, not a global one).
func (h *Handler) publish(order *orders.Order, result *orders.MatchResultSet) {
	placed, _ := json.Marshal(orderPlacedPayload{
		OrderID:   order.ID,
		Symbol:    order.Symbol,
		Side:      order.Side.String(),
		Price:     order.LimitPrice,
		Quantity:  order.OriginalQuantity,
		Timestamp: order.Timestamp,
	})
	h.bus.Publish(eventbus.Event{Type: eventbus.EventOrderPlaced, Key: order.ID, Payload: placed})

	for _, fill := range result.Fills {
		payload, _ := json.Marshal(matchExecutedPayload{
			MatchID:        fill.MatchID,
			TakerOrderID:   fill.TakerOrderID,
			MakerOrderID:   fill.MakerOrderID,
			Symbol:         fill.Symbol,
			ExecutionPrice: fill.ExecutionPrice,
			ExecutionQty:   fill.ExecutionQty,
			Timestamp:      fill.Timestamp,
			TakerSide:      fill.TakerSide.String(),
		})
		h.bus.Publish(eventbus.Event{Type: eventbus.EventMatchExecuted, Key: fill.MatchID, Payload: payload})
	}
}
