// Package matching implements price-time priority matching of one incoming
// order against a symbol's resting order book (spec.md §4.3).
//
// Architecture: Single-Threaded Core
//
// Matching runs on exactly one consumer thread (spec.md §5): no locks, no
// contention, deterministic replay of the same input sequence always
// produces the same output. Real exchanges built this way (LMAX-style)
// treat matching as CPU-bound rather than I/O-bound work, so adding
// parallelism here would only add coordination overhead, not throughput.
package matching

import (
	"time"

	"github.com/rishav/matching-engine/internal/orderbook"
	"github.com/rishav/matching-engine/internal/orders"
)

// Matcher matches incoming orders against a single OrderBookManager's books.
// It owns match id assignment; it does not own order id assignment (that is
// the client's responsibility per spec.md §3).
type Matcher struct {
	matchIDs *IDGenerator
}

// New creates a matcher.
func New() *Matcher {
	return &Matcher{matchIDs: NewIDGenerator("m-")}
}

// Match runs the price-time priority algorithm of spec.md §4.3: it drains
// crossing liquidity from the opposite side of book, mutating both the
// incoming order and any makers it touches, and inserts any LIMIT residual
// into the book on its own side. The matcher owns insertion of the residual
// so the caller must never add-then-match (that would double-book a
// partial fill).
func (m *Matcher) Match(incoming *orders.Order, book *orderbook.Book) *orders.MatchResultSet {
	result := &orders.MatchResultSet{Fills: make([]orders.MatchResult, 0)}

	opposite := incoming.Side.Opposite()
	crosses := m.crossTest(incoming)

	for incoming.RemainingQuantity > 0 {
		level := m.bestLevel(book, opposite)
		if level == nil {
			break
		}
		if !crosses(level.Price) {
			break
		}

		m.drainLevel(incoming, book, level, opposite, result)
	}

	result.TotalFilledQuantity = incoming.FilledQuantity
	result.IncomingFullyFilled = incoming.IsFilled()

	if incoming.RemainingQuantity > 0 && incoming.Type == orders.OrderTypeLimit {
		// MARKET remainders are discarded by design (spec.md §4.3): a
		// market order never rests.
		insertStart := time.Now()
		_ = book.Add(incoming)
		result.ResidualInserted = true
		result.ResidualInsertDuration = time.Since(insertStart)
	}

	return result
}

// crossTest returns a predicate over the opposite side's best price,
// reporting whether incoming crosses it. MARKET orders always cross while
// liquidity exists.
func (m *Matcher) crossTest(incoming *orders.Order) func(bookPrice int64) bool {
	if incoming.Type == orders.OrderTypeMarket {
		return func(int64) bool { return true }
	}
	if incoming.Side == orders.SideBuy {
		return func(bookPrice int64) bool { return incoming.LimitPrice >= bookPrice }
	}
	return func(bookPrice int64) bool { return incoming.LimitPrice <= bookPrice }
}

func (m *Matcher) bestLevel(book *orderbook.Book, side orders.Side) *orderbook.PriceLevel {
	if side == orders.SideBuy {
		return book.BestBid()
	}
	return book.BestAsk()
}

// drainLevel consumes resting orders at level in FIFO order until either
// incoming is fully filled or the level is exhausted.
func (m *Matcher) drainLevel(incoming *orders.Order, book *orderbook.Book, level *orderbook.PriceLevel, makerSide orders.Side, result *orders.MatchResultSet) {
	for node := level.Head(); node != nil && incoming.RemainingQuantity > 0; {
		maker := node.Order
		next := node.Next()

		fillQty := min64(incoming.RemainingQuantity, maker.RemainingQuantity)
		executionPrice := maker.LimitPrice

		incoming.Fill(fillQty)
		maker.Fill(fillQty)

		result.Fills = append(result.Fills, orders.MatchResult{
			MatchID:        m.matchIDs.Next(),
			TakerOrderID:   incoming.ID,
			MakerOrderID:   maker.ID,
			Symbol:         incoming.Symbol,
			ExecutionPrice: executionPrice,
			ExecutionQty:   fillQty,
			Timestamp:      time.Now().UnixNano(),
			TakerSide:      incoming.Side,
		})

		if maker.IsFilled() {
			// maker.RemainingQuantity is already 0 by the time Remove would
			// subtract it, so account for this fill against TotalQty here
			// before detaching the node.
			level.UpdateQuantity(-fillQty)
			level.Remove(node)
			book.Unindex(maker.ID)
		} else {
			level.UpdateQuantity(-fillQty)
		}

		node = next
	}

	book.RemoveLevelIfEmpty(level, makerSide)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
