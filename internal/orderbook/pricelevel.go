// Package orderbook implements the per-symbol limit order book: two sorted
// price maps (bids descending, asks ascending), each level a FIFO queue of
// resting orders, plus an id index for O(1) lookup and cancellation.
package orderbook

import (
	"github.com/rishav/matching-engine/internal/orders"
)

// OrderNode is a node in the doubly-linked FIFO queue of orders resting at
// one price level. The doubly-linked list gives O(1) removal from anywhere
// in the queue, which O(1) cancellation by id depends on.
type OrderNode struct {
	Order *orders.Order
	prev  *OrderNode
	next  *OrderNode
	level *PriceLevel
}

// Next returns the next node in the queue (older to newer).
func (n *OrderNode) Next() *OrderNode {
	return n.next
}

// PriceLevel holds every order resting at a single price. Orders are
// consumed strictly oldest-first (time priority); TotalQty mirrors the sum
// of RemainingQuantity across the queue so depth queries need not scan it.
type PriceLevel struct {
	Price    int64
	head     *OrderNode
	tail     *OrderNode
	count    int
	TotalQty int64
}

// NewPriceLevel creates an empty price level.
func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Count returns the number of resting orders at this level.
func (pl *PriceLevel) Count() int {
	return pl.count
}

// IsEmpty reports whether the level holds no orders.
func (pl *PriceLevel) IsEmpty() bool {
	return pl.count == 0
}

// Head returns the oldest (highest time priority) resting order's node.
func (pl *PriceLevel) Head() *OrderNode {
	return pl.head
}

// Append adds an order to the tail of the queue (lowest time priority at
// this price) and returns its node for later O(1) removal.
func (pl *PriceLevel) Append(order *orders.Order) *OrderNode {
	node := &OrderNode{Order: order, level: pl}

	if pl.tail == nil {
		pl.head = node
		pl.tail = node
	} else {
		node.prev = pl.tail
		pl.tail.next = node
		pl.tail = node
	}

	pl.count++
	pl.TotalQty += order.RemainingQuantity
	return node
}

// Remove detaches a node from the queue in O(1).
func (pl *PriceLevel) Remove(node *OrderNode) {
	if node == nil {
		return
	}

	pl.TotalQty -= node.Order.RemainingQuantity
	pl.count--

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		pl.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		pl.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	node.level = nil
}

// UpdateQuantity adjusts TotalQty by delta. The matcher calls it after every
// fill: for a partial fill that leaves the node in place, and for a full
// fill just before Remove (which subtracts the then-zero remaining quantity).
func (pl *PriceLevel) UpdateQuantity(delta int64) {
	pl.TotalQty += delta
}

// Orders returns every resting order at this level, oldest first. Allocates;
// intended for depth snapshots, not the hot path.
func (pl *PriceLevel) Orders() []*orders.Order {
	result := make([]*orders.Order, 0, pl.count)
	for node := pl.head; node != nil; node = node.next {
		result = append(result, node.Order)
	}
	return result
}
