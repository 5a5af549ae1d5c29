package orderbook

import (
	"fmt"
	"strings"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"github.com/rishav/matching-engine/internal/orders"
)

// Book maintains the buy (bid) and sell (ask) sides of one symbol's market.
//
//	                    Book
//	                      │
//	       ┌──────────────┴──────────────┐
//	       │                             │
//	  Bids (red-black tree)        Asks (red-black tree)
//	  sorted descending             sorted ascending
//	       │                             │
//	  PriceLevel                    PriceLevel
//	  (FIFO queue)                  (FIFO queue)
//
// The two sides are gods/v2 redblacktree.Tree[int64, *PriceLevel] instances
// with opposite comparators, so each side's left-most entry is always its
// best price: highest bid, lowest ask (spec.md §3/§4.4).
type Book struct {
	symbol string
	bids   *rbt.Tree[int64, *PriceLevel]
	asks   *rbt.Tree[int64, *PriceLevel]
	index  map[string]*OrderNode // order id -> node, O(1) cancel
}

func ascending(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func descending(a, b int64) int {
	return -ascending(a, b)
}

// New creates an empty order book for symbol.
func New(symbol string) *Book {
	return &Book{
		symbol: symbol,
		bids:   rbt.NewWith[int64, *PriceLevel](descending),
		asks:   rbt.NewWith[int64, *PriceLevel](ascending),
		index:  make(map[string]*OrderNode),
	}
}

// Symbol returns the traded symbol this book belongs to.
func (b *Book) Symbol() string {
	return b.symbol
}

func (b *Book) tree(side orders.Side) *rbt.Tree[int64, *PriceLevel] {
	if side == orders.SideBuy {
		return b.bids
	}
	return b.asks
}

// Add inserts order into the appropriate side of the book, creating its
// price level if one does not already exist. Returns an error if the order
// id already exists in this book.
func (b *Book) Add(order *orders.Order) error {
	if _, exists := b.index[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}

	tree := b.tree(order.Side)
	level, found := tree.Get(order.LimitPrice)
	if !found {
		level = NewPriceLevel(order.LimitPrice)
		tree.Put(order.LimitPrice, level)
	}

	node := level.Append(order)
	b.index[order.ID] = node
	return nil
}

// Remove removes an order from the book by id and returns it, or nil if the
// order is not resting in this book.
func (b *Book) Remove(orderID string) *orders.Order {
	node, ok := b.index[orderID]
	if !ok {
		return nil
	}

	order := node.Order
	level := node.level
	tree := b.tree(order.Side)

	level.Remove(node)
	delete(b.index, orderID)

	if level.IsEmpty() {
		tree.Remove(level.Price)
	}

	return order
}

// Get looks up a resting order by id in O(1).
func (b *Book) Get(orderID string) *orders.Order {
	node, ok := b.index[orderID]
	if !ok {
		return nil
	}
	return node.Order
}

// BestBid returns the highest bid price level, or nil if bids are empty.
func (b *Book) BestBid() *PriceLevel {
	node := b.bids.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

// BestAsk returns the lowest ask price level, or nil if asks are empty.
func (b *Book) BestAsk() *PriceLevel {
	node := b.asks.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

// BidLevels returns the number of distinct bid price levels.
func (b *Book) BidLevels() int {
	return b.bids.Size()
}

// AskLevels returns the number of distinct ask price levels.
func (b *Book) AskLevels() int {
	return b.asks.Size()
}

// TotalOrders returns the number of orders resting anywhere in the book.
func (b *Book) TotalOrders() int {
	return len(b.index)
}

// RemoveLevelIfEmpty deletes level from its side's tree if it has no
// remaining orders. Called by the matcher after draining a level.
func (b *Book) RemoveLevelIfEmpty(level *PriceLevel, side orders.Side) {
	if level.IsEmpty() {
		b.tree(side).Remove(level.Price)
	}
}

// Unindex drops orderID from the id index without touching the price level;
// used by the matcher once a maker's node has already been unlinked.
func (b *Book) Unindex(orderID string) {
	delete(b.index, orderID)
}

// Depth returns the top n price levels on the given side, best first. n<=0
// returns every level.
func (b *Book) Depth(side orders.Side, n int) []*PriceLevel {
	tree := b.tree(side)
	levels := make([]*PriceLevel, 0, tree.Size())
	it := tree.Iterator()
	for it.Next() {
		levels = append(levels, it.Value())
		if n > 0 && len(levels) >= n {
			break
		}
	}
	return levels
}

func (b *Book) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s order book ===\n", b.symbol)

	asks := b.Depth(orders.SideSell, 5)
	sb.WriteString("ASKS:\n")
	for i := len(asks) - 1; i >= 0; i-- {
		level := asks[i]
		fmt.Fprintf(&sb, "  %s: %d shares (%d orders)\n", orders.FormatPrice(level.Price), level.TotalQty, level.Count())
	}

	bids := b.Depth(orders.SideBuy, 5)
	sb.WriteString("BIDS:\n")
	for _, level := range bids {
		fmt.Fprintf(&sb, "  %s: %d shares (%d orders)\n", orders.FormatPrice(level.Price), level.TotalQty, level.Count())
	}

	return sb.String()
}
