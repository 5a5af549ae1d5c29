package ring

import (
	"time"

	"github.com/rishav/matching-engine/internal/orders"
)

// FillSlot writes a claimed slot's fields from a validated incoming order
// request. It is the producer-side half of the claim ring's translator
// (spec.md §2, C7): the only code allowed to write a slot between TryClaim
// and Publish.
func FillSlot(ev *OrderEvent, orderID, symbol string, side orders.Side, typ orders.OrderType, priceCents, quantity int64) {
	ev.ReceivedMonotonicTime = time.Now().UnixNano()
	ev.OrderID = orderID
	ev.Symbol = symbol
	ev.Side = side
	ev.OrderType = typ
	ev.PriceCents = priceCents
	ev.Quantity = quantity
	ev.WallClockMillis = time.Now().UnixMilli()
}

// ToOrder is the consumer-side half of the translator: it reconstructs a
// fresh orders.Order from a published slot (spec.md §4.2 step 3).
func ToOrder(ev *OrderEvent) *orders.Order {
	return orders.New(ev.OrderID, ev.Symbol, ev.Side, ev.OrderType, ev.PriceCents, ev.Quantity, ev.ReceivedMonotonicTime)
}
