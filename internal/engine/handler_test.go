package engine

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rishav/matching-engine/internal/eventbus"
	"github.com/rishav/matching-engine/internal/matching"
	"github.com/rishav/matching-engine/internal/metrics"
	"github.com/rishav/matching-engine/internal/orderbook"
	"github.com/rishav/matching-engine/internal/orders"
	"github.com/rishav/matching-engine/internal/ring"
	"github.com/rishav/matching-engine/internal/wal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(t *testing.T) (*Handler, *ring.Ring, *orderbook.Manager) {
	t.Helper()

	walPath := filepath.Join(t.TempDir(), "wal.bin")
	walLog, err := wal.Open(walPath, 4096)
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	t.Cleanup(func() { walLog.Close() })

	manager := orderbook.NewManager([]string{"X"})
	matcher := matching.New()
	bus := eventbus.New(eventbus.Config{Brokers: []string{"localhost:9092"}, Topic: "test"}, discardLogger())
	t.Cleanup(func() { bus.Close() })

	h := New("a", []string{"X"}, manager, matcher, walLog, bus, metrics.NewShard(), discardLogger())
	r := ring.New(16)
	return h, r, manager
}

func claimAndPublish(t *testing.T, r *ring.Ring, orderID, symbol string, side orders.Side, typ orders.OrderType, price, qty int64) {
	t.Helper()
	seq, err := r.TryClaim()
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	slot := r.Slot(seq)
	ring.FillSlot(slot, orderID, symbol, side, typ, price, qty)
	r.Publish(seq)
}

func TestHandler_ProcessesOneEventIntoBook(t *testing.T) {
	h, r, manager := newTestHandler(t)

	claimAndPublish(t, r, "o-1", "X", orders.SideBuy, orders.OrderTypeLimit, 100, 5)

	done := make(chan struct{})
	go func() {
		h.Run(r)
		close(done)
	}()

	waitForCondition(t, func() bool {
		book, ok := manager.Lookup("X")
		return ok && book.Get("o-1") != nil
	})

	h.Stop()
	<-done

	book, _ := manager.Lookup("X")
	if book.Get("o-1") == nil {
		t.Fatalf("expected o-1 to rest in the book")
	}
}

func TestHandler_SkipsUnownedSymbol(t *testing.T) {
	h, r, manager := newTestHandler(t)

	claimAndPublish(t, r, "o-1", "NOTOWNED", orders.SideBuy, orders.OrderTypeLimit, 100, 5)

	done := make(chan struct{})
	go func() {
		h.Run(r)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	h.Stop()
	<-done

	if _, ok := manager.Lookup("NOTOWNED"); ok {
		t.Errorf("expected no book to be created for an unowned symbol")
	}
}

func TestHandler_MatchesCrossingOrders(t *testing.T) {
	h, r, manager := newTestHandler(t)

	claimAndPublish(t, r, "maker-1", "X", orders.SideSell, orders.OrderTypeLimit, 100, 10)
	claimAndPublish(t, r, "taker-1", "X", orders.SideBuy, orders.OrderTypeLimit, 105, 10)

	done := make(chan struct{})
	go func() {
		h.Run(r)
		close(done)
	}()

	waitForCondition(t, func() bool {
		book, ok := manager.Lookup("X")
		return ok && book.AskLevels() == 0 && book.Get("taker-1") == nil
	})

	h.Stop()
	<-done

	book, _ := manager.Lookup("X")
	if book.AskLevels() != 0 {
		t.Errorf("expected the maker to be fully consumed")
	}
	if book.Get("taker-1") != nil {
		t.Errorf("expected the fully-filled taker to not rest")
	}
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
