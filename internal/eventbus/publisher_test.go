package eventbus

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_PublishDoesNotBlockWhenQueueFull(t *testing.T) {
	p := New(Config{Brokers: []string{"127.0.0.1:1"}, Topic: "test", QueueSize: 1}, discardLogger())
	defer p.Close()

	done := make(chan struct{})
	go func() {
		// Enough sends to guarantee the bounded queue fills even though the
		// drain goroutine is concurrently trying to empty it; Publish must
		// never block regardless.
		for i := 0; i < 1000; i++ {
			p.Publish(Event{Type: EventOrderPlaced, Key: "k", Payload: []byte("{}")})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked: expected it to always return immediately")
	}
}

func TestPublisher_CloseAfterPublishIsSafe(t *testing.T) {
	p := New(Config{Brokers: []string{"127.0.0.1:1"}, Topic: "test"}, discardLogger())
	p.Publish(Event{Type: EventMatchExecuted, Key: "m-1", Payload: []byte("{}")})

	if err := p.Close(); err != nil {
		t.Logf("close returned (expected if the broker is unreachable): %v", err)
	}
}
