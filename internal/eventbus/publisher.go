// Package eventbus implements the non-blocking, fire-and-forget event sink
// of spec.md §4.6: ORDER_PLACED and MATCH_EXECUTED events are handed to a
// Kafka topic, but no send call is ever allowed to block the consumer
// thread that drives matching.
//
// The non-blocking fan-out shape is grounded on rishavpaul-system-design's
// internal/marketdata.Publisher (select default: drop on a full channel);
// the transport underneath it is a real github.com/segmentio/kafka-go
// writer, grounded on wyfcoding-financialTrading's pkg/mq/kafka.go.
package eventbus

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventType identifies the published event's kind.
type EventType string

const (
	EventOrderPlaced    EventType = "ORDER_PLACED"
	EventMatchExecuted  EventType = "MATCH_EXECUTED"
)

// Event is one message destined for the event bus.
type Event struct {
	Type    EventType
	Key     string // Kafka partition key: the order id for ORDER_PLACED, the match id for MATCH_EXECUTED
	Payload []byte // caller-supplied JSON encoding of the event body
}

// Publisher is a bounded, non-blocking sink in front of a Kafka writer. A
// single background goroutine drains the queue so Publish itself never
// waits on network I/O.
type Publisher struct {
	writer *kafka.Writer
	queue  chan Event
	done   chan struct{}
	log    *slog.Logger

	loggedDropOnce bool
}

// Config configures the publisher's Kafka transport.
type Config struct {
	Brokers    []string
	Topic      string
	QueueSize  int // buffered events before Publish starts dropping
}

// New creates a publisher and starts its draining goroutine.
func New(cfg Config, log *slog.Logger) *Publisher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4096
	}

	p := &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
		},
		queue: make(chan Event, cfg.QueueSize),
		done:  make(chan struct{}),
		log:   log,
	}

	go p.run()
	return p
}

// Publish enqueues an event for asynchronous delivery. It never blocks: if
// the internal queue is full the event is dropped and logged once
// (spec.md §4.6, §7 Publisher error kind) — matching continues regardless.
func (p *Publisher) Publish(ev Event) {
	select {
	case p.queue <- ev:
	default:
		if !p.loggedDropOnce {
			p.log.Warn("eventbus queue full, dropping event", "type", ev.Type, "key", ev.Key)
			p.loggedDropOnce = true
		}
	}
}

func (p *Publisher) run() {
	for {
		select {
		case ev, ok := <-p.queue:
			if !ok {
				return
			}
			p.write(ev)
		case <-p.done:
			// Drain whatever is left best-effort, then exit.
			for {
				select {
				case ev := <-p.queue:
					p.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) write(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Key),
		Value: ev.Payload,
		Time:  time.Now(),
	})
	if err != nil {
		p.log.Warn("eventbus publish failed", "type", ev.Type, "key", ev.Key, "error", err)
	}
}

// Close flushes best-effort and releases the Kafka writer.
func (p *Publisher) Close() error {
	close(p.done)
	return p.writer.Close()
}
