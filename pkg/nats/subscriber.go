package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"db-rag-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event taken off the bus. Returning an error
// Naks the message so JetStream redelivers it.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber consumes events from the NATS bus with a durable consumer.
type Subscriber struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	cctx     jetstream.ConsumeContext
}

// NewSubscriber connects and binds a durable consumer to the event stream,
// filtered to the given subject (e.g. "events.CATALOG_SYNC_REQUESTED").
func NewSubscriber(url, durableName, filterSubject string) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	consumer, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    3,
		AckWait:       2 * time.Minute,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create consumer '%s': %w", durableName, err)
	}

	return &Subscriber{nc: nc, js: js, consumer: consumer}, nil
}

// Start begins consuming messages and dispatching them to the handler.
func (s *Subscriber) Start(handler EventHandler) error {
	cctx, err := s.consumer.Consume(func(msg jetstream.Msg) {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Data(), &payload); err != nil {
			log.Printf("Warn: Dropping malformed event on %s: %v", msg.Subject(), err)
			// Malformed payloads never become valid; terminate delivery
			_ = msg.Term()
			return
		}

		event := events.BaseEvent{
			Type:       eventTypeFromSubject(msg.Subject()),
			Data:       payload,
			OccurredAt: time.Now(),
		}

		if err := handler(context.Background(), event); err != nil {
			log.Printf("Warn: Handler failed for %s: %v", msg.Subject(), err)
			_ = msg.Nak()
			return
		}

		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.cctx = cctx
	return nil
}

// Close stops consumption and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.cctx != nil {
		s.cctx.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}

// eventTypeFromSubject strips the "events." prefix to recover the type code.
func eventTypeFromSubject(subject string) string {
	const prefix = "events."
	if len(subject) > len(prefix) && subject[:len(prefix)] == prefix {
		return subject[len(prefix):]
	}
	return subject
}
