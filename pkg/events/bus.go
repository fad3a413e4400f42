package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Handler consumes one decoded event.
type Handler func(ctx context.Context, event Event) error

// EventBus publishes and subscribes lifecycle events. Delivery toward
// subscribers is fire-and-forget: consumers must treat it as at-most-once.
type EventBus interface {
	Publish(ctx context.Context, key string, event Event) error
	Handle(eventType EventType, handler Handler)
	Subscribe(ctx context.Context) error
	Close() error
}

// WatermillEventBus implements EventBus over a watermill pub/sub pair.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handlers   map[EventType]Handler
}

// NewWatermillEventBus wraps an existing publisher/subscriber pair.
func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		handlers:   make(map[EventType]Handler),
	}
}

// NewInMemoryBus creates a bus backed by watermill's gochannel pub/sub,
// suitable for single-process deployments and tests.
func NewInMemoryBus() *WatermillEventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 256,
			Persistent:          false,
		},
		watermill.NopLogger{},
	)

	return NewWatermillEventBus(pubSub, pubSub)
}

func (b *WatermillEventBus) Publish(_ context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+watermill.NewULID(), payload)
	msg.Metadata.Set(EventMetadataKey, key)
	msg.Metadata.Set(EventTypeMetadataKey, string(event.GetType()))

	return b.publisher.Publish(Topic, msg)
}

// Handle registers a handler for one event type. Must be called before
// Subscribe.
func (b *WatermillEventBus) Handle(eventType EventType, handler Handler) {
	b.handlers[eventType] = handler
}

// Subscribe starts consuming events until the context is cancelled.
func (b *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := EventType(msg.Metadata.Get(EventTypeMetadataKey))

			handler, exists := b.handlers[eventType]
			if !exists {
				msg.Ack()

				continue
			}

			event, err := decode(eventType, msg.Payload)
			if err != nil {
				msg.Ack()

				continue
			}

			// Handler errors do not nack: delivery is at-most-once.
			_ = handler(ctx, event)
			msg.Ack()
		}
	}()

	return nil
}

func decode(eventType EventType, payload []byte) (Event, error) {
	var event Event

	switch eventType {
	case ExecutionStartedEvent:
		event = &ExecutionStarted{}
	case ExecutionCompletedEvent:
		event = &ExecutionCompleted{}
	case ExecutionFailedEvent:
		event = &ExecutionFailed{}
	case ScheduleFiredEvent:
		event = &ScheduleFired{}
	case RetryScheduledEvent:
		event = &RetryScheduled{}
	default:
		return nil, json.Unmarshal(payload, &event)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, err
	}

	return deref(event), nil
}

func deref(event Event) Event {
	switch e := event.(type) {
	case *ExecutionStarted:
		return *e
	case *ExecutionCompleted:
		return *e
	case *ExecutionFailed:
		return *e
	case *ScheduleFired:
		return *e
	case *RetryScheduled:
		return *e
	default:
		return event
	}
}

// Close shuts the underlying publisher down.
func (b *WatermillEventBus) Close() error {
	return b.publisher.Close()
}
