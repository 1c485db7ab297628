// Package queue models the durable at-least-once order queue: publish,
// consume with redelivery, and a peekable dead-letter sub-queue.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned once the queue has been shut down.
var ErrClosed = errors.New("queue is closed")

// Message is an outbound payload handed to a Publisher.
type Message struct {
	MessageID     string
	CorrelationID string
	Subject       string
	ContentType   string
	Body          []byte
	Properties    map[string]string
}

// DeadLetterInfo explains why a message was shunted to the dead-letter
// sub-queue.
type DeadLetterInfo struct {
	Reason      string
	Description string
}

// Delivery wraps a message as handed to the consumer. The envelope is owned
// by the broker; processing code only reads it.
type Delivery struct {
	MessageID     string
	CorrelationID string
	Subject       string
	ContentType   string
	Body          []byte
	DeliveryCount int // 1 on first delivery; 0 when the broker omits it
	EnqueuedAt    time.Time
	Properties    map[string]string
	DeadLetter    *DeadLetterInfo // set on entries peeked from the dead-letter queue

	tag uint64 // broker receipt, used by the rabbitmq implementation
}

// Publisher sends messages to the order queue.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Source is the consumer view of the queue. Receive blocks until a delivery
// arrives or ctx ends. Every delivery must be settled with exactly one of
// Ack, Retry or DeadLetter.
type Source interface {
	// Receive returns the next delivery.
	Receive(ctx context.Context) (Delivery, error)
	// Ack removes the message from the queue.
	Ack(ctx context.Context, d Delivery) error
	// Retry requeues the message; the broker increments its delivery count.
	Retry(ctx context.Context, d Delivery) error
	// DeadLetter moves the message to the dead-letter sub-queue with a
	// reason code and error description.
	DeadLetter(ctx context.Context, d Delivery, reason, description string) error
	Close() error
}

// DeadLetterQueue exposes non-destructive inspection of dead-lettered
// messages.
type DeadLetterQueue interface {
	// PeekDeadLetters returns up to max dead-lettered messages without
	// consuming them.
	PeekDeadLetters(ctx context.Context, max int) ([]Delivery, error)
}

// Queue combines the publish, consume and dead-letter views of one broker
// queue.
type Queue interface {
	Publisher
	Source
	DeadLetterQueue
}
