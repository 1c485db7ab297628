package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

const defaultMemoryBuffer = 1024

// MemoryQueue is an in-process broker implementing the full queue contract:
// delivery counting on redelivery, a dead-letter sub-queue and non-destructive
// peeks. It backs local runs and tests; durability comes from the rabbitmq
// implementation.
type MemoryQueue struct {
	mu          sync.Mutex
	ready       chan Delivery
	deadLetters []Delivery
	closed      bool
	nowFunc     func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		ready:   make(chan Delivery, defaultMemoryBuffer),
		nowFunc: time.Now,
	}
}

func (q *MemoryQueue) Publish(ctx context.Context, msg Message) error {
	d := Delivery{
		MessageID:     msg.MessageID,
		CorrelationID: msg.CorrelationID,
		Subject:       msg.Subject,
		ContentType:   msg.ContentType,
		Body:          msg.Body,
		DeliveryCount: 1,
		EnqueuedAt:    q.nowFunc(),
		Properties:    msg.Properties,
	}
	return q.enqueue(ctx, d)
}

func (q *MemoryQueue) Receive(ctx context.Context) (Delivery, error) {
	select {
	case d, ok := <-q.ready:
		if !ok {
			return Delivery{}, ErrClosed
		}
		return d, nil
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

// Ack is a no-op: Receive already removed the message.
func (q *MemoryQueue) Ack(ctx context.Context, d Delivery) error {
	return nil
}

func (q *MemoryQueue) Retry(ctx context.Context, d Delivery) error {
	d.DeliveryCount++
	return q.enqueue(ctx, d)
}

func (q *MemoryQueue) DeadLetter(ctx context.Context, d Delivery, reason, description string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	d.DeadLetter = &DeadLetterInfo{Reason: reason, Description: description}
	q.deadLetters = append(q.deadLetters, d)
	return nil
}

func (q *MemoryQueue) PeekDeadLetters(ctx context.Context, max int) ([]Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max > len(q.deadLetters) {
		max = len(q.deadLetters)
	}
	return append([]Delivery(nil), q.deadLetters[:max]...), nil
}

// Len reports how many messages are waiting for delivery.
func (q *MemoryQueue) Len() int {
	return len(q.ready)
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ready)
	return nil
}

// enqueue holds the lock while sending so Close cannot race the send.
func (q *MemoryQueue) enqueue(ctx context.Context, d Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ready <- d:
		return nil
	default:
		return errors.New("queue buffer full")
	}
}
