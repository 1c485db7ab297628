package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/go-orderflow/pkg/config"
)

const (
	headerDeliveryCount         = "x-delivery-count"
	headerDeadLetterReason      = "x-deadletter-reason"
	headerDeadLetterDescription = "x-deadletter-description"
)

// rabbitMqQueue implements the queue contract on RabbitMQ. The main queue is
// declared as a quorum queue so the broker maintains x-delivery-count across
// redeliveries, with a dead-letter routing key so broker-side expiry also
// lands in the dead-letter queue; explicit dead-lettering republishes with
// reason headers.
type rabbitMqQueue struct {
	connection      *amqp.Connection
	channel         *amqp.Channel
	queue           string
	deadLetterQueue string
	deliveries      <-chan amqp.Delivery
	tracer          trace.Tracer
}

func newRabbitMqQueue(settings config.BrokerSettings) (*rabbitMqQueue, error) {
	conn, err := amqp.Dial(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	// Set up a channel to handle connection close notifications
	notifyClose := make(chan *amqp.Error)
	conn.NotifyClose(notifyClose)
	go func() {
		for err := range notifyClose {
			log.Printf("RabbitMQ connection closed: %v", err)
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	dlq := settings.Queue + ".deadletter"
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare dead-letter queue: %w", err)
	}

	if _, err := ch.QueueDeclare(settings.Queue, true, false, false, false, mainQueueArgs(dlq)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	deliveries, err := ch.Consume(settings.Queue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	return &rabbitMqQueue{
		connection:      conn,
		channel:         ch,
		queue:           settings.Queue,
		deadLetterQueue: dlq,
		deliveries:      deliveries,
		tracer:          otel.Tracer("go-orderflow"),
	}, nil
}

func (r *rabbitMqQueue) Publish(ctx context.Context, msg Message) error {
	_, span := r.tracer.Start(ctx, "Publish",
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("rabbitmq"),
			semconv.MessagingDestinationKey.String(r.queue),
			semconv.MessagingMessageIDKey.String(msg.MessageID),
			semconv.MessagingConversationIDKey.String(msg.CorrelationID),
		),
	)
	defer span.End()

	headers := make(amqp.Table, len(msg.Properties))
	for k, v := range msg.Properties {
		headers[k] = v
	}

	err := r.channel.Publish(
		"", r.queue, false, false,
		amqp.Publishing{
			MessageId:     msg.MessageID,
			CorrelationId: msg.CorrelationID,
			Type:          msg.Subject,
			ContentType:   msg.ContentType,
			Body:          msg.Body,
			Headers:       headers,
			DeliveryMode:  amqp.Persistent,
		},
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.message_payload_size_bytes", len(msg.Body)),
	)

	return nil
}

func (r *rabbitMqQueue) Receive(ctx context.Context) (Delivery, error) {
	select {
	case d, ok := <-r.deliveries:
		if !ok {
			return Delivery{}, ErrClosed
		}
		return r.toDelivery(d), nil
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

func (r *rabbitMqQueue) Ack(ctx context.Context, d Delivery) error {
	return r.channel.Ack(d.tag, false)
}

func (r *rabbitMqQueue) Retry(ctx context.Context, d Delivery) error {
	return r.channel.Nack(d.tag, false, true)
}

func (r *rabbitMqQueue) DeadLetter(ctx context.Context, d Delivery, reason, description string) error {
	headers := make(amqp.Table, len(d.Properties)+3)
	for k, v := range d.Properties {
		headers[k] = v
	}
	headers[headerDeadLetterReason] = reason
	headers[headerDeadLetterDescription] = description
	headers[headerDeliveryCount] = int64(d.DeliveryCount)

	err := r.channel.Publish(
		"", r.deadLetterQueue, false, false,
		amqp.Publishing{
			MessageId:     d.MessageID,
			CorrelationId: d.CorrelationID,
			Type:          d.Subject,
			ContentType:   d.ContentType,
			Body:          d.Body,
			Headers:       headers,
			Timestamp:     d.EnqueuedAt,
			DeliveryMode:  amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to dead-letter queue: %w", err)
	}
	return r.channel.Ack(d.tag, false)
}

// PeekDeadLetters drains up to max messages from the dead-letter queue and
// immediately requeues them, which is the closest AMQP gets to a peek.
func (r *rabbitMqQueue) PeekDeadLetters(ctx context.Context, max int) ([]Delivery, error) {
	var out []Delivery
	var tags []uint64
	requeue := func() {
		for _, tag := range tags {
			if err := r.channel.Nack(tag, false, true); err != nil {
				log.Printf("failed to requeue dead-letter message: %v", err)
			}
		}
	}

	for len(out) < max {
		msg, ok, err := r.channel.Get(r.deadLetterQueue, false)
		if err != nil {
			requeue()
			return nil, fmt.Errorf("failed to read dead-letter queue: %w", err)
		}
		if !ok {
			break
		}
		d := r.toDelivery(msg)
		d.DeadLetter = &DeadLetterInfo{
			Reason:      headerString(msg.Headers, headerDeadLetterReason),
			Description: headerString(msg.Headers, headerDeadLetterDescription),
		}
		out = append(out, d)
		tags = append(tags, msg.DeliveryTag)
	}

	requeue()
	return out, nil
}

func (r *rabbitMqQueue) Close() error {
	if err := r.channel.Close(); err != nil {
		log.Printf("failed to close channel: %v", err)
	}
	return r.connection.Close()
}

func (r *rabbitMqQueue) toDelivery(d amqp.Delivery) Delivery {
	props := make(map[string]string, len(d.Headers))
	count := 0
	for k, v := range d.Headers {
		if k == headerDeliveryCount {
			count = headerInt(v) // prior unsuccessful attempts
			continue
		}
		if s, ok := v.(string); ok {
			props[k] = s
		}
	}
	count++ // the attempt in flight
	if count == 1 && d.Redelivered {
		// classic queues do not carry x-delivery-count
		count = 2
	}
	return Delivery{
		MessageID:     d.MessageId,
		CorrelationID: d.CorrelationId,
		Subject:       d.Type,
		ContentType:   d.ContentType,
		Body:          d.Body,
		DeliveryCount: count,
		EnqueuedAt:    d.Timestamp,
		Properties:    props,
		tag:           d.DeliveryTag,
	}
}

// mainQueueArgs declares the main queue a quorum queue, without which classic
// queues never carry x-delivery-count and the retry ceiling cannot be
// enforced, and routes broker-side rejections to the dead-letter queue.
func mainQueueArgs(dlq string) amqp.Table {
	return amqp.Table{
		"x-queue-type":              "quorum",
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlq,
	}
}

func headerString(headers amqp.Table, key string) string {
	if s, ok := headers[key].(string); ok {
		return s
	}
	return ""
}

func headerInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	}
	return 0
}
