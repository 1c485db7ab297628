// Package consumer drives the per-delivery state machine: dedup check,
// pipeline run, and the retry-or-dead-letter decision on failure.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/zoff-tech/go-orderflow/pkg/classify"
	"github.com/zoff-tech/go-orderflow/pkg/idempotency"
	"github.com/zoff-tech/go-orderflow/pkg/order"
	"github.com/zoff-tech/go-orderflow/pkg/pipeline"
	"github.com/zoff-tech/go-orderflow/pkg/queue"
	"github.com/zoff-tech/go-orderflow/pkg/telemetry"
)

// DefaultMaxDeliveries is the delivery-count ceiling: a transient failure on
// the fifth delivery dead-letters instead of retrying.
const DefaultMaxDeliveries = 5

// Status is the terminal disposition of one delivery.
type Status int

const (
	Completed Status = iota
	Duplicate
	Rejected
	Retried
	DeadLettered
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Duplicate:
		return "duplicate"
	case Rejected:
		return "rejected"
	case Retried:
		return "retried"
	case DeadLettered:
		return "dead-lettered"
	}
	return "unknown"
}

// Outcome tells the hosting adapter how to settle the delivery. The consumer
// never nacks or dead-letters directly; retry policy stays here, broker
// mechanics stay with the caller.
type Outcome struct {
	Status Status
	Reason string
	Err    error
}

// Consumer processes one delivery at a time. Multiple consumers may run
// concurrently against the same store; ordering across distinct orders is
// not guaranteed.
type Consumer struct {
	store         idempotency.Store
	pipeline      *pipeline.Pipeline
	telemetry     telemetry.Sink
	logger        *slog.Logger
	maxDeliveries int
}

func New(store idempotency.Store, pl *pipeline.Pipeline, sink telemetry.Sink,
	logger *slog.Logger, maxDeliveries int) *Consumer {
	if sink == nil {
		sink = telemetry.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxDeliveries <= 0 {
		maxDeliveries = DefaultMaxDeliveries
	}
	return &Consumer{
		store:         store,
		pipeline:      pl,
		telemetry:     sink,
		logger:        logger,
		maxDeliveries: maxDeliveries,
	}
}

// Handle runs the per-delivery state machine and reports the outcome for the
// caller to apply to the broker. Telemetry is flushed on every path before
// returning.
func (c *Consumer) Handle(ctx context.Context, d queue.Delivery) Outcome {
	start := time.Now()

	if d.DeliveryCount <= 0 {
		// the broker may omit the counter on first delivery; normalize here
		// so telemetry and the retry decision report the same count
		d.DeliveryCount = 1
	}

	var o order.Order
	if err := json.Unmarshal(d.Body, &o); err != nil {
		return c.reject(ctx, d, fmt.Errorf("malformed order payload: %w", err))
	}
	if o.OrderID == "" {
		return c.reject(ctx, d, errors.New("invalid order message: missing orderId"))
	}

	correlationID := d.CorrelationID
	if correlationID == "" {
		correlationID = o.CorrelationID()
	}

	c.telemetry.TrackEvent("OrderProcessingStarted", telemetry.Properties{
		"messageId":     d.MessageID,
		"deliveryCount": strconv.Itoa(d.DeliveryCount),
		"correlationId": correlationID,
	})

	if !d.EnqueuedAt.IsZero() {
		c.telemetry.TrackMetric("MessageQueueAge",
			float64(time.Since(d.EnqueuedAt).Milliseconds()),
			telemetry.Properties{"orderId": o.OrderID})
	}

	processed, err := c.store.IsProcessed(ctx, o.OrderID)
	if err != nil {
		// Store outage is infrastructure, not a business failure: retry
		// within the ceiling rather than classifying the wrapped error.
		return c.storeUnavailable(ctx, d, correlationID, err)
	}
	if processed {
		duplicatesDetected.Inc()
		c.logger.Warn("duplicate delivery skipped",
			"orderId", o.OrderID, "messageId", d.MessageID, "deliveryCount", d.DeliveryCount)
		c.telemetry.TrackEvent("OrderDuplicateDetected", telemetry.Properties{
			"orderId":       o.OrderID,
			"correlationId": correlationID,
			"deliveryCount": strconv.Itoa(d.DeliveryCount),
		})
		c.flush(ctx)
		return Outcome{Status: Duplicate, Reason: "order already processed"}
	}

	if err := c.pipeline.Process(ctx, &o); err != nil {
		if errors.Is(err, context.Canceled) {
			return c.interrupted(d, err)
		}
		return c.fail(ctx, d, correlationID, err, start)
	}

	if err := c.store.MarkProcessed(ctx, o.OrderID); err != nil {
		// Effects are applied; a failed mark only widens the duplicate
		// window, so log and acknowledge anyway.
		c.logger.Error("failed to mark order processed",
			"orderId", o.OrderID, "error", err)
	}

	duration := time.Since(start)
	ordersProcessed.Inc()
	processingDuration.Observe(duration.Seconds())

	c.telemetry.TrackEvent("OrderProcessed", telemetry.Properties{
		"orderId":       o.OrderID,
		"customerId":    o.CustomerID,
		"totalAmount":   strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
		"currency":      o.Currency,
		"itemsCount":    strconv.Itoa(len(o.Items)),
		"status":        string(o.Status),
		"correlationId": correlationID,
	})
	c.telemetry.TrackMetric("OrderProcessingDuration", float64(duration.Milliseconds()),
		telemetry.Properties{"orderId": o.OrderID, "status": string(o.Status)})
	c.telemetry.TrackMetric("OrderValue", o.TotalAmount,
		telemetry.Properties{"currency": o.Currency, "status": string(o.Status)})

	c.logger.Info("order processed",
		"orderId", o.OrderID, "duration", duration, "totalAmount", o.TotalAmount, "currency", o.Currency)
	c.flush(ctx)
	return Outcome{Status: Completed}
}

// Run consumes deliveries until ctx ends, settling each one according to its
// outcome.
func (c *Consumer) Run(ctx context.Context, src queue.Source) error {
	for {
		d, err := src.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			if errors.Is(err, queue.ErrClosed) {
				return nil
			}
			c.logger.Error("receive failed", "error", err)
			continue
		}

		out := c.Handle(ctx, d)

		var settleErr error
		switch out.Status {
		case Completed, Duplicate, Rejected:
			settleErr = src.Ack(ctx, d)
		case Retried:
			settleErr = src.Retry(ctx, d)
		case DeadLettered:
			desc := ""
			if out.Err != nil {
				desc = out.Err.Error()
			}
			settleErr = src.DeadLetter(ctx, d, out.Reason, desc)
		}
		if settleErr != nil {
			c.logger.Error("failed to settle delivery",
				"messageId", d.MessageID, "outcome", out.Status.String(), "error", settleErr)
		}
	}
}

// reject drops a message that can never parse into an order. Permanent by
// construction, no retry.
func (c *Consumer) reject(ctx context.Context, d queue.Delivery, err error) Outcome {
	ordersRejected.Inc()
	c.logger.Error("dropping malformed message", "messageId", d.MessageID, "error", err)
	c.telemetry.TrackException(err, telemetry.Properties{
		"messageId":     d.MessageID,
		"deliveryCount": strconv.Itoa(d.DeliveryCount),
	})
	c.flush(ctx)
	return Outcome{Status: Rejected, Reason: err.Error(), Err: err}
}

func (c *Consumer) fail(ctx context.Context, d queue.Delivery, correlationID string, err error, start time.Time) Outcome {
	duration := time.Since(start)
	classification := classify.Classify(err)

	props := telemetry.Properties{
		"messageId":     d.MessageID,
		"deliveryCount": strconv.Itoa(d.DeliveryCount),
		"correlationId": correlationID,
		"duration":      strconv.FormatInt(duration.Milliseconds(), 10),
	}
	c.telemetry.TrackException(err, props)
	c.telemetry.TrackEvent("OrderProcessingFailed", telemetry.Properties{
		"messageId":     d.MessageID,
		"deliveryCount": strconv.Itoa(d.DeliveryCount),
		"correlationId": correlationID,
		"error":         err.Error(),
	})
	c.telemetry.TrackMetric("OrderProcessingError", 1,
		telemetry.Properties{"errorType": classification.String()})
	defer c.flush(ctx)

	if classification.IsTransient() && d.DeliveryCount < c.maxDeliveries {
		ordersRetried.Inc()
		c.logger.Warn("transient failure, message will be redelivered",
			"messageId", d.MessageID, "deliveryCount", d.DeliveryCount, "error", err)
		return Outcome{Status: Retried, Reason: err.Error(), Err: err}
	}

	ordersDeadLettered.Inc()
	c.logger.Error("routing message to dead-letter queue",
		"messageId", d.MessageID, "deliveryCount", d.DeliveryCount,
		"classification", classification.String(), "error", err)
	return Outcome{
		Status: DeadLettered,
		Reason: classification.String() + " failure",
		Err:    err,
	}
}

func (c *Consumer) storeUnavailable(ctx context.Context, d queue.Delivery, correlationID string, err error) Outcome {
	c.telemetry.TrackException(err, telemetry.Properties{
		"messageId":     d.MessageID,
		"correlationId": correlationID,
	})
	defer c.flush(ctx)

	if d.DeliveryCount < c.maxDeliveries {
		ordersRetried.Inc()
		c.logger.Warn("idempotency store unavailable, message will be redelivered",
			"messageId", d.MessageID, "error", err)
		return Outcome{Status: Retried, Reason: "idempotency store unavailable", Err: err}
	}
	ordersDeadLettered.Inc()
	return Outcome{Status: DeadLettered, Reason: "idempotency store unavailable", Err: err}
}

// interrupted handles a pipeline run cut short by host shutdown. The order did
// not fail; the delivery goes back to the queue so the next consumer instance
// picks it up.
func (c *Consumer) interrupted(d queue.Delivery, err error) Outcome {
	ordersRetried.Inc()
	c.logger.Warn("processing interrupted by shutdown, message will be redelivered",
		"messageId", d.MessageID, "deliveryCount", d.DeliveryCount)
	return Outcome{Status: Retried, Reason: "processing interrupted by shutdown", Err: err}
}

func (c *Consumer) flush(ctx context.Context) {
	if err := c.telemetry.Flush(ctx); err != nil {
		c.logger.Warn("telemetry flush failed", "error", err)
	}
}
