// Package monitor periodically inspects the dead-letter sub-queue and logs
// its contents for manual triage. It never removes, requeues or alerts;
// paging and replay tooling live outside this service.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/zoff-tech/go-orderflow/pkg/order"
	"github.com/zoff-tech/go-orderflow/pkg/queue"
	"github.com/zoff-tech/go-orderflow/pkg/telemetry"
)

const (
	DefaultInterval  = 5 * time.Minute
	DefaultBatchSize = 10
)

type Monitor struct {
	dlq       queue.DeadLetterQueue
	telemetry telemetry.Sink
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func New(dlq queue.DeadLetterQueue, sink telemetry.Sink, logger *slog.Logger,
	interval time.Duration, batchSize int) *Monitor {
	if sink == nil {
		sink = telemetry.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Monitor{
		dlq:       dlq,
		telemetry: sink,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run sweeps the dead-letter queue on a fixed schedule until ctx ends.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep peeks one batch and reports every message. A message that cannot be
// decoded is reported on its own; it never aborts the rest of the batch.
func (m *Monitor) Sweep(ctx context.Context) {
	msgs, err := m.dlq.PeekDeadLetters(ctx, m.batchSize)
	if err != nil {
		m.logger.Error("dead-letter peek failed", "error", err)
		return
	}
	if len(msgs) == 0 {
		m.logger.Info("dead-letter queue empty")
		return
	}

	m.logger.Warn("messages found in dead-letter queue", "count", len(msgs))
	for _, d := range msgs {
		m.report(d)
	}
}

func (m *Monitor) report(d queue.Delivery) {
	var reason, description string
	if d.DeadLetter != nil {
		reason = d.DeadLetter.Reason
		description = d.DeadLetter.Description
	}

	var o order.Order
	if err := json.Unmarshal(d.Body, &o); err != nil {
		m.logger.Error("undecodable dead-letter payload",
			"messageId", d.MessageID,
			"deliveryCount", d.DeliveryCount,
			"enqueuedAt", d.EnqueuedAt,
			"reason", reason,
			"description", description,
			"error", err,
			"payload", string(d.Body))
		m.telemetry.TrackException(
			fmt.Errorf("undecodable dead-letter payload for message %s: %w", d.MessageID, err),
			telemetry.Properties{"messageId": d.MessageID})
		return
	}

	m.logger.Error("dead-lettered order found",
		"messageId", d.MessageID,
		"orderId", o.OrderID,
		"customerId", o.CustomerID,
		"deliveryCount", d.DeliveryCount,
		"enqueuedAt", d.EnqueuedAt,
		"reason", reason,
		"description", description,
		"payload", string(d.Body))

	m.telemetry.TrackEvent("DeadLetterMessageFound", telemetry.Properties{
		"messageId":     d.MessageID,
		"orderId":       o.OrderID,
		"customerId":    o.CustomerID,
		"deliveryCount": strconv.Itoa(d.DeliveryCount),
		"reason":        reason,
		"description":   description,
	})
}
