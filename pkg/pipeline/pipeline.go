// Package pipeline runs one order through the staged processing state
// machine: validate inventory, process payment, reserve inventory, create
// shipment.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/zoff-tech/go-orderflow/pkg/order"
	"github.com/zoff-tech/go-orderflow/pkg/telemetry"
)

const defaultStageTimeout = 5 * time.Second

// Pipeline executes the four processing stages strictly in sequence. The
// first stage failure marks the order Failed and aborts the rest; retry
// happens at the message-delivery level, never per stage.
type Pipeline struct {
	inventory    InventoryService
	payments     PaymentGateway
	shipping     ShippingService
	telemetry    telemetry.Sink
	logger       *slog.Logger
	stageTimeout time.Duration
}

func New(inventory InventoryService, payments PaymentGateway, shipping ShippingService,
	sink telemetry.Sink, logger *slog.Logger, stageTimeout time.Duration) *Pipeline {
	if sink == nil {
		sink = telemetry.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if stageTimeout <= 0 {
		stageTimeout = defaultStageTimeout
	}
	return &Pipeline{
		inventory:    inventory,
		payments:     payments,
		shipping:     shipping,
		telemetry:    sink,
		logger:       logger,
		stageTimeout: stageTimeout,
	}
}

type stage struct {
	name           string
	data           string
	service        string
	durationMetric string // empty when the stage emits no duration metric
	run            func(context.Context, *order.Order) error
}

// Process mutates the order status through Processing to Completed or
// Failed and returns the first stage error, if any.
func (p *Pipeline) Process(ctx context.Context, o *order.Order) error {
	p.logger.Info("starting order processing", "orderId", o.OrderID)
	o.Status = order.StatusProcessing

	stages := []stage{
		{"Check Inventory", "POST /api/inventory/check", "InventoryService", "InventoryCheckDuration", p.validateInventory},
		{"Process Payment", "POST /api/payment/process", "PaymentGateway", "PaymentProcessingDuration", p.processPayment},
		{"Reserve Inventory", "POST /api/inventory/reserve", "InventoryService", "", p.reserveInventory},
		{"Create Shipment", "POST /api/shipping/create", "ShippingService", "", p.createShipment},
	}

	for _, st := range stages {
		if err := p.runStage(ctx, o, st); err != nil {
			o.Status = order.StatusFailed
			p.logger.Error("order processing failed",
				"orderId", o.OrderID, "stage", st.name, "error", err)
			return err
		}
	}

	o.Status = order.StatusCompleted
	p.logger.Info("order processed successfully", "orderId", o.OrderID)
	return nil
}

// runStage times the stage, enforces the per-stage timeout and reports the
// call to telemetry as a dependency. A deadline hit surfaces as a connection
// timeout so the classifier treats it as transient.
func (p *Pipeline) runStage(ctx context.Context, o *order.Order, st stage) error {
	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	err := st.run(stageCtx, o)
	if err == nil && stageCtx.Err() != nil {
		err = stageCtx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%s: connection timeout after %s", st.name, p.stageTimeout)
	}
	duration := time.Since(start)

	props := telemetry.Properties{
		"orderId":       o.OrderID,
		"correlationId": o.CorrelationID(),
		"service":       st.service,
	}
	if err != nil {
		props["error"] = err.Error()
		p.telemetry.TrackDependency(st.name, "HTTP", st.data, duration, false, props)
		return err
	}

	props["itemCount"] = strconv.Itoa(len(o.Items))
	p.telemetry.TrackDependency(st.name, "HTTP", st.data, duration, true, props)
	if st.durationMetric != "" {
		p.telemetry.TrackMetric(st.durationMetric, float64(duration.Milliseconds()),
			telemetry.Properties{"orderId": o.OrderID})
	}
	return nil
}

func (p *Pipeline) validateInventory(ctx context.Context, o *order.Order) error {
	for _, item := range o.Items {
		available, err := p.inventory.Available(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if available < item.Quantity {
			return fmt.Errorf("insufficient inventory for product %s: requested %d, available %d",
				item.ProductID, item.Quantity, available)
		}
		p.logger.Debug("inventory validated",
			"orderId", o.OrderID, "product", item.ProductName, "quantity", item.Quantity)
	}
	return nil
}

func (p *Pipeline) processPayment(ctx context.Context, o *order.Order) error {
	if err := p.payments.Charge(ctx, o); err != nil {
		return err
	}
	p.telemetry.TrackMetric("PaymentAmount", o.TotalAmount,
		telemetry.Properties{"currency": o.Currency})
	p.logger.Info("payment processed",
		"orderId", o.OrderID, "amount", o.TotalAmount, "currency", o.Currency)
	return nil
}

func (p *Pipeline) reserveInventory(ctx context.Context, o *order.Order) error {
	if err := p.inventory.Reserve(ctx, o.Items); err != nil {
		return err
	}
	for _, item := range o.Items {
		p.logger.Debug("inventory reserved",
			"orderId", o.OrderID, "product", item.ProductID, "quantity", item.Quantity)
	}
	return nil
}

func (p *Pipeline) createShipment(ctx context.Context, o *order.Order) error {
	tracking, err := p.shipping.CreateShipment(ctx, o)
	if err != nil {
		return err
	}
	p.telemetry.TrackEvent("ShipmentCreated", telemetry.Properties{
		"orderId":        o.OrderID,
		"trackingNumber": tracking,
	})
	p.logger.Info("shipment created", "orderId", o.OrderID, "trackingNumber", tracking)
	return nil
}
