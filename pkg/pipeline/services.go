package pipeline

import (
	"context"

	"github.com/zoff-tech/go-orderflow/pkg/order"
)

// InventoryService checks and commits stock for order items.
type InventoryService interface {
	// Available returns the quantity currently in stock for a product.
	Available(ctx context.Context, productID string) (int, error)
	// Reserve commits previously validated quantities.
	Reserve(ctx context.Context, items []order.Item) error
}

// PaymentGateway charges the computed order total.
type PaymentGateway interface {
	Charge(ctx context.Context, o *order.Order) error
}

// ShippingService creates a shipment and returns its tracking reference.
type ShippingService interface {
	CreateShipment(ctx context.Context, o *order.Order) (string, error)
}
