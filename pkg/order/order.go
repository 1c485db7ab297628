package order

import (
	"math"
	"time"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Item is a single ordered line item.
type Item struct {
	ProductID   string  `json:"productId" validate:"required"`
	ProductName string  `json:"productName" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Price       float64 `json:"price" validate:"required,gt=0"` // unit price in currency units
}

// Metadata carries request context threaded from submission through
// processing and telemetry.
type Metadata struct {
	CorrelationID string `json:"correlationId,omitempty"`
	IPAddress     string `json:"ipAddress,omitempty"`
	UserAgent     string `json:"userAgent,omitempty"`
}

// Order is the business payload carried on the queue. Everything except
// Status is immutable once submitted. OrderID doubles as the idempotency key
// and the message correlation key.
type Order struct {
	OrderID       string    `json:"orderId" validate:"required"`
	CustomerID    string    `json:"customerId" validate:"required"`
	CustomerEmail string    `json:"customerEmail" validate:"required,email"`
	Items         []Item    `json:"items" validate:"required,min=1,dive"`
	TotalAmount   float64   `json:"totalAmount" validate:"gt=0"`
	Currency      string    `json:"currency" validate:"required,iso4217"`
	OrderDate     time.Time `json:"orderDate"`
	Status        Status    `json:"status"`
	Metadata      *Metadata `json:"metadata,omitempty"`
}

// ComputeTotal returns the sum of quantity*price over items, rounded to cents.
func ComputeTotal(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += float64(it.Quantity) * it.Price
	}
	return math.Round(sum*100) / 100
}

// CorrelationID returns the best correlation key available for the order:
// the metadata correlation id when present, the order id otherwise.
func (o *Order) CorrelationID() string {
	if o.Metadata != nil && o.Metadata.CorrelationID != "" {
		return o.Metadata.CorrelationID
	}
	return o.OrderID
}
