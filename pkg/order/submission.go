package order

import "time"

// DefaultCurrency is applied when a submission omits the currency code.
const DefaultCurrency = "USD"

// SubmissionRequest is the payload accepted by the submission boundary.
// The total amount is always computed server-side.
type SubmissionRequest struct {
	CustomerID    string `json:"customerId" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	Items         []Item `json:"items" validate:"required,min=1,dive"`
	Currency      string `json:"currency" validate:"omitempty,iso4217"`
}

// SubmissionResponse is returned to the caller after the order is enqueued.
// Processing outcomes are observable only through telemetry.
type SubmissionResponse struct {
	OrderID string `json:"orderId"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// FromSubmission builds a new submitted Order from a validated request.
func FromSubmission(req SubmissionRequest, orderID string, now time.Time, meta *Metadata) *Order {
	currency := req.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Order{
		OrderID:       orderID,
		CustomerID:    req.CustomerID,
		CustomerEmail: req.CustomerEmail,
		Items:         req.Items,
		TotalAmount:   ComputeTotal(req.Items),
		Currency:      currency,
		OrderDate:     now,
		Status:        StatusSubmitted,
		Metadata:      meta,
	}
}
