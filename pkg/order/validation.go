package order

import (
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(orderStructValidation, Order{})
	return v
}

// orderStructValidation enforces totalAmount == Σ quantity*price. Amounts are
// compared in whole cents so float accumulation cannot fail a valid order.
func orderStructValidation(sl validator.StructLevel) {
	o := sl.Current().Interface().(Order)

	wantCents := int64(math.Round(ComputeTotal(o.Items) * 100))
	gotCents := int64(math.Round(o.TotalAmount * 100))
	if wantCents != gotCents {
		sl.ReportError(o.TotalAmount, "totalAmount", "TotalAmount", "total_match_items", "")
	}
}

// Validate checks the order against the wire contract, including the
// total-amount invariant.
func (o *Order) Validate() error {
	return validate.Struct(o)
}

// ValidateSubmission checks an inbound submission request.
func ValidateSubmission(req *SubmissionRequest) error {
	return validate.Struct(req)
}
