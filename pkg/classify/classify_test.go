package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPermanentSignatures(t *testing.T) {
	cases := []string{
		"Payment failed for order abc: Card declined",
		"card declined",
		"Invalid card number",
		"Insufficient funds on account",
		"insufficient inventory for product P1: requested 5, available 2",
		"Invalid order message: missing orderId",
		"Validation failed: currency",
	}
	for _, msg := range cases {
		assert.Equal(t, Permanent, Classify(errors.New(msg)), "message: %s", msg)
	}
}

func TestClassifyTransientSignatures(t *testing.T) {
	cases := []string{
		"dial tcp: connection timeout",
		"read: connection reset by peer",
		"host not found",
		"dial tcp 10.0.0.1:5672: connection refused",
		"upstream returned 503 Service Unavailable",
		"network error while calling gateway",
		"Timeout contacting inventory service",
		"transport: connection error",
	}
	for _, msg := range cases {
		assert.Equal(t, Transient, Classify(errors.New(msg)), "message: %s", msg)
	}
}

func TestClassifyPermanentTakesPriority(t *testing.T) {
	// a permanent signature wins even when a transient one is also present
	err := errors.New("Payment failed: Timeout contacting gateway")
	assert.Equal(t, Permanent, Classify(err))
	assert.False(t, Classify(err).IsTransient())
}

func TestClassifyUnknownDefaultsToPermanent(t *testing.T) {
	assert.Equal(t, Permanent, Classify(errors.New("something completely unexpected")))
	assert.Equal(t, Permanent, Classify(nil))
}

func TestClassifyWrappedErrors(t *testing.T) {
	err := fmt.Errorf("stage failed: %w", context.DeadlineExceeded)
	// context.DeadlineExceeded stringifies to "context deadline exceeded",
	// which carries no known signature on its own
	assert.Equal(t, Permanent, Classify(err))

	wrapped := fmt.Errorf("Check Inventory: connection timeout after 5s: %w", context.DeadlineExceeded)
	assert.Equal(t, Transient, Classify(wrapped))
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "transient", Transient.String())
	assert.Equal(t, "permanent", Permanent.String())
}
