// Package classify maps processing errors to a retry decision.
package classify

import "strings"

// Classification buckets an error by whether a retry can succeed.
type Classification int

const (
	// Permanent failures reproduce identically on redelivery and go straight
	// to the dead-letter queue.
	Permanent Classification = iota
	// Transient failures are infrastructure hiccups worth retrying.
	Transient
)

func (c Classification) String() string {
	if c == Transient {
		return "transient"
	}
	return "permanent"
}

// IsTransient reports whether a retry may succeed.
func (c Classification) IsTransient() bool { return c == Transient }

// permanentSignatures are business-rule failures. Checked before the
// transient list, so "Payment failed: Timeout contacting gateway" stays
// permanent.
var permanentSignatures = []string{
	"payment failed",
	"card declined",
	"invalid card",
	"insufficient funds",
	"insufficient inventory",
	"invalid order",
	"validation failed",
}

var transientSignatures = []string{
	"connection timeout",
	"connection reset",
	"host not found",
	"connection refused",
	"service unavailable",
	"network error",
	"timeout",
	"connection error",
}

// Classify maps an error to Transient or Permanent by case-insensitive
// substring match over its message. Errors matching neither list are
// Permanent, so unknown failures never retry without bound.
func Classify(err error) Classification {
	if err == nil {
		return Permanent
	}
	msg := strings.ToLower(err.Error())

	for _, sig := range permanentSignatures {
		if strings.Contains(msg, sig) {
			return Permanent
		}
	}
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return Transient
		}
	}
	return Permanent
}
