package telemetry

import "github.com/google/uuid"

// NewCorrelationID returns a fresh opaque id used to stitch one logical
// order's journey across the submission, queue and processing boundaries.
func NewCorrelationID() string {
	return uuid.NewString()
}
