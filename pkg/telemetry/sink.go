package telemetry

import (
	"context"
	"time"
)

// Properties are string-keyed attributes attached to telemetry items.
type Properties map[string]string

// Sink records events, metrics, dependency calls and exceptions emitted
// while processing orders. Implementations must be safe for concurrent use.
// Emission is fire-and-forget; Flush drains any buffered items and is called
// before a delivery handler returns so teardown cannot drop the last batch.
type Sink interface {
	TrackEvent(name string, props Properties)
	TrackMetric(name string, value float64, props Properties)
	TrackDependency(name, depType, data string, duration time.Duration, success bool, props Properties)
	TrackException(err error, props Properties)
	Flush(ctx context.Context) error
}

// Nop is a Sink that discards everything.
type Nop struct{}

func (Nop) TrackEvent(string, Properties)                                           {}
func (Nop) TrackMetric(string, float64, Properties)                                 {}
func (Nop) TrackDependency(string, string, string, time.Duration, bool, Properties) {}
func (Nop) TrackException(error, Properties)                                        {}
func (Nop) Flush(context.Context) error                                             { return nil }
