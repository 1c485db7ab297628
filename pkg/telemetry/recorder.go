package telemetry

import (
	"context"
	"sync"
	"time"
)

// RecordedEvent is one TrackEvent call captured by a Recorder.
type RecordedEvent struct {
	Name  string
	Props Properties
}

// RecordedMetric is one TrackMetric call captured by a Recorder.
type RecordedMetric struct {
	Name  string
	Value float64
	Props Properties
}

// RecordedDependency is one TrackDependency call captured by a Recorder.
type RecordedDependency struct {
	Name     string
	Type     string
	Data     string
	Duration time.Duration
	Success  bool
	Props    Properties
}

// Recorder is a Sink that captures every item in memory for assertions.
type Recorder struct {
	mu           sync.Mutex
	events       []RecordedEvent
	metrics      []RecordedMetric
	dependencies []RecordedDependency
	exceptions   []error
	flushes      int
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) TrackEvent(name string, props Properties) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Name: name, Props: props})
}

func (r *Recorder) TrackMetric(name string, value float64, props Properties) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, RecordedMetric{Name: name, Value: value, Props: props})
}

func (r *Recorder) TrackDependency(name, depType, data string, duration time.Duration, success bool, props Properties) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dependencies = append(r.dependencies, RecordedDependency{
		Name: name, Type: depType, Data: data,
		Duration: duration, Success: success, Props: props,
	})
}

func (r *Recorder) TrackException(err error, props Properties) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions = append(r.exceptions, err)
}

func (r *Recorder) Flush(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return nil
}

// Events returns a copy of the captured events.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}

// EventCount returns how many events with the given name were captured.
func (r *Recorder) EventCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Metrics returns a copy of the captured metrics.
func (r *Recorder) Metrics() []RecordedMetric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedMetric(nil), r.metrics...)
}

// Metric returns the first captured metric with the given name.
func (r *Recorder) Metric(name string) (RecordedMetric, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.metrics {
		if m.Name == name {
			return m, true
		}
	}
	return RecordedMetric{}, false
}

// Dependencies returns a copy of the captured dependency calls.
func (r *Recorder) Dependencies() []RecordedDependency {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedDependency(nil), r.dependencies...)
}

// Exceptions returns a copy of the captured exceptions.
func (r *Recorder) Exceptions() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.exceptions...)
}

// FlushCount returns how many times Flush was called.
func (r *Recorder) FlushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}
