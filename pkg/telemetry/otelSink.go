package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "go-orderflow"

// OtelSink records telemetry items as OpenTelemetry spans on the global
// tracer provider. Events, metrics and exceptions become zero-length spans
// carrying the item attributes; dependency calls become client spans whose
// start is backdated so span duration matches the measured call.
type OtelSink struct {
	tracer trace.Tracer
	logger *slog.Logger
}

func NewOtelSink(logger *slog.Logger) *OtelSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &OtelSink{
		tracer: otel.Tracer(tracerName),
		logger: logger,
	}
}

func (s *OtelSink) TrackEvent(name string, props Properties) {
	_, span := s.tracer.Start(context.Background(), name,
		trace.WithAttributes(attrs("event", props)...))
	span.End()
	s.logger.Debug("telemetry event", "name", name, "properties", props)
}

func (s *OtelSink) TrackMetric(name string, value float64, props Properties) {
	_, span := s.tracer.Start(context.Background(), name,
		trace.WithAttributes(append(attrs("metric", props),
			attribute.Float64("metric.value", value))...))
	span.End()
	s.logger.Debug("telemetry metric", "name", name, "value", value, "properties", props)
}

func (s *OtelSink) TrackDependency(name, depType, data string, duration time.Duration, success bool, props Properties) {
	_, span := s.tracer.Start(context.Background(), name,
		trace.WithTimestamp(time.Now().Add(-duration)),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs("dependency", props),
			attribute.String("dependency.type", depType),
			attribute.String("dependency.data", data),
			attribute.Bool("dependency.success", success))...))
	if !success {
		span.SetStatus(codes.Error, name)
	}
	span.End()
	s.logger.Debug("telemetry dependency",
		"name", name, "type", depType, "duration", duration, "success", success)
}

func (s *OtelSink) TrackException(err error, props Properties) {
	_, span := s.tracer.Start(context.Background(), "exception",
		trace.WithAttributes(attrs("exception", props)...))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
	s.logger.Debug("telemetry exception", "error", err, "properties", props)
}

// Flush forces the span batcher to export before the caller returns.
func (s *OtelSink) Flush(ctx context.Context) error {
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		return tp.ForceFlush(ctx)
	}
	return nil
}

func attrs(kind string, props Properties) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(props)+1)
	kvs = append(kvs, attribute.String("telemetry.kind", kind))
	for k, v := range props {
		kvs = append(kvs, attribute.String(k, v))
	}
	return kvs
}
