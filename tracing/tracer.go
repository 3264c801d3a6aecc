package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "kratos-transport-aws"

type Tracer struct {
	tracer   trace.Tracer
	kind     trace.SpanKind
	spanName string
	opt      *options
}

// NewTracer only supports producer and consumer spans.
func NewTracer(kind trace.SpanKind, spanName string, opts ...Option) *Tracer {
	op := options{
		propagator: propagation.NewCompositeTextMapPropagator(propagation.Baggage{}, propagation.TraceContext{}),
		tracerName: defaultTracerName,
	}
	for _, o := range opts {
		o(&op)
	}
	if op.tracerProvider == nil {
		op.tracerProvider = otel.GetTracerProvider()
	}

	switch kind {
	case trace.SpanKindProducer, trace.SpanKindConsumer:
		return &Tracer{
			tracer:   op.tracerProvider.Tracer(op.tracerName),
			kind:     kind,
			spanName: spanName,
			opt:      &op,
		}
	default:
		panic(fmt.Sprintf("unsupported span kind: %v", kind))
	}
}

func (t *Tracer) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	t.opt.propagator.Inject(ctx, carrier)
}

// Start extracts the remote parent for consumers and injects the new span for producers.
func (t *Tracer) Start(ctx context.Context, carrier propagation.TextMapCarrier, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t.kind == trace.SpanKindConsumer {
		ctx = t.opt.propagator.Extract(ctx, carrier)
	}

	ctx, span := t.tracer.Start(ctx, t.spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(t.kind),
	)

	if t.kind == trace.SpanKindProducer {
		t.Inject(ctx, carrier)
	}

	return ctx, span
}

func (t *Tracer) End(_ context.Context, span trace.Span, err error, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}
