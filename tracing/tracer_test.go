package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	traceSdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestProducerConsumerPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := traceSdk.NewTracerProvider(traceSdk.WithSpanProcessor(recorder))

	producer := NewTracer(trace.SpanKindProducer, "sns-publish", WithTracerProvider(tp))
	consumer := NewTracer(trace.SpanKindConsumer, "sqs-receive", WithTracerProvider(tp))

	carrier := propagation.MapCarrier{}

	ctx, span := producer.Start(context.Background(), carrier, attribute.String("topic", "orders"))
	producer.End(ctx, span, nil)
	require.NotEmpty(t, carrier.Get("traceparent"))

	cctx, cspan := consumer.Start(context.Background(), carrier)
	consumer.End(cctx, cspan, assert.AnError)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[0].SpanContext().TraceID(), spans[1].SpanContext().TraceID())
	assert.Equal(t, trace.SpanKindProducer, spans[0].SpanKind())
	assert.Equal(t, trace.SpanKindConsumer, spans[1].SpanKind())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestNewTracerRejectsServerKind(t *testing.T) {
	assert.Panics(t, func() {
		NewTracer(trace.SpanKindServer, "nope")
	})
}

func TestNewTracerProviderWithoutEndpoint(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), ProviderConfig{ServiceName: "bridge", Sampler: 1})
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewExporterRejectsJaeger(t *testing.T) {
	_, err := NewExporter(context.Background(), "jaeger", "localhost:14268", true)
	assert.Error(t, err)
}

func TestNewPropagator(t *testing.T) {
	p, err := NewPropagator(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, p.Fields())

	p, err = NewPropagator([]string{"TraceContext"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"traceparent", "tracestate"}, p.Fields())

	_, err = NewPropagator([]string{"b3"})
	assert.Error(t, err)
}

func TestTracerNameAndPropagator(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := traceSdk.NewTracerProvider(traceSdk.WithSpanProcessor(recorder))

	producer := NewTracer(trace.SpanKindProducer, "sns-publish",
		WithTracerProvider(tp),
		WithTracerName("bridge"),
		WithPropagator(propagation.Baggage{}),
	)

	carrier := propagation.MapCarrier{}
	ctx, span := producer.Start(context.Background(), carrier)
	producer.End(ctx, span, nil)

	assert.Empty(t, carrier.Get("traceparent"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "bridge", spans[0].InstrumentationScope().Name)
}
