package tracing

import (
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	tracerProvider trace.TracerProvider
	propagator     propagation.TextMapPropagator
	tracerName     string
}

type Option func(*options)

// WithTracerName sets the instrumentation name spans are reported under.
func WithTracerName(tracerName string) Option {
	return func(opts *options) {
		if tracerName != "" {
			opts.tracerName = tracerName
		}
	}
}

func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(opts *options) {
		if propagator != nil {
			opts.propagator = propagator
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(opts *options) {
		opts.tracerProvider = provider
	}
}
