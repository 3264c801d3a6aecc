package tracing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	traceSdk "go.opentelemetry.io/otel/sdk/trace"
	semConv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderConfig describes where spans go and how the service identifies itself.
type ProviderConfig struct {
	Exporter    string   `json:"exporter"`
	Endpoint    string   `json:"endpoint"`
	Insecure    bool     `json:"insecure"`
	ServiceName string   `json:"service_name"`
	InstanceID  string   `json:"instance_id"`
	Version     string   `json:"version"`
	Sampler     float64  `json:"sampler"`
	TracerName  string   `json:"tracer_name"`
	Propagators []string `json:"propagators"`
}

// NewTracerProvider creates a tracer provider. Without an endpoint no exporter is attached.
func NewTracerProvider(ctx context.Context, c ProviderConfig) (*traceSdk.TracerProvider, error) {
	if c.InstanceID == "" {
		c.InstanceID = uuid.NewString()
	}
	if c.Version == "" {
		c.Version = "x.x.x"
	}

	opts := []traceSdk.TracerProviderOption{
		traceSdk.WithSampler(traceSdk.ParentBased(traceSdk.TraceIDRatioBased(c.Sampler))),
		traceSdk.WithResource(resource.NewSchemaless(
			semConv.ServiceName(c.ServiceName),
			semConv.ServiceInstanceID(c.InstanceID),
			semConv.ServiceVersion(c.Version),
		)),
	}

	if len(c.Endpoint) > 0 {
		exp, err := NewExporter(ctx, c.Exporter, c.Endpoint, c.Insecure)
		if err != nil {
			return nil, err
		}

		opts = append(opts, traceSdk.WithBatcher(exp))
	}

	return traceSdk.NewTracerProvider(opts...), nil
}

// NewPropagator builds the message attribute propagator from names:
// tracecontext and baggage. No names selects both.
func NewPropagator(names []string) (propagation.TextMapPropagator, error) {
	if len(names) == 0 {
		names = []string{"baggage", "tracecontext"}
	}

	props := make([]propagation.TextMapPropagator, 0, len(names))
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "tracecontext":
			props = append(props, propagation.TraceContext{})
		case "baggage":
			props = append(props, propagation.Baggage{})
		default:
			return nil, fmt.Errorf("unsupported propagator: %s", n)
		}
	}
	return propagation.NewCompositeTextMapPropagator(props...), nil
}
