package sns

import (
	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tx7do/kratos-transport-aws/common"
	"github.com/tx7do/kratos-transport-aws/tracing"
)

type Option func(*Publisher)

func WithCredentials(c *common.Credentials) Option {
	return func(p *Publisher) {
		p.session.Credentials = c
	}
}

func WithRegion(region string) Option {
	return func(p *Publisher) {
		p.session.Region = region
	}
}

func WithEndpoint(endpoint string) Option {
	return func(p *Publisher) {
		p.session.Endpoint = endpoint
	}
}

func WithCABundle(path string) Option {
	return func(p *Publisher) {
		p.session.CABundle = path
	}
}

// WithTopicARN skips topic lookup and publishes to arn directly.
func WithTopicARN(arn string) Option {
	return func(p *Publisher) {
		p.arnOverride = arn
	}
}

// WithClient injects a ready client and skips loading the AWS config.
func WithClient(c Client) Option {
	return func(p *Publisher) {
		p.client = c
	}
}

// WithCodec set codec, support: json, proto, text.
func WithCodec(name string) Option {
	return func(p *Publisher) {
		p.codec = encoding.GetCodec(name)
	}
}

func WithLogger(logger log.Logger) Option {
	return func(p *Publisher) {
		p.log = log.NewHelper(logger)
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(p *Publisher) {
		p.tracingOpts = append(p.tracingOpts, tracing.WithTracerProvider(provider))
	}
}

// WithPropagator replaces the default trace context and baggage propagator
// used for the message attributes.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(p *Publisher) {
		p.tracingOpts = append(p.tracingOpts, tracing.WithPropagator(propagator))
	}
}

func WithTracerName(name string) Option {
	return func(p *Publisher) {
		p.tracingOpts = append(p.tracingOpts, tracing.WithTracerName(name))
	}
}
