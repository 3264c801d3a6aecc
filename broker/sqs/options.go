package sqs

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tx7do/kratos-transport-aws/common"
	"github.com/tx7do/kratos-transport-aws/tracing"
)

var (
	DefaultPollInterval = 1 * time.Second
	DefaultMaxMessages  = int32(1)
)

// Options is the listener configuration. Build it from DefaultOptions and
// either functional options or Merge.
type Options struct {
	QueueName string
	QueueURL  string

	// PollInterval is the sleep after an empty receive.
	PollInterval time.Duration
	// WaitTime is the long poll duration of a single receive, in seconds.
	WaitTime    int32
	MaxMessages int32
	// VisibilityTimeout overrides the queue default when positive.
	VisibilityTimeout time.Duration

	MessageAttributeNames []string
	AttributeNames        []string

	Region      string
	Endpoint    string
	CABundle    string
	Credentials *common.Credentials

	// AutoAck acknowledges a message once its handler returns nil.
	AutoAck bool
	// InterruptOnStop lets cancellation abort an in-flight receive instead
	// of waiting for the long poll to finish.
	InterruptOnStop bool
}

func DefaultOptions() Options {
	return Options{
		PollInterval:          DefaultPollInterval,
		WaitTime:              0,
		MaxMessages:           DefaultMaxMessages,
		MessageAttributeNames: []string{""},
		AttributeNames:        []string{"All"},
		Region:                common.DefaultRegion,
	}
}

// Merge returns a copy of o where every non-zero field of override wins.
// Boolean switches can only be turned on by an override.
func (o Options) Merge(override Options) Options {
	out := o
	if override.QueueName != "" {
		out.QueueName = override.QueueName
	}
	if override.QueueURL != "" {
		out.QueueURL = override.QueueURL
	}
	if override.PollInterval > 0 {
		out.PollInterval = override.PollInterval
	}
	if override.WaitTime > 0 {
		out.WaitTime = override.WaitTime
	}
	if override.MaxMessages > 0 {
		out.MaxMessages = override.MaxMessages
	}
	if override.VisibilityTimeout > 0 {
		out.VisibilityTimeout = override.VisibilityTimeout
	}
	if override.MessageAttributeNames != nil {
		out.MessageAttributeNames = override.MessageAttributeNames
	}
	if override.AttributeNames != nil {
		out.AttributeNames = override.AttributeNames
	}
	if override.Region != "" {
		out.Region = override.Region
	}
	if override.Endpoint != "" {
		out.Endpoint = override.Endpoint
	}
	if override.CABundle != "" {
		out.CABundle = override.CABundle
	}
	if override.Credentials != nil {
		out.Credentials = override.Credentials
	}
	out.AutoAck = o.AutoAck || override.AutoAck
	out.InterruptOnStop = o.InterruptOnStop || override.InterruptOnStop
	return out
}

func (o Options) session() common.Session {
	return common.Session{
		Credentials: o.Credentials,
		Region:      o.Region,
		Endpoint:    o.Endpoint,
		CABundle:    o.CABundle,
	}
}

///////////////////////////////////////////////////////////////////////////////

type Option func(*Listener)

func WithOptions(o Options) Option {
	return func(l *Listener) {
		l.opts = l.opts.Merge(o)
	}
}

func WithQueueName(name string) Option {
	return func(l *Listener) {
		l.opts.QueueName = name
	}
}

func WithQueueURL(url string) Option {
	return func(l *Listener) {
		l.opts.QueueURL = url
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(l *Listener) {
		l.opts.PollInterval = d
	}
}

func WithWaitTime(seconds int32) Option {
	return func(l *Listener) {
		l.opts.WaitTime = seconds
	}
}

func WithMaxMessages(n int32) Option {
	return func(l *Listener) {
		l.opts.MaxMessages = n
	}
}

// WithVisibilityTimeout hides received messages from other consumers for d
// instead of the queue default.
func WithVisibilityTimeout(d time.Duration) Option {
	return func(l *Listener) {
		l.opts.VisibilityTimeout = d
	}
}

func WithCredentials(c *common.Credentials) Option {
	return func(l *Listener) {
		l.opts.Credentials = c
	}
}

func WithRegion(region string) Option {
	return func(l *Listener) {
		l.opts.Region = region
	}
}

func WithEndpoint(endpoint string) Option {
	return func(l *Listener) {
		l.opts.Endpoint = endpoint
	}
}

func WithCABundle(path string) Option {
	return func(l *Listener) {
		l.opts.CABundle = path
	}
}

func WithAutoAck() Option {
	return func(l *Listener) {
		l.opts.AutoAck = true
	}
}

func WithInterruptOnStop() Option {
	return func(l *Listener) {
		l.opts.InterruptOnStop = true
	}
}

// WithClient injects a ready client and skips loading the AWS config.
func WithClient(c Client) Option {
	return func(l *Listener) {
		l.client = c
	}
}

func WithLogger(logger log.Logger) Option {
	return func(l *Listener) {
		l.log = log.NewHelper(logger)
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(l *Listener) {
		l.tracingOpts = append(l.tracingOpts, tracing.WithTracerProvider(provider))
	}
}

// WithPropagator replaces the default trace context and baggage propagator
// used for the message attributes.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(l *Listener) {
		l.tracingOpts = append(l.tracingOpts, tracing.WithPropagator(propagator))
	}
}

func WithTracerName(name string) Option {
	return func(l *Listener) {
		l.tracingOpts = append(l.tracingOpts, tracing.WithTracerName(name))
	}
}
