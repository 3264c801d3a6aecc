package sqs

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/tracing"
)

const spanName = "sqs-receive"

// Listener polls a single SQS queue and hands every received message,
// with its acknowledge action, to a handler.
type Listener struct {
	opts Options

	client Client
	log    *log.Helper

	tracingOpts []tracing.Option
	tracer      *tracing.Tracer

	mu        sync.Mutex
	connected bool

	sleep func(ctx context.Context, d time.Duration) bool
}

// NewListener fails with broker.ErrConfiguration when neither a queue name
// nor a queue URL is configured.
func NewListener(opts ...Option) (*Listener, error) {
	l := &Listener{
		opts:  DefaultOptions(),
		log:   log.NewHelper(log.GetLogger()),
		sleep: sleepContext,
	}

	for _, o := range opts {
		o(l)
	}

	if l.opts.QueueName == "" && l.opts.QueueURL != "" {
		l.opts.QueueName = queueNameFromURL(l.opts.QueueURL)
	}
	if l.opts.QueueName == "" {
		return nil, broker.Errorf(broker.ErrConfiguration, nil,
			"queue name is required, set it in the options or pass it in as a parameter")
	}

	l.tracer = tracing.NewTracer(trace.SpanKindConsumer, spanName, l.tracingOpts...)

	return l, nil
}

func (l *Listener) Name() string {
	return "sqs"
}

func (l *Listener) Options() Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts
}

// QueueURL returns the resolved queue URL, empty until the first connect
// when only a name was configured.
func (l *Listener) QueueURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts.QueueURL
}

// Connect acquires the client, verifies the queue exists and resolves its
// URL. It only talks to SQS until the first success.
func (l *Listener) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected {
		return nil
	}

	if l.client == nil {
		cfg, err := l.opts.session().LoadConfig(ctx)
		if err != nil {
			return broker.Errorf(broker.ErrTransport, err, "load aws config for queue %s failed", l.opts.QueueName)
		}
		l.client = sqs.NewFromConfig(cfg)
	}

	exists, err := l.queueExists(ctx)
	if err != nil {
		return broker.Errorf(broker.ErrTransport, err, "list queues for %s failed", l.opts.QueueName)
	}
	if !exists {
		return broker.Errorf(broker.ErrQueueNotFound, nil, "the queue %s does not exist", l.opts.QueueName)
	}

	if err = l.resolveQueueURL(ctx); err != nil {
		return err
	}

	l.connected = true
	return nil
}

func (l *Listener) queueExists(ctx context.Context) (bool, error) {
	p := sqs.NewListQueuesPaginator(l.client, &sqs.ListQueuesInput{
		QueueNamePrefix: aws.String(l.opts.QueueName),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return false, err
		}
		for _, u := range page.QueueUrls {
			if queueNameFromURL(u) == l.opts.QueueName {
				return true, nil
			}
		}
	}
	return false, nil
}

func (l *Listener) resolveQueueURL(ctx context.Context) error {
	if l.opts.QueueURL != "" {
		return nil
	}

	out, err := l.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(l.opts.QueueName),
	})
	if err != nil {
		return broker.Errorf(broker.ErrTransport, err, "get url of queue %s failed", l.opts.QueueName)
	}
	if out == nil || aws.ToString(out.QueueUrl) == "" {
		return broker.Errorf(broker.ErrQueueNotFound, nil, "the queue %s doesn't have a QueueUrl", l.opts.QueueName)
	}

	l.opts.QueueURL = aws.ToString(out.QueueUrl)
	return nil
}

// Receive runs a single receive request. A response without messages yields
// an empty slice.
func (l *Listener) Receive(ctx context.Context) ([]broker.Event, error) {
	if err := l.Connect(ctx); err != nil {
		return nil, err
	}

	rctx := ctx
	if !l.opts.InterruptOnStop {
		rctx = context.WithoutCancel(ctx)
	}

	out, err := l.client.ReceiveMessage(rctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(l.opts.QueueURL),
		MessageAttributeNames:       l.opts.MessageAttributeNames,
		MessageSystemAttributeNames: systemAttributeNames(l.opts.AttributeNames),
		WaitTimeSeconds:             l.opts.WaitTime,
		MaxNumberOfMessages:         l.opts.MaxMessages,
		VisibilityTimeout:           int32(l.opts.VisibilityTimeout / time.Second),
	})
	if err != nil {
		return nil, broker.Errorf(broker.ErrTransport, err, "receive from queue %s failed", l.opts.QueueName)
	}
	if out == nil || len(out.Messages) == 0 {
		return nil, nil
	}

	events := make([]broker.Event, 0, len(out.Messages))
	for _, m := range out.Messages {
		events = append(events, l.newPublication(ctx, m))
	}
	return events, nil
}

// Listen blocks until ctx is cancelled, returning nil, or until a receive
// fails, returning the error. Cancellation is observed between poll cycles
// and during the first connect; an in-flight receive finishes first unless
// InterruptOnStop is set.
func (l *Listener) Listen(ctx context.Context, handler broker.Handler) error {
	if handler == nil {
		return broker.Errorf(broker.ErrConfiguration, nil, "handler is required")
	}

	if err := l.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			l.log.Infof("[sqs] listener on %s stopped while connecting", l.opts.QueueName)
			return nil
		}
		return err
	}

	l.log.Infof("[sqs] listening on: %s", l.QueueURL())

	for {
		if ctx.Err() != nil {
			l.log.Infof("[sqs] listener on %s stopped", l.opts.QueueName)
			return nil
		}

		events, err := l.Receive(ctx)
		if err != nil {
			if l.opts.InterruptOnStop && ctx.Err() != nil {
				continue
			}
			l.log.Errorf("[sqs] %v", err)
			return err
		}

		if len(events) == 0 {
			l.sleep(ctx, l.opts.PollInterval)
			continue
		}

		for _, evt := range events {
			l.dispatch(ctx, handler, evt.(*publication))
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, handler broker.Handler, p *publication) {
	carrier := attributeCarrier(p.raw.MessageAttributes)
	hctx, span := l.tracer.Start(ctx, carrier,
		attribute.String("messaging.system", "aws_sqs"),
		attribute.String("messaging.destination.name", p.queue),
		attribute.String("messaging.message.id", aws.ToString(p.raw.MessageId)),
	)

	err := handler(hctx, p)
	if err != nil {
		p.err = err
		l.log.Errorf("[sqs] process message [%s] failed: %v", aws.ToString(p.raw.MessageId), err)
	} else if l.opts.AutoAck {
		if err = p.Ack(); err != nil {
			l.log.Errorf("[sqs] unable to ack message [%s]: %v", aws.ToString(p.raw.MessageId), err)
		}
	}

	l.tracer.End(hctx, span, err)
}

func (l *Listener) deleteMessage(ctx context.Context, queueURL, receipt string) error {
	_, err := l.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	})
	if err != nil {
		return broker.Errorf(broker.ErrTransport, err, "delete message from queue %s failed", l.opts.QueueName)
	}
	return nil
}

func systemAttributeNames(names []string) []types.MessageSystemAttributeName {
	if names == nil {
		return nil
	}
	out := make([]types.MessageSystemAttributeName, 0, len(names))
	for _, n := range names {
		out = append(out, types.MessageSystemAttributeName(n))
	}
	return out
}

func queueNameFromURL(u string) string {
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
