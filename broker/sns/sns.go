package sns

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/common"
	"github.com/tx7do/kratos-transport-aws/tracing"
)

const (
	spanName = "sns-publish"

	// MessageStructure json lets the envelope carry per-protocol bodies.
	MessageStructure = "json"

	fifoSuffix = "fifo"
)

// Envelope is the wire body of every publish. Default is delivered to all
// protocols without a dedicated entry.
type Envelope struct {
	Default string `json:"default"`
}

// PublishResult confirms a publish. SequenceNumber is only set by FIFO topics.
type PublishResult struct {
	MessageID      string
	SequenceNumber string
	Output         *sns.PublishOutput
}

// Publisher publishes payloads to one SNS topic.
type Publisher struct {
	topic       string
	session     common.Session
	arnOverride string

	client Client
	codec  encoding.Codec
	log    *log.Helper

	tracingOpts []tracing.Option
	tracer      *tracing.Tracer

	mu  sync.Mutex
	arn string

	newID func() string
}

// NewPublisher fails with broker.ErrConfiguration on an empty topic name.
func NewPublisher(topic string, opts ...Option) (*Publisher, error) {
	if topic == "" {
		return nil, broker.Errorf(broker.ErrConfiguration, nil, "topic name is required")
	}

	p := &Publisher{
		topic:   topic,
		session: common.Session{Region: common.DefaultRegion},
		codec:   encoding.GetCodec(broker.DefaultCodecName),
		log:     log.NewHelper(log.GetLogger()),
		newID:   uuid.NewString,
	}

	for _, o := range opts {
		o(p)
	}

	p.tracer = tracing.NewTracer(trace.SpanKindProducer, spanName, p.tracingOpts...)

	return p, nil
}

func (p *Publisher) Name() string {
	return "sns"
}

// Topic returns the configured topic name.
func (p *Publisher) Topic() string {
	return p.topic
}

// Publish serializes payload into the envelope and submits it. FIFO topics
// get a fresh group and deduplication id on every call.
func (p *Publisher) Publish(ctx context.Context, payload any) (*PublishResult, error) {
	body, err := p.encode(payload)
	if err != nil {
		return nil, err
	}

	arn, err := p.ARN(ctx)
	if err != nil {
		return nil, err
	}

	carrier := attributeCarrier{}
	ctx, span := p.tracer.Start(ctx, carrier,
		attribute.String("messaging.system", "aws_sns"),
		attribute.String("messaging.destination.name", p.topic),
	)

	in := &sns.PublishInput{
		TopicArn:         aws.String(arn),
		Message:          aws.String(body),
		MessageStructure: aws.String(MessageStructure),
	}
	if len(carrier) > 0 {
		in.MessageAttributes = carrier
	}

	fifo := IsFIFO(arn)
	if fifo {
		in.MessageGroupId = aws.String(p.newID())
		in.MessageDeduplicationId = aws.String(p.newID())
	}

	out, err := p.client.Publish(ctx, in)
	if err != nil {
		err = broker.Errorf(broker.ErrPublish, err, "publish to topic %s failed", p.topic)
		p.tracer.End(ctx, span, err)
		return nil, err
	}

	res := &PublishResult{Output: out}
	if out != nil {
		res.MessageID = aws.ToString(out.MessageId)
		res.SequenceNumber = aws.ToString(out.SequenceNumber)
	}

	p.tracer.End(ctx, span, nil, attribute.String("messaging.message.id", res.MessageID))
	p.log.Debugf("[sns] published message [%s] to %s (fifo=%v)", res.MessageID, arn, fifo)

	return res, nil
}

func (p *Publisher) encode(payload any) (string, error) {
	data, err := broker.Marshal(p.codec, payload)
	if err != nil {
		return "", broker.Errorf(broker.ErrSerialization, err, "sns message has invalid format")
	}

	envelope, err := encoding.GetCodec("json").Marshal(&Envelope{Default: string(data)})
	if err != nil {
		return "", broker.Errorf(broker.ErrSerialization, err, "sns envelope has invalid format")
	}
	return string(envelope), nil
}

// ARN resolves the topic address once: the configured override, otherwise
// the first listed topic whose ARN ends with the topic name. A failing list
// call is a transport error, no match is a resolution error.
func (p *Publisher) ARN(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(ctx); err != nil {
		return "", err
	}

	if p.arn != "" {
		return p.arn, nil
	}

	if p.arnOverride != "" {
		p.arn = p.arnOverride
		return p.arn, nil
	}

	pager := sns.NewListTopicsPaginator(p.client, &sns.ListTopicsInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", broker.Errorf(broker.ErrTransport, err, "list topics for %s failed", p.topic)
		}
		for _, t := range page.Topics {
			if arn := aws.ToString(t.TopicArn); strings.HasSuffix(arn, p.topic) {
				p.arn = arn
				return p.arn, nil
			}
		}
	}

	return "", broker.Errorf(broker.ErrTopicResolution, nil, "unable to find topic arn for %s", p.topic)
}

func (p *Publisher) connect(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	cfg, err := p.session.LoadConfig(ctx)
	if err != nil {
		return broker.Errorf(broker.ErrTransport, err, "load aws config for topic %s failed", p.topic)
	}
	p.client = sns.NewFromConfig(cfg)
	return nil
}

// IsFIFO reports whether arn addresses an ordered topic.
func IsFIFO(arn string) bool {
	return strings.HasSuffix(arn, fifoSuffix)
}
