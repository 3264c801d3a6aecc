package sns

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/broker/sns/mock"
)

const (
	standardARN = "arn:aws:sns:us-west-2:123456789012:orders"
	fifoARN     = "arn:aws:sns:us-west-2:123456789012:orders.fifo"
)

// fakeTopics serves topic pages keyed by NextToken and records publishes.
// Tests asserting that a call never happens use the generated mock.
type fakeTopics struct {
	mu sync.Mutex

	pages      [][]string
	publishErr error

	listCalls int
	published []*sns.PublishInput
}

func (f *fakeTopics) ListTopics(_ context.Context, in *sns.ListTopicsInput, _ ...func(*sns.Options)) (*sns.ListTopicsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++

	page := 0
	if in.NextToken != nil {
		page, _ = strconv.Atoi(*in.NextToken)
	}

	out := &sns.ListTopicsOutput{}
	if page < len(f.pages) {
		for _, arn := range f.pages[page] {
			out.Topics = append(out.Topics, types.Topic{TopicArn: aws.String(arn)})
		}
	}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String(strconv.Itoa(page + 1))
	}
	return out, nil
}

func (f *fakeTopics) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.published = append(f.published, in)

	out := &sns.PublishOutput{MessageId: aws.String("msg-1")}
	if in.MessageGroupId != nil {
		out.SequenceNumber = aws.String("10000000000000000001")
	}
	return out, nil
}

func (f *fakeTopics) publishes() []*sns.PublishInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*sns.PublishInput(nil), f.published...)
}

func TestNewPublisherRequiresTopic(t *testing.T) {
	_, err := NewPublisher("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, broker.ErrConfiguration))
}

func TestPublishStandardTopic(t *testing.T) {
	f := &fakeTopics{pages: [][]string{{standardARN}}}
	p, err := NewPublisher("orders", WithClient(f))
	require.NoError(t, err)

	res, err := p.Publish(context.Background(), map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", res.MessageID)
	assert.Empty(t, res.SequenceNumber)
	assert.NotNil(t, res.Output)

	pubs := f.publishes()
	require.Len(t, pubs, 1)
	in := pubs[0]
	assert.Equal(t, standardARN, aws.ToString(in.TopicArn))
	assert.Equal(t, MessageStructure, aws.ToString(in.MessageStructure))
	assert.JSONEq(t, `{"default":"{\"id\":1}"}`, aws.ToString(in.Message))
	assert.Nil(t, in.MessageGroupId)
	assert.Nil(t, in.MessageDeduplicationId)
}

func TestPublishFIFOTopicUsesFreshIDs(t *testing.T) {
	f := &fakeTopics{pages: [][]string{{fifoARN}}}
	p, err := NewPublisher("orders.fifo", WithClient(f))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := p.Publish(context.Background(), "hello")
		require.NoError(t, err)
		assert.NotEmpty(t, res.SequenceNumber)
	}

	seen := map[string]bool{}
	for _, in := range f.publishes() {
		group := aws.ToString(in.MessageGroupId)
		dedup := aws.ToString(in.MessageDeduplicationId)
		require.NotEmpty(t, group)
		require.NotEmpty(t, dedup)
		assert.False(t, seen[group])
		assert.False(t, seen[dedup])
		seen[group] = true
		seen[dedup] = true
	}
	assert.Len(t, seen, 6)
}

func TestResolveAcrossPages(t *testing.T) {
	f := &fakeTopics{pages: [][]string{
		{"arn:aws:sns:us-west-2:123456789012:payments"},
		{"arn:aws:sns:us-west-2:123456789012:invoices", standardARN},
	}}
	p, err := NewPublisher("orders", WithClient(f))
	require.NoError(t, err)

	arn, err := p.ARN(context.Background())
	require.NoError(t, err)
	assert.Equal(t, standardARN, arn)
	assert.Equal(t, 2, f.listCalls)

	_, err = p.Publish(context.Background(), []byte(`{"id":2}`))
	require.NoError(t, err)
	assert.Equal(t, 2, f.listCalls, "resolution is cached")
}

func TestResolveNoMatchSkipsPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockClient(ctrl)
	client.EXPECT().ListTopics(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&sns.ListTopicsOutput{Topics: []types.Topic{
			{TopicArn: aws.String("arn:aws:sns:us-west-2:123456789012:payments")},
		}}, nil)
	client.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	p, err := NewPublisher("orders", WithClient(client))
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, broker.ErrTopicResolution))
}

func TestResolveListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cause := errors.New("throttled")
	client := mock.NewMockClient(ctrl)
	client.EXPECT().ListTopics(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, cause)
	client.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	p, err := NewPublisher("orders", WithClient(client))
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, broker.ErrTransport))
	assert.False(t, errors.Is(err, broker.ErrTopicResolution))
	assert.True(t, errors.Is(err, cause))
}

func TestTopicARNOverrideSkipsLookup(t *testing.T) {
	f := &fakeTopics{}
	p, err := NewPublisher("orders", WithClient(f), WithTopicARN(fifoARN))
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "hello")
	require.NoError(t, err)
	assert.Zero(t, f.listCalls)

	pubs := f.publishes()
	require.Len(t, pubs, 1)
	assert.Equal(t, fifoARN, aws.ToString(pubs[0].TopicArn))
	assert.NotNil(t, pubs[0].MessageGroupId)
}

func TestSerializationFailureMakesNoCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockClient(ctrl)
	client.EXPECT().ListTopics(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	client.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	p, err := NewPublisher("orders", WithClient(client))
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), math.Inf(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, broker.ErrSerialization))
}

func TestPublishTransportFailure(t *testing.T) {
	cause := errors.New("connection reset")
	f := &fakeTopics{pages: [][]string{{standardARN}}, publishErr: cause}
	p, err := NewPublisher("orders", WithClient(f))
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, broker.ErrPublish))
	assert.True(t, errors.Is(err, cause))
}

func TestPublishInjectsTraceContext(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	f := &fakeTopics{}
	p, err := NewPublisher("orders", WithClient(f), WithTopicARN(standardARN), WithTracerProvider(provider))
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "hello")
	require.NoError(t, err)

	pubs := f.publishes()
	require.Len(t, pubs, 1)
	carrier := attributeCarrier(pubs[0].MessageAttributes)
	assert.NotEmpty(t, carrier.Get("traceparent"))

	ctx := propagation.TraceContext{}.Extract(context.Background(), carrier)
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, spans[0].SpanContext().TraceID(), trace.SpanContextFromContext(ctx).TraceID())
}

func TestIsFIFO(t *testing.T) {
	assert.True(t, IsFIFO(fifoARN))
	assert.False(t, IsFIFO(standardARN))
}

func TestPublishTextCodec(t *testing.T) {
	f := &fakeTopics{}
	p, err := NewPublisher("orders", WithClient(f), WithTopicARN(standardARN), WithCodec("text"))
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "plain body")
	require.NoError(t, err)

	pubs := f.publishes()
	require.Len(t, pubs, 1)
	assert.JSONEq(t, `{"default":"plain body"}`, aws.ToString(pubs[0].Message))
}

func TestPublishWithPropagator(t *testing.T) {
	f := &fakeTopics{}
	p, err := NewPublisher("orders",
		WithClient(f),
		WithTopicARN(standardARN),
		WithTracerProvider(sdktrace.NewTracerProvider()),
		WithPropagator(propagation.Baggage{}),
		WithTracerName("bridge"),
	)
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "hello")
	require.NoError(t, err)

	pubs := f.publishes()
	require.Len(t, pubs, 1)
	assert.Nil(t, pubs[0].MessageAttributes)
}
