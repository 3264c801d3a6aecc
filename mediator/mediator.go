package mediator

import (
	"context"
	"sort"
	"sync"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/broker/sns"
	"github.com/tx7do/kratos-transport-aws/common"
)

// SubscriberFunc receives every message published to the stream it is
// subscribed to.
type SubscriberFunc func(ctx context.Context, msg any) error

// TopicPublisher is the part of sns.Publisher the mediator depends on.
type TopicPublisher interface {
	Topic() string
	Publish(ctx context.Context, payload any) (*sns.PublishResult, error)
}

var _ TopicPublisher = (*sns.Publisher)(nil)

type PublisherFactory func(topic string, opts ...sns.Option) (TopicPublisher, error)

func newSNSPublisher(topic string, opts ...sns.Option) (TopicPublisher, error) {
	return sns.NewPublisher(topic, opts...)
}

type Option func(*Mediator)

// WithPublisherFactory replaces how RegisterTopic builds publishers.
func WithPublisherFactory(f PublisherFactory) Option {
	return func(m *Mediator) {
		m.newPublisher = f
	}
}

func WithLogger(logger log.Logger) Option {
	return func(m *Mediator) {
		m.log = log.NewHelper(logger)
	}
}

// Mediator maps stream names to ordered subscriber lists and topic names to
// their publishers.
type Mediator struct {
	mu      sync.RWMutex
	streams map[string][]SubscriberFunc
	topics  map[string]TopicPublisher

	newPublisher PublisherFactory
	log          *log.Helper
}

func New(opts ...Option) *Mediator {
	m := &Mediator{
		streams:      make(map[string][]SubscriberFunc),
		topics:       make(map[string]TopicPublisher),
		newPublisher: newSNSPublisher,
		log:          log.NewHelper(log.GetLogger()),
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// RegisterTopic builds a publisher for name and makes it the only subscriber
// of the stream with the same name. A second registration replaces both the
// publisher and every subscriber of that stream.
func (m *Mediator) RegisterTopic(name string, creds *common.Credentials, opts ...sns.Option) error {
	if creds != nil {
		opts = append([]sns.Option{sns.WithCredentials(creds)}, opts...)
	}

	p, err := m.newPublisher(name, opts...)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.topics[name]; ok {
		m.log.Warnf("[mediator] topic %s registered again, previous subscribers dropped", name)
	}
	m.topics[name] = p
	m.streams[name] = []SubscriberFunc{publishTo(p)}

	return nil
}

// Subscribe appends fn to stream, creating the stream if needed.
func (m *Mediator) Subscribe(stream string, fn SubscriberFunc) error {
	if fn == nil {
		return broker.Errorf(broker.ErrConfiguration, nil, "subscriber for stream %s is nil", stream)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.streams[stream] = append(m.streams[stream], fn)
	return nil
}

// Publish delivers msg to the subscribers present when the call started, in
// subscription order. The first subscriber error stops delivery.
func (m *Mediator) Publish(ctx context.Context, stream string, msg any) error {
	m.mu.RLock()
	subs, ok := m.streams[stream]
	snapshot := append([]SubscriberFunc(nil), subs...)
	m.mu.RUnlock()

	if !ok {
		return broker.Errorf(broker.ErrStreamNotFound, nil, "stream %s is not registered", stream).
			WithMetadata(map[string]string{"stream": stream})
	}

	for i, fn := range snapshot {
		if err := fn(ctx, msg); err != nil {
			m.log.Errorf("[mediator] subscriber %d of stream %s failed: %v", i, stream, err)
			return err
		}
	}

	return nil
}

// MergeTopics subscribes the publisher of every named topic to stream. It
// stops at the first unregistered topic and keeps the subscriptions already
// made.
func (m *Mediator) MergeTopics(stream string, topics []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range topics {
		p, ok := m.topics[name]
		if !ok {
			return broker.Errorf(broker.ErrTopicNotRegistered, nil, "the topic %s is not registered", name).
				WithMetadata(map[string]string{"topic": name})
		}
		m.streams[stream] = append(m.streams[stream], publishTo(p))
	}

	return nil
}

// Publisher returns the publisher registered for topic.
func (m *Mediator) Publisher(topic string) (TopicPublisher, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.topics[topic]
	return p, ok
}

func (m *Mediator) Streams() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.streams)
}

func (m *Mediator) Topics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.topics)
}

func publishTo(p TopicPublisher) SubscriberFunc {
	return func(ctx context.Context, msg any) error {
		_, err := p.Publish(ctx, msg)
		return err
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
