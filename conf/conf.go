package conf

import (
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	_ "github.com/go-kratos/kratos/v2/encoding/yaml"

	"github.com/tx7do/kratos-transport-aws/broker"
	"github.com/tx7do/kratos-transport-aws/broker/sns"
	"github.com/tx7do/kratos-transport-aws/broker/sqs"
	"github.com/tx7do/kratos-transport-aws/common"
	"github.com/tx7do/kratos-transport-aws/tracing"
)

// EnvPrefix marks environment variables that take part in configuration.
// BRIDGE_QUEUE_NAME is visible to placeholders as ${QUEUE_NAME}.
const EnvPrefix = "BRIDGE_"

type Bootstrap struct {
	Server     Server                 `json:"server"`
	Listener   Listener               `json:"listener"`
	Publishers []Publisher            `json:"publishers"`
	Merges     []Merge                `json:"merges"`
	Tracing    tracing.ProviderConfig `json:"tracing"`
	KeepAlive  KeepAlive              `json:"keepalive"`
}

type Server struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Forward is the mediator stream every received message is published to.
	Forward string `json:"forward"`
	// JoinTimeout bounds a listener stop, in seconds. Zero waits forever.
	JoinTimeout int `json:"join_timeout"`
}

// Listener mirrors sqs.Options. Durations are whole seconds.
type Listener struct {
	QueueName             string              `json:"queue_name"`
	QueueURL              string              `json:"queue_url"`
	PollInterval          int                 `json:"poll_interval"`
	WaitTime              int32               `json:"wait_time"`
	MaxMessages           int32               `json:"max_number_of_messages"`
	VisibilityTimeout     int                 `json:"visibility_timeout"`
	MessageAttributeNames []string            `json:"message_attribute_names"`
	AttributeNames        []string            `json:"attribute_names"`
	Region                string              `json:"region"`
	Endpoint              string              `json:"endpoint"`
	CABundle              string              `json:"ca_bundle"`
	Credentials           *common.Credentials `json:"credentials"`
	AutoAck               bool                `json:"auto_ack"`
	InterruptOnStop       bool                `json:"interrupt_on_stop"`
}

// Publisher registers one topic with the mediator.
type Publisher struct {
	Topic       string              `json:"topic"`
	TopicARN    string              `json:"topic_arn"`
	Region      string              `json:"region"`
	Endpoint    string              `json:"endpoint"`
	CABundle    string              `json:"ca_bundle"`
	Codec       string              `json:"codec"`
	Credentials *common.Credentials `json:"credentials"`
}

// Merge fans Stream out to the publishers of Topics.
type Merge struct {
	Stream string   `json:"stream"`
	Topics []string `json:"topics"`
}

type KeepAlive struct {
	Disabled bool   `json:"disabled"`
	Address  string `json:"address"`
}

// Load reads the YAML or JSON file at path. Values may reference prefixed
// environment variables with ${NAME:default}.
func Load(path string) (*Bootstrap, error) {
	c := config.New(
		config.WithSource(
			file.NewSource(path),
			env.NewSource(EnvPrefix),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, broker.Errorf(broker.ErrConfiguration, err, "load config %s failed", path)
	}

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, broker.Errorf(broker.ErrConfiguration, err, "parse config %s failed", path)
	}
	return &bc, nil
}

// ListenerOptions merges the configured listener onto sqs.DefaultOptions.
func (b *Bootstrap) ListenerOptions() sqs.Options {
	l := b.Listener
	return sqs.DefaultOptions().Merge(sqs.Options{
		QueueName:             l.QueueName,
		QueueURL:              l.QueueURL,
		PollInterval:          seconds(l.PollInterval),
		WaitTime:              l.WaitTime,
		MaxMessages:           l.MaxMessages,
		VisibilityTimeout:     seconds(l.VisibilityTimeout),
		MessageAttributeNames: l.MessageAttributeNames,
		AttributeNames:        l.AttributeNames,
		Region:                l.Region,
		Endpoint:              l.Endpoint,
		CABundle:              l.CABundle,
		Credentials:           l.Credentials,
		AutoAck:               l.AutoAck,
		InterruptOnStop:       l.InterruptOnStop,
	})
}

// Options converts a publisher entry into sns options.
func (p Publisher) Options() []sns.Option {
	var opts []sns.Option
	if p.TopicARN != "" {
		opts = append(opts, sns.WithTopicARN(p.TopicARN))
	}
	if p.Region != "" {
		opts = append(opts, sns.WithRegion(p.Region))
	}
	if p.Endpoint != "" {
		opts = append(opts, sns.WithEndpoint(p.Endpoint))
	}
	if p.CABundle != "" {
		opts = append(opts, sns.WithCABundle(p.CABundle))
	}
	if p.Codec != "" {
		opts = append(opts, sns.WithCodec(p.Codec))
	}
	return opts
}

func (s Server) JoinTimeoutDuration() time.Duration {
	return seconds(s.JoinTimeout)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
