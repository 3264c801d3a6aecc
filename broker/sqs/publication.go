package sqs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/tx7do/kratos-transport-aws/broker"
)

const (
	HeaderMessageID = "sqs-message-id"
	HeaderQueue     = "sqs-queue"
)

var _ broker.Event = (*publication)(nil)

type publication struct {
	queue   string
	message *broker.Message
	raw     types.Message
	ack     func() error
	err     error
}

func (p *publication) Topic() string {
	return p.queue
}

func (p *publication) Message() *broker.Message {
	return p.message
}

func (p *publication) RawMessage() any {
	return p.raw
}

func (p *publication) Ack() error {
	return p.ack()
}

func (p *publication) Error() error {
	return p.err
}

// newPublication captures the receipt handle so the ack stays valid after
// the listener context is cancelled.
func (l *Listener) newPublication(ctx context.Context, m types.Message) *publication {
	queueURL := l.opts.QueueURL
	receipt := aws.ToString(m.ReceiptHandle)
	ackCtx := context.WithoutCancel(ctx)

	headers := broker.Headers{
		HeaderMessageID: aws.ToString(m.MessageId),
		HeaderQueue:     l.opts.QueueName,
	}
	for k, v := range m.MessageAttributes {
		if v.StringValue != nil {
			headers[k] = *v.StringValue
		}
	}
	for k, v := range m.Attributes {
		headers[k] = v
	}

	return &publication{
		queue:   l.opts.QueueName,
		message: &broker.Message{Headers: headers, Body: []byte(aws.ToString(m.Body))},
		raw:     m,
		ack: func() error {
			return l.deleteMessage(ackCtx, queueURL, receipt)
		},
	}
}
