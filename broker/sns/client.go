package sns

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sns"
)

//go:generate mockgen -package mock -destination mock/client_mock.go github.com/tx7do/kratos-transport-aws/broker/sns Client

// Client is the subset of the SNS API the publisher needs.
type Client interface {
	ListTopics(ctx context.Context, params *sns.ListTopicsInput, optFns ...func(*sns.Options)) (*sns.ListTopicsOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

var _ Client = (*sns.Client)(nil)
