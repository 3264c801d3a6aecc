package common

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const (
	DefaultRegion = "us-west-2"

	// EnvCABundle is honoured by the SDK itself, an explicit bundle only
	// applies when it is unset.
	EnvCABundle = "AWS_CA_BUNDLE"
)

// Credentials is a static IAM access key pair.
type Credentials struct {
	Name      string `json:"name,omitempty"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

func (c *Credentials) valid() bool {
	return c != nil && c.AccessKey != "" && c.SecretKey != ""
}

// Session describes how to reach an AWS service. Zero values fall back to
// the ambient default chain.
type Session struct {
	Credentials *Credentials
	Region      string
	Endpoint    string
	CABundle    string
}

// LoadConfig builds an aws.Config from the session.
func (s Session) LoadConfig(ctx context.Context) (aws.Config, error) {
	region := s.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if s.Credentials.valid() {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.Credentials.AccessKey, s.Credentials.SecretKey, ""),
		))
	}

	if s.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(s.Endpoint))
	}

	if s.CABundle != "" && os.Getenv(EnvCABundle) == "" {
		f, err := os.Open(s.CABundle)
		if err != nil {
			return aws.Config{}, err
		}
		defer f.Close()
		opts = append(opts, config.WithCustomCABundle(f))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}
