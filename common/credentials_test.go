package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ENDPOINT_URL", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Session{}.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, cfg.Region)
}

func TestLoadConfigStaticCredentials(t *testing.T) {
	isolateEnv(t)

	s := Session{
		Credentials: &Credentials{Name: "bridge", AccessKey: "AKID", SecretKey: "SECRET"},
		Region:      "eu-central-1",
		Endpoint:    "http://localhost:4566",
	}

	cfg, err := s.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Region)
	assert.Equal(t, aws.String("http://localhost:4566"), cfg.BaseEndpoint)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "SECRET", creds.SecretAccessKey)
}

func TestLoadConfigMissingCABundle(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvCABundle, "")
	os.Unsetenv(EnvCABundle)

	s := Session{CABundle: filepath.Join(t.TempDir(), "missing.pem")}
	_, err := s.LoadConfig(context.Background())
	assert.Error(t, err)
}
