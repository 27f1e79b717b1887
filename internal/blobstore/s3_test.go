package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

func testS3Config() S3Config {
	return S3Config{
		RootUser:     "minioadmin",
		RootPassword: "minioadmin",
		Bucket:       "records",
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000",
	}
}

func TestNewS3Store_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		require.NotEmpty(t, optFns, "expected config options")
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		require.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)

		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		require.Equal(t, "minioadmin", creds.AccessKeyID)
		require.Equal(t, "minioadmin", creds.SecretAccessKey)

		return aws.Config{}, nil
	}

	var capturedBaseEndpoint string
	var capturedPathStyle bool
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		require.NotNil(t, opts.BaseEndpoint, "BaseEndpoint not set")
		capturedBaseEndpoint = *opts.BaseEndpoint
		capturedPathStyle = opts.UsePathStyle
		return &s3.Client{}
	}

	store, err := NewS3Store(context.Background(), testS3Config())
	require.NoError(t, err)
	require.Equal(t, "records", store.bucket)
	require.Equal(t, "http://127.0.0.1:9000", capturedBaseEndpoint)
	require.True(t, capturedPathStyle, "MinIO needs path-style addressing")
}

func TestNewS3Store_NoBaseEndpoint(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		require.Nil(t, opts.BaseEndpoint, "BaseEndpoint must stay unset for real AWS")
		return &s3.Client{}
	}

	cfg := testS3Config()
	cfg.BaseEndpoint = ""
	_, err := NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}

	_, err := NewS3Store(context.Background(), testS3Config())
	require.ErrorContains(t, err, "s3 config error")
}
