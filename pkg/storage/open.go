package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// EndpointEnv names the environment variable that overrides the S3
// endpoint, for MinIO and other S3-compatible stores.
const EndpointEnv = "DEEPAUDIO_S3_ENDPOINT"

// ParseS3URL splits s3://bucket/prefix into its parts. ok is false for
// locations that are not S3 URLs.
func ParseS3URL(location string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(location, "s3://")
	if !found {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(prefix, "/"), true
}

// Open returns the FileStore for location: an S3Store for s3:// URLs, a
// Local store otherwise.
func Open(_ context.Context, location string) (FileStore, error) {
	bucket, prefix, ok := ParseS3URL(location)
	if !ok {
		s, err := NewLocal(location)
		if err != nil {
			return nil, fmt.Errorf("storage: open %s: %w", location, err)
		}
		return s, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: open %s: missing bucket", location)
	}
	return NewS3(NewS3ClientFromEnv(), bucket, prefix), nil
}

// NewS3ClientFromEnv builds an S3 client from the standard AWS environment
// variables. Without an access key the client sends anonymous requests.
func NewS3ClientFromEnv() *s3.Client {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{Region: region}
	if id := os.Getenv("AWS_ACCESS_KEY_ID"); id != "" {
		creds := aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	if ep := os.Getenv(EndpointEnv); ep != "" {
		opts.BaseEndpoint = aws.String(ep)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}
