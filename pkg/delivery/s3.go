package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the subset of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config locates a bucket. Endpoint and static keys are optional and mainly
// used for S3 compatible stores.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Sink uploads artifacts to Bucket under Prefix.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink wraps an existing client.
func NewS3Sink(client PutObjectAPI, bucket, prefix string) (*S3Sink, error) {
	if client == nil {
		return nil, errors.New("delivery: s3 client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("delivery: s3 bucket is required")
	}
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// OpenS3Sink loads the default AWS configuration, applies cfg overrides and
// returns a sink backed by a new client.
func OpenS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	var loaders []func(*awsConfig.LoadOptions) error
	if cfg.Region != "" {
		loaders = append(loaders, awsConfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loaders = append(loaders, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	sdkConfig, err := awsConfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("delivery: load aws config: %w", err)
	}
	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3Sink(client, cfg.Bucket, cfg.Prefix)
}

// Key returns the object key used for name.
func (s *S3Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Deliver uploads the artifact and returns its s3:// location.
func (s *S3Sink) Deliver(ctx context.Context, artifact Artifact) (string, error) {
	name, err := cleanName(artifact.Name)
	if err != nil {
		return "", err
	}
	key := s.Key(name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(artifact.Data),
	}
	if artifact.ContentType != "" {
		input.ContentType = aws.String(artifact.ContentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("delivery: put s3://%s/%s: %w", s.bucket, key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
