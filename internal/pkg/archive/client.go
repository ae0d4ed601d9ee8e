package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CreditFox/internal/pkg/env"
)

// Client uploads verified webhook payloads to S3.
type Client struct {
	s3Client *s3.Client
	config   *Config
	now      func() time.Time
}

// NewClient creates a new archive client and checks that the bucket is
// reachable.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("payload archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
		now:      time.Now,
	}

	if err := client.testConnection(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Archive] Initialized S3 archive for bucket: %s", cfg.BucketName)
	return client, nil
}

// testConnection checks the bucket and creates it outside production.
func (c *Client) testConnection(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err == nil {
		return nil
	}
	if !env.IsDev() {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}

	log.Warnf("[Archive] Bucket %s not found, attempting to create it", c.config.BucketName)
	input := &s3.CreateBucketInput{
		Bucket: aws.String(c.config.BucketName),
	}
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}
	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.config.BucketName, err)
	}
	return nil
}

// ArchivePayload stores body under the event's object key.
func (c *Client) ArchivePayload(ctx context.Context, eventID string, body []byte) error {
	key := c.config.ObjectKey(eventID, c.now().UTC())

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"event-id":      eventID,
			"upload-source": "creditfox-webhook",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", c.config.BucketName, key, err)
	}

	log.Debugf("[Archive] Stored s3://%s/%s (%d bytes)", c.config.BucketName, key, len(body))
	return nil
}
