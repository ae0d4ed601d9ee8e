package archive

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ManuelReschke/CreditFox/internal/pkg/env"
)

// Config holds the S3 settings for the webhook payload archive.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Prefix          string
	Enabled         bool
}

// LoadConfig loads archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Prefix:          env.GetEnv("ARCHIVE_PREFIX", "webhooks/paypal"),
		Enabled:         env.GetBool("ARCHIVE_ENABLED", false),
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the archive is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the payload archive is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// ObjectKey builds prefix/YYYY/MM/<event-id>.json. Events without an id get
// a timestamp name.
func (c *Config) ObjectKey(eventID string, at time.Time) string {
	name := unsafeKeyChars.ReplaceAllString(eventID, "_")
	if name == "" {
		name = fmt.Sprintf("unidentified-%d", at.UnixNano())
	}
	return fmt.Sprintf("%s/%04d/%02d/%s.json", c.Prefix, at.Year(), int(at.Month()), name)
}
