package counter

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const webhookOutcomesKey = "webhook:counters:paypal"

// WebhookCounter keeps one Redis hash field per processing outcome.
type WebhookCounter struct {
	client *redis.Client
	key    string
}

// NewWebhookCounter creates a counter on the given client.
func NewWebhookCounter(client *redis.Client) *WebhookCounter {
	return &WebhookCounter{client: client, key: webhookOutcomesKey}
}

// RecordOutcome increments the counter for outcome.
func (c *WebhookCounter) RecordOutcome(ctx context.Context, outcome string) error {
	return c.client.HIncrBy(ctx, c.key, outcome, 1).Err()
}

// Snapshot returns all outcome counters. Fields that are not integers are
// skipped.
func (c *WebhookCounter) Snapshot(ctx context.Context) (map[string]int64, error) {
	data, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(data))
	for field, raw := range data {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}

// Reset drops all counters.
func (c *WebhookCounter) Reset(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
