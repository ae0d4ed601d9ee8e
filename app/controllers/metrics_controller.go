package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// OutcomeSnapshotter is implemented by *counter.WebhookCounter.
type OutcomeSnapshotter interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

type MetricsController struct {
	counter OutcomeSnapshotter
}

func NewMetricsController(counter OutcomeSnapshotter) *MetricsController {
	return &MetricsController{counter: counter}
}

// HandleWebhookCounters returns the per-outcome webhook counters.
func (mc *MetricsController) HandleWebhookCounters(c *fiber.Ctx) error {
	if mc.counter == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Counters are not available"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	counts, err := mc.counter.Snapshot(ctx)
	if err != nil {
		log.Errorf("[Metrics] Failed to read webhook counters: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"provider": "paypal", "outcomes": counts})
}

// HandleHealth answers liveness probes.
func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
