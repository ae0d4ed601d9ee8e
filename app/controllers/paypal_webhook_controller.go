package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CreditFox/internal/pkg/billing"
)

const webhookProcessingTimeout = 15 * time.Second

// WebhookProcessor is implemented by *billing.WebhookProcessor.
type WebhookProcessor interface {
	Process(ctx context.Context, n billing.Notification) (*billing.Outcome, error)
}

type PayPalWebhookController struct {
	processor WebhookProcessor
}

func NewPayPalWebhookController(processor WebhookProcessor) *PayPalWebhookController {
	return &PayPalWebhookController{processor: processor}
}

// HandleWebhook serves POST /webhooks/paypal.
func (pc *PayPalWebhookController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.Body()...)
	notification := billing.Notification{
		Headers: billing.TransmissionHeaders{
			TransmissionID:   strings.TrimSpace(c.Get("paypal-transmission-id")),
			TransmissionTime: strings.TrimSpace(c.Get("paypal-transmission-time")),
			TransmissionSig:  strings.TrimSpace(c.Get("paypal-transmission-sig")),
			CertURL:          strings.TrimSpace(c.Get("paypal-cert-url")),
		},
		Body: rawBody,
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookProcessingTimeout)
	defer cancel()

	if _, err := pc.processor.Process(ctx, notification); err != nil {
		return writeWebhookError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed successfully"})
}

func writeWebhookError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrWebhookNotConfigured):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Server configuration error",
			"details": "PAYPAL_WEBHOOK_ID is not defined",
		})
	case errors.Is(err, billing.ErrInvalidSignature):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	case errors.Is(err, billing.ErrMalformedPayload):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	case errors.Is(err, billing.ErrMissingIdentifier):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Custom ID is undefined"})
	case errors.Is(err, billing.ErrInvalidIdentifierFormat):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Custom ID is not in the expected format"})
	case errors.Is(err, billing.ErrMissingTransactionID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Resource ID is undefined"})
	case errors.Is(err, billing.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Order amount is missing or invalid"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}
}
