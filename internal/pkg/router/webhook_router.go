package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CreditFox/app/controllers"
)

type WebhookRouter struct {
	webhooks *controllers.PayPalWebhookController
}

func (w WebhookRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", controllers.HandleHealth)

	hooks := app.Group("/webhooks")
	hooks.Post("/paypal", w.webhooks.HandleWebhook)
}

func NewWebhookRouter(processor controllers.WebhookProcessor) *WebhookRouter {
	return &WebhookRouter{webhooks: controllers.NewPayPalWebhookController(processor)}
}
