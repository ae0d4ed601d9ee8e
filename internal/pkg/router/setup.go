package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CreditFox/app/controllers"
)

// Router registers a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the wired collaborators the routes need.
type Dependencies struct {
	Processor controllers.WebhookProcessor
	Counter   controllers.OutcomeSnapshotter
	// MetricsUsers guards the metrics endpoints with basic auth. Empty
	// disables them.
	MetricsUsers map[string]string
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewWebhookRouter(deps.Processor), NewMetricsRouter(deps.Counter, deps.MetricsUsers))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
