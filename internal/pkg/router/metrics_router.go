package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/CreditFox/app/controllers"
)

type MetricsRouter struct {
	metrics *controllers.MetricsController
	users   map[string]string
}

func (m MetricsRouter) InstallRouter(app *fiber.App) {
	if len(m.users) == 0 {
		log.Warn("[Router] METRICS_PASSWORD is not set, metrics endpoints are disabled")
		return
	}

	auth := basicauth.New(basicauth.Config{Users: m.users})

	// fiber metrics
	app.Get("/metrics", auth, monitor.New())
	app.Get("/metrics/webhooks", auth, m.metrics.HandleWebhookCounters)
}

func NewMetricsRouter(counter controllers.OutcomeSnapshotter, users map[string]string) *MetricsRouter {
	return &MetricsRouter{metrics: controllers.NewMetricsController(counter), users: users}
}
