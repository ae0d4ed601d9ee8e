package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	flog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/CreditFox/internal/pkg/archive"
	"github.com/ManuelReschke/CreditFox/internal/pkg/billing"
	"github.com/ManuelReschke/CreditFox/internal/pkg/cache"
	"github.com/ManuelReschke/CreditFox/internal/pkg/database"
	"github.com/ManuelReschke/CreditFox/internal/pkg/env"
	"github.com/ManuelReschke/CreditFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/CreditFox/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	if env.IsDev() {
		flog.SetLevel(flog.LevelDebug)
	}
	database.SetupDatabase()
	cache.SetupCache()

	webhookCounter := counter.NewWebhookCounter(cache.GetClient())
	opts := []billing.ProcessorOption{billing.WithOutcomeRecorder(webhookCounter)}
	if archiver := setupArchive(); archiver != nil {
		opts = append(opts, billing.WithArchiver(archiver))
	}

	processor := billing.NewWebhookProcessor(
		billing.ProcessorConfig{WebhookID: env.GetEnv("PAYPAL_WEBHOOK_ID", "")},
		billing.NewServiceFromDB(database.GetDB()),
		opts...,
	)

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // PayPal events are a few KB
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if specPath := findOpenAPISpec(); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Processor:    processor,
		Counter:      webhookCounter,
		MetricsUsers: metricsUsers(),
	})

	return app
}

func setupArchive() *archive.Client {
	cfg, err := archive.LoadConfig()
	if err != nil {
		flog.Errorf("[Archive] Invalid configuration, archive disabled: %v", err)
		return nil
	}
	if !cfg.IsEnabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := archive.NewClient(ctx, cfg)
	if err != nil {
		flog.Errorf("[Archive] Failed to initialize, archive disabled: %v", err)
		return nil
	}
	return client
}

func metricsUsers() map[string]string {
	password := env.GetEnv("METRICS_PASSWORD", "")
	if password == "" {
		return nil
	}
	return map[string]string{env.GetEnv("METRICS_USER", "admin"): password}
}

func findOpenAPISpec() string {
	// cmd/creditfox is two levels below the project root
	for _, base := range []string{"./", "../../", "../../../"} {
		path := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
