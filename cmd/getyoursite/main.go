package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/getyoursite/getyoursite/app/controllers"
	"github.com/getyoursite/getyoursite/internal/pkg/cache"
	"github.com/getyoursite/getyoursite/internal/pkg/contact"
	"github.com/getyoursite/getyoursite/internal/pkg/database"
	"github.com/getyoursite/getyoursite/internal/pkg/env"
	"github.com/getyoursite/getyoursite/internal/pkg/mail"
	"github.com/getyoursite/getyoursite/internal/pkg/payment"
	"github.com/getyoursite/getyoursite/internal/pkg/ratelimit"
	"github.com/getyoursite/getyoursite/internal/pkg/router"
	"github.com/getyoursite/getyoursite/internal/pkg/security"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	setupControllers()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20, // contact messages and webhook payloads only
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// security headers and request ids on every response
	app.Use(security.Headers())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	if basePath := findBasePath(); basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app)

	return app
}

func setupControllers() {
	window := env.GetEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	max := env.GetEnvInt("RATE_LIMIT_MAX", 10)
	var counter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if client := cache.GetClient(); client != nil {
		if err := client.Ping(context.Background()).Err(); err == nil {
			counter = ratelimit.NewRedisCounter(client)
		} else {
			log.Printf("redis unavailable, rate limit windows are per-instance: %v", err)
		}
	}
	limiter := ratelimit.NewLimiter(counter, max, window)

	var notifier contact.Notifier
	if n := mail.NewContactNotifierFromEnv(); n != nil {
		notifier = n
	}
	controllers.InitializeContactController(contact.NewService(notifier), limiter)

	if provider := payment.NewStripeProviderFromEnv(); provider != nil {
		db := database.GetDB()
		controllers.InitializePaymentController(payment.NewServiceFromDB(db, provider))
		controllers.InitializeWebhookController(payment.NewProcessorFromDB(db, provider))
	}
}

func findBasePath() string {
	for _, path := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(path + "public/docs"); !os.IsNotExist(err) {
			return path
		}
	}
	return ""
}
