package router

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/getyoursite/getyoursite/app/controllers"
	"github.com/getyoursite/getyoursite/internal/pkg/cache"
	"github.com/getyoursite/getyoursite/internal/pkg/env"
	"github.com/getyoursite/getyoursite/internal/pkg/security"
)

const defaultAllowedOrigins = "https://www.getyoursite.fr,https://getyoursite.fr,http://localhost:3000,*.getyoursite.fr"

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	gate := security.NewOriginGate(env.GetEnvList("ALLOWED_ORIGINS", defaultAllowedOrigins)).Middleware()

	// Coarse per-IP flood guard for the whole API surface, mounted after
	// the origin gate so refused origins consume nothing. The per-route
	// fixed-window limiter inside the contact handler enforces the
	// documented quota with its response headers.
	guard := limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_GUARD_MAX", 120),
		Expiration: env.GetEnvDuration("API_GUARD_WINDOW", time.Minute),
		Storage:    newLimiterStorage(),
		KeyGenerator: func(c *fiber.Ctx) string {
			return controllers.GetClientIP(c)
		},
	})

	api := app.Group("/api", gate, guard)
	api.Get("/contact", controllers.HandleContactHealth)
	api.Post("/contact", controllers.HandleContactSubmit)
	api.Post("/payments/checkout", controllers.HandleCreateCheckout)
	api.Get("/payments/status/:sessionId", controllers.HandleCheckoutStatus)
	api.Post("/webhook/stripe", controllers.HandleStripeWebhook)

	// The original deployment exposed the same handlers without the /api
	// prefix; keep both so older frontends continue to work. Middleware is
	// attached per route here so the flood guard never counts an /api
	// request twice.
	aliases := []struct {
		method  string
		path    string
		handler fiber.Handler
	}{
		{fiber.MethodGet, "/contact", controllers.HandleContactHealth},
		{fiber.MethodPost, "/contact", controllers.HandleContactSubmit},
		{fiber.MethodOptions, "/contact", noContent},
		{fiber.MethodPost, "/payments/checkout", controllers.HandleCreateCheckout},
		{fiber.MethodOptions, "/payments/checkout", noContent},
		{fiber.MethodGet, "/payments/status/:sessionId", controllers.HandleCheckoutStatus},
		{fiber.MethodPost, "/webhook/stripe", controllers.HandleStripeWebhook},
	}
	for _, r := range aliases {
		app.Add(r.method, r.path, gate, guard, r.handler)
	}
}

// noContent terminates preflight requests the origin gate let through.
func noContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// newLimiterStorage backs the flood guard with Redis when the cache is up
// so the window survives restarts and is shared across replicas. Falls
// back to fiber's in-memory storage otherwise.
func newLimiterStorage() fiber.Storage {
	client := cache.GetClient()
	if client == nil || client.Ping(context.Background()).Err() != nil {
		return nil
	}
	host := "localhost"
	port := 6379
	if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: client.Options().Password,
		Database: 1,
		Reset:    false,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
