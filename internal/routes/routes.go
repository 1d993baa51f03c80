package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/luminaguard/safety-backend/internal/handlers"
	"github.com/luminaguard/safety-backend/internal/metrics"
	"github.com/luminaguard/safety-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	guard fiber.Handler,
	m *metrics.Metrics,
	authHandler *handlers.AuthHandler,
	alertHandler *handlers.AlertHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Prometheus scrape endpoint, outside the API rate limit
	app.Get("/metrics", m.Handler())

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	authLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	auth.Post("/register", authLimit, authHandler.Register)
	auth.Post("/login", authLimit, authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", guard, authHandler.Me)
	auth.Put("/contacts", guard, authHandler.UpdateContacts)

	// SOS alerts. Static paths are registered before /:id.
	sos := api.Group("/sos", guard)
	sos.Post("/trigger", alertHandler.Trigger)
	sos.Get("/my-alerts", alertHandler.MyAlerts)
	sos.Get("/active", alertHandler.Active)
	sos.Get("/nearby", alertHandler.Nearby)
	sos.Get("/", alertHandler.ByStatus)
	sos.Get("/:id", alertHandler.Get)
	sos.Put("/:id/location", alertHandler.UpdateLocation)
	sos.Put("/:id/resolve", alertHandler.Resolve)
	sos.Put("/:id/false-alarm", alertHandler.FalseAlarm)
	sos.Put("/:id/respond", middleware.AdminRequired(), alertHandler.Respond)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", guard, middleware.AdminRequired())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/deactivate", adminHandler.Deactivate)
	admin.Put("/users/:id/reactivate", adminHandler.Reactivate)
}
