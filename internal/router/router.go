package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/campuslink-api/internal/config"
	"github.com/campuslink/campuslink-api/internal/handler"
	"github.com/campuslink/campuslink-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ClientHandler     *handler.ClientHandler
	TagHandler        *handler.TagHandler
	MessageHandler    *handler.MessageHandler
	ModerationHandler *handler.ModerationHandler
	EventHandler      *handler.EventHandler
	UploadHandler     *handler.UploadHandler
	RealtimeHandler   *handler.RealtimeHandler
	AuthMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ClientHandler != nil {
		clients := api.Group("/clients")
		deps.ClientHandler.Register(clients)
		deps.ClientHandler.RegisterProtected(clients.Group("", authMiddleware))
	}

	if deps.TagHandler != nil {
		tags := api.Group("/tags")
		deps.TagHandler.Register(tags)
		deps.TagHandler.RegisterProtected(tags.Group("", authMiddleware))
	}

	if deps.MessageHandler != nil {
		deps.MessageHandler.RegisterProtected(api.Group("", authMiddleware))
	}

	if deps.ModerationHandler != nil {
		deps.ModerationHandler.RegisterProtected(api.Group("", authMiddleware))
	}

	if deps.EventHandler != nil {
		deps.EventHandler.Register(api)
		deps.EventHandler.RegisterProtected(api.Group("", authMiddleware))
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.RegisterProtected(api.Group("", authMiddleware))
	}

	// Websocket events carry their own token, so the upgrade route stays open.
	if deps.RealtimeHandler != nil {
		deps.RealtimeHandler.Register(app)
	}
}
