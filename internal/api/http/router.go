package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chat-service/internal/api/http/handlers"
	"github.com/spec-kit/chat-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Chats          *handlers.ChatsHandler
	Messages       *handlers.MessagesHandler
	Tasks          *handlers.TasksHandler
	Subscriptions  *handlers.SubscriptionsHandler
	Files          *handlers.FilesHandler
	Realtime       *handlers.RealtimeHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// signed URLs are self-authorizing
	app.Get("/files/:key", cfg.Files.Get)

	app.Post("/auth/register", cfg.Auth.Register)
	app.Post("/auth/login", cfg.Auth.Login)
	app.Post("/auth/staff/register", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.Auth.RegisterStaff)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	api.Get("/chats", cfg.Chats.List)
	api.Post("/chats", cfg.Chats.Create)
	api.Get("/chats/:id", cfg.Chats.Get)

	api.Get("/chats/:id/messages", cfg.Messages.List)
	api.Post("/chats/:id/messages", cfg.Messages.Send)
	api.Patch("/messages/:id", cfg.Messages.Edit)
	api.Delete("/messages/:id", cfg.Messages.Delete)

	api.Get("/chats/:id/tasks", cfg.Tasks.List)
	api.Post("/chats/:id/tasks", cfg.Tasks.Create)
	api.Patch("/tasks/:id", cfg.Tasks.Update)
	api.Delete("/tasks/:id", cfg.Tasks.Delete)

	api.Get("/notifications/public-key", cfg.Subscriptions.PublicKey)
	api.Post("/notifications/subscriptions", cfg.Subscriptions.Enable)
	api.Delete("/notifications/subscriptions", cfg.Subscriptions.Disable)

	api.Get("/realtime", cfg.Realtime.Upgrade, cfg.Realtime.Serve())
}
