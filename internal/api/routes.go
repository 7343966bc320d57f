package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/argus/argus-backend/internal/api/handlers"
)

// SetupRoutes registers the caller-facing endpoints
func SetupRoutes(app *fiber.App, chat *handlers.ChatHandler) {
	app.Get("/health", chat.Health)
	app.Post("/chat", chat.Chat)
	app.Post("/reset", chat.Reset)
	app.Post("/upload", chat.Upload)
}
