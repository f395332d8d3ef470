package handler

import (
	"github.com/gofiber/fiber/v3"
)

// Handlers groups the HTTP handlers of the API.
type Handlers struct {
	Auth       *AuthHandler
	Compliance *ComplianceHandler
	Tasks      *TaskHandler
	Audit      *AuditHandler
	Copilot    *CopilotHandler
}

// Mount registers the public routes, then every session route behind auth.
// Public routes must be registered first so the token middleware never runs
// for them.
func Mount(app *fiber.App, h Handlers, auth fiber.Handler, appName string) {
	public := app.Group("/api/v1")
	public.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     appName,
			"version": "1.0.0",
		})
	})
	h.Auth.RegisterPublic(public)

	api := app.Group("/api/v1", auth)
	h.Auth.Register(api)
	h.Compliance.Register(api)
	h.Tasks.Register(api)
	h.Audit.Register(api)
	h.Copilot.Register(api)
}
