package authkit

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// FiberAppOption customizes the underlying fiber application.
type FiberAppOption func(*fiber.App) *fiber.App

// NewFiberServer builds a fiber backed server with the auth routes
// mounted. Callers can keep registering their own routes on the returned
// server before starting it.
func NewFiberServer(controller *HTTPController, opts ...FiberAppOption) router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		})
		for _, opt := range opts {
			app = opt(app)
		}
		return router.DefaultFiberOptions(app)
	})

	controller.RegisterRoutes(srv.Router())

	return srv
}
