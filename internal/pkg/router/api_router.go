package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ufsoft/screener/app/controllers"
	apiv1 "github.com/ufsoft/screener/internal/api/v1"
	"github.com/ufsoft/screener/internal/pkg/middleware"
)

type ApiRouter struct {
	deps *controllers.Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", cors.New(), limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return controllers.GetClientIP(c)
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Screener API",
			"docs":    "/docs/api/v1",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer, middleware.APIKeyAuthMiddleware(h.deps.Repos.User))
}

func NewApiRouter(deps *controllers.Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
