package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ufsoft/screener/app/controllers"
	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/internal/pkg/middleware"
)

type HttpRouter struct {
	deps *controllers.Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Renditions load an existing identity only; hotlinked images must not
	// mint anonymous users.
	lazy := middleware.UserContextMiddleware(h.deps.Repos.User, h.deps.Config, false)
	app.Get("/image/:category/:image", lazy, controllers.HandleServeImage(models.RenditionOriginal))
	app.Get("/resized/:category/:image", lazy, controllers.HandleServeImage(models.RenditionResized))
	app.Get("/thumbnail/:category/:image", lazy, controllers.HandleServeImage(models.RenditionThumbnail))
	app.Get("/health", controllers.HandleHealth)

	// Every other page gets an identity, anonymous if need be
	app.Use(middleware.UserContextMiddleware(h.deps.Repos.User, h.deps.Config, true))

	h.registerPublicRoutes(app)
	h.registerAccountRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter(deps *controllers.Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
