package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ufsoft/screener/app/controllers"
)

// Router installs a set of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires the handler dependencies and registers every route.
// Order matters: rendition and API routes are installed before the session
// identity middleware so that they never create anonymous users.
func InstallRouter(app *fiber.App, deps *controllers.Dependencies) {
	controllers.Initialize(deps)
	setup(app, NewApiRouter(deps), NewHttpRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
