package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ufsoft/screener/app/controllers"
	"github.com/ufsoft/screener/internal/pkg/constants"
	"github.com/ufsoft/screener/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group(constants.AdminRoute, middleware.RequireAdmin)
	adminGroup.Get("/", controllers.HandleAdminDashboard)
	adminGroup.Get("/users", controllers.HandleAdminUsers)
	adminGroup.Post("/users/delete/:uuid", controllers.HandleAdminUserDelete)

	// Category management
	adminGroup.Get("/categories", controllers.HandleAdminCategories)
	adminGroup.Post("/categories", controllers.HandleAdminCategoriesUpdate)
	adminGroup.Post("/categories/delete/:name", controllers.HandleAdminCategoryDelete)

	// Image moderation
	adminGroup.Post("/images/delete/:id", controllers.HandleAdminImageDelete)
	adminGroup.Get("/abuse", controllers.HandleAdminAbuseReports)
}
