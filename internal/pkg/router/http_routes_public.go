package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ufsoft/screener/app/controllers"
	"github.com/ufsoft/screener/internal/pkg/constants"
	"github.com/ufsoft/screener/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get(constants.PublicRoute, controllers.HandleIndex)

	// Uploads
	app.Get(constants.UploadRoute, controllers.HandleUploadForm)
	app.Post(constants.UploadRoute, controllers.HandleUpload)
	app.Get(constants.UploadRoute+"/:category", controllers.HandleUploadForm)
	app.Post(constants.UploadRoute+"/:category", controllers.HandleUpload)

	// Categories
	app.Get("/categories", controllers.HandleCategories)
	app.Get("/category/:category", controllers.HandleCategory)
	app.Post("/category", controllers.HandleCreateCategory)

	// Image pages
	app.Get("/show/:category/:image", controllers.HandleShowImage)

	// Abuse reports; confirm must precede the image route
	app.Get(constants.AbuseConfirmRoute, controllers.HandleAbuseConfirm)
	app.Post(constants.AbuseConfirmRoute, controllers.HandleAbuseConfirm)
	app.Get(constants.AbuseConfirmRoute+"/:hash", controllers.HandleAbuseConfirm)
	app.Get("/abuse/:category/:image", controllers.HandleAbuseForm)
	app.Post("/abuse/:category/:image", controllers.HandleAbuseSubmit)

	app.Post(constants.AdultContentRoute, controllers.HandleAdultContentConfirm)
}

func (h HttpRouter) registerAccountRoutes(app *fiber.App) {
	account := app.Group("/account")
	account.Post("/login", controllers.HandleAuthLogin)
	account.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
	account.Post("/register", controllers.HandleAuthRegister)
	account.Post("/reset", controllers.HandleAuthReset)
	app.Get(constants.AccountConfirmRoute, controllers.HandleAuthConfirm)
	app.Post(constants.AccountConfirmRoute, controllers.HandleAuthConfirm)
	app.Get(constants.AccountConfirmRoute+"/:hash", controllers.HandleAuthConfirm)

	account.Get("/preferences", middleware.RequireAuth, controllers.HandleUserPreferences)
	account.Post("/preferences", middleware.RequireAuth, controllers.HandleUserPreferencesUpdate)
	account.Get("/images", middleware.RequireAuth, controllers.HandleUserImages)
	account.Post("/api-key", middleware.RequireAuth, controllers.HandleUserAPIKeyIssue)
	account.Post("/api-key/revoke", middleware.RequireAuth, controllers.HandleUserAPIKeyRevoke)
}
