package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// Global admin controller instance, set by Initialize
var adminController *AdminController

// GetAdminController returns the global admin controller instance
func GetAdminController() *AdminController {
	if adminController == nil {
		adminController = NewAdminController(deps)
	}
	return adminController
}

// Adapter functions for the router

// HandleAdminDashboard - Adapter for the admin dashboard
func HandleAdminDashboard(c *fiber.Ctx) error {
	return GetAdminController().HandleDashboard(c)
}

// HandleAdminUsers - Adapter for user management
func HandleAdminUsers(c *fiber.Ctx) error {
	return GetAdminController().HandleUsers(c)
}

// HandleAdminUserDelete - Adapter for user delete
func HandleAdminUserDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleUserDelete(c)
}

// HandleAdminCategories - Adapter for category management
func HandleAdminCategories(c *fiber.Ctx) error {
	return GetAdminController().HandleCategories(c)
}

// HandleAdminCategoriesUpdate - Adapter for the privacy update
func HandleAdminCategoriesUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleCategoriesUpdate(c)
}

// HandleAdminCategoryDelete - Adapter for category delete
func HandleAdminCategoryDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleCategoryDelete(c)
}

// HandleAdminImageDelete - Adapter for image delete
func HandleAdminImageDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleImageDelete(c)
}

// HandleAdminAbuseReports - Adapter for the abuse report list
func HandleAdminAbuseReports(c *fiber.Ctx) error {
	return GetAdminController().HandleAbuseReports(c)
}
