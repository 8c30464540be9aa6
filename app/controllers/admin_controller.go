package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// AdminController handles the moderation endpoints
type AdminController struct {
	deps *Dependencies
}

// NewAdminController creates a new admin controller
func NewAdminController(d *Dependencies) *AdminController {
	return &AdminController{deps: d}
}

// HandleDashboard returns the site counters, storage health and open reports
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	reports, err := ac.deps.Repos.Abuse.List()
	if err != nil {
		return ac.handleError(c, "Failed to load abuse reports", err)
	}
	open := 0
	for _, r := range reports {
		if !r.Confirmed {
			open++
		}
	}

	body := fiber.Map{
		"statistics":   ac.deps.Statistics.Get(c.Context()),
		"open_reports": open,
		"reports":      len(reports),
		"flash":        flash.Get(c),
	}
	if ac.deps.Health != nil {
		body["storage"] = ac.deps.Health.Last()
	}
	return c.JSON(body)
}

// HandleUsers lists all users
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	users, err := ac.deps.Repos.User.List()
	if err != nil {
		return ac.handleError(c, "Failed to load users", err)
	}
	return c.JSON(fiber.Map{"users": users, "flash": flash.Get(c)})
}

// HandleUserDelete deletes a user with everything they own
func (ac *AdminController) HandleUserDelete(c *fiber.Ctx) error {
	uuid := param(c, "uuid")
	if uuid == usercontext.GetUserUUID(c) {
		fm := fiber.Map{"type": "error", "message": "You cannot delete your own account"}
		return flash.WithError(c, fm).Redirect("/admin/users", fiber.StatusSeeOther)
	}

	if err := ac.deps.Remover.RemoveUser(c.Context(), uuid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		// rows are gone; only file cleanup failed
		log.Warnf("[Admin] Deleting user %s left files behind: %v", uuid, err)
	}
	ac.deps.Statistics.Invalidate(c.Context())
	log.Infof("[Admin] User %s deleted by %s", uuid, usercontext.GetUserUUID(c))

	fm := fiber.Map{"type": "success", "message": "User deleted successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/users", fiber.StatusSeeOther)
}

// HandleCategories lists every category, private ones included
func (ac *AdminController) HandleCategories(c *fiber.Ctx) error {
	categories, err := ac.deps.Repos.Category.List()
	if err != nil {
		return ac.handleError(c, "Failed to load categories", err)
	}
	entries := make([]fiber.Map, 0, len(categories))
	for i := range categories {
		entry := fiber.Map{"category": categoryEntry{Category: &categories[i], URL: models.CategoryURL(&categories[i])}}
		if usage, err := ac.deps.DiskUsage.ForCategory(c.Context(), categories[i].Name); err == nil {
			entry["disk_usage"] = usage
		}
		entries = append(entries, entry)
	}
	return c.JSON(fiber.Map{"categories": entries, "flash": flash.Get(c)})
}

// HandleCategoryDelete deletes a category with its images and files
func (ac *AdminController) HandleCategoryDelete(c *fiber.Ctx) error {
	name := param(c, "name")
	if err := ac.deps.Remover.RemoveCategory(c.Context(), name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "category not found")
		}
		log.Warnf("[Admin] Deleting category %s left files behind: %v", name, err)
	}
	ac.deps.Statistics.Invalidate(c.Context())
	log.Infof("[Admin] Category %s deleted", name)

	fm := fiber.Map{"type": "success", "message": "Category deleted successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/categories", fiber.StatusSeeOther)
}

// HandleCategoriesUpdate sets the privacy flag of every category: the names
// submitted as "private" become private, all others public.
func (ac *AdminController) HandleCategoriesUpdate(c *fiber.Ctx) error {
	private := map[string]bool{}
	for _, name := range formValues(c, "private") {
		private[name] = true
	}
	categories, err := ac.deps.Repos.Category.List()
	if err != nil {
		return ac.handleError(c, "Failed to load categories", err)
	}
	for _, category := range categories {
		if category.Private == private[category.Name] {
			continue
		}
		if err := ac.deps.Repos.Category.SetPrivate(category.Name, private[category.Name]); err != nil {
			return ac.handleError(c, "Failed to update category "+category.Name, err)
		}
	}

	fm := fiber.Map{"type": "success", "message": "Categories updated"}
	return flash.WithSuccess(c, fm).Redirect("/admin/categories", fiber.StatusSeeOther)
}

// HandleImageDelete deletes a single image and its renditions
func (ac *AdminController) HandleImageDelete(c *fiber.Ctx) error {
	id := param(c, "id")
	image, err := ac.deps.Remover.RemoveImage(c.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "image not found")
		}
		if image == nil {
			return ac.handleError(c, "Failed to delete image", err)
		}
		log.Warnf("[Admin] Deleting image %s left files behind: %v", id, err)
	}
	ac.deps.Statistics.Invalidate(c.Context())

	fm := fiber.Map{"type": "success", "message": "Image deleted successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin", fiber.StatusSeeOther)
}

// HandleAbuseReports lists abuse reports
func (ac *AdminController) HandleAbuseReports(c *fiber.Ctx) error {
	reports, err := ac.deps.Repos.Abuse.List()
	if err != nil {
		return ac.handleError(c, "Failed to load abuse reports", err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}

func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Admin] %s: %v", message, err)
	return jsonError(c, fiber.StatusInternalServerError, message)
}
