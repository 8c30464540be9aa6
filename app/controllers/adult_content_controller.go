package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// safeRedirect returns next when it is a local path, "/" otherwise.
func safeRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}

// POST /adult-content/confirm – opt the session user in and go back to the
// gated resource
func HandleAdultContentConfirm(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if uc.UUID == "" {
		return jsonError(c, fiber.StatusBadRequest, "no session")
	}
	if c.FormValue("confirm") != "yes" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "confirm that you want to see adult content",
			"field": "confirm",
		})
	}

	user, err := deps.Repos.User.GetByUUID(uc.UUID)
	if err != nil {
		return notFoundOr(c, "AdultContent", err)
	}
	user.ShowAdultContent = true
	if err := deps.Repos.User.Update(user); err != nil {
		return internalError(c, "AdultContent", err)
	}
	log.Debugf("[AdultContent] %s opted in", user.UUID)

	fm := fiber.Map{"type": "info", "message": "Adult content is now shown. You can change this in your preferences."}
	return flash.WithInfo(c, fm).Redirect(safeRedirect(c.FormValue("next")), fiber.StatusSeeOther)
}
