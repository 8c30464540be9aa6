package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/ufsoft/screener/internal/pkg/constants"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// HandleIndex returns the front page data: site counters, the pending flash
// message and who is asking.
func HandleIndex(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	body := fiber.Map{
		"statistics": deps.Statistics.Get(c.Context()),
		"flash":      flash.Get(c),
		"logged_in":  uc.IsLoggedIn,
		"is_admin":   uc.IsAdmin,
		"upload_url": constants.UploadRoute,
	}
	if uc.IsLoggedIn {
		body["username"] = uc.Username
	}
	return c.JSON(body)
}

// HandleHealth reports the storage backend state. It answers 503 while the
// backend is unreachable.
func HandleHealth(c *fiber.Ctx) error {
	if deps.Health == nil {
		return c.JSON(fiber.Map{"status": "ok"})
	}
	health := deps.Health.Last()
	if !health.Healthy && !health.CheckedAt.IsZero() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "storage": health})
	}
	return c.JSON(fiber.Map{"status": "ok", "storage": health})
}
