package controllers

import (
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/internal/pkg/metrics"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
)

// HandleAPIUpload stores an image uploaded with an API key. API users are
// confirmed accounts, so no terms checkbox is required and the image belongs
// to the key owner.
func HandleAPIUpload(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	image, err := ingest(c, uc, uploadForm(c))
	if err != nil {
		return respondUploadError(c, err)
	}
	metrics.Get().UploadTotal.WithLabelValues("stored").Inc()
	deps.Statistics.Invalidate(c.Context())
	fiberlog.Infof("[API] %s uploaded %s to %s", uc.Username, image.ID, image.CategoryName)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"image": image,
		"links": imageLinks(image, image.Category),
	})
}

// HandleAPIAccount returns the key owner with disk usage.
func HandleAPIAccount(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return notFoundOr(c, "API", err)
	}
	usage, err := deps.DiskUsage.ForUser(c.Context(), user.UUID)
	if err != nil {
		fiberlog.Warnf("[API] Disk usage of %s unavailable: %v", user.UUID, err)
		usage = user.DiskUsage()
	}
	return c.JSON(fiber.Map{
		"user":       user,
		"disk_usage": usage,
		"max_size":   deps.Config.Upload.MaxSize,
	})
}

// HandleAPICategories lists the categories owned by the key owner.
func HandleAPICategories(c *fiber.Ctx) error {
	categories, err := deps.Repos.Category.ListByOwner(usercontext.GetUserUUID(c))
	if err != nil {
		return internalError(c, "API", err)
	}
	entries := make([]categoryEntry, 0, len(categories))
	for i := range categories {
		entries = append(entries, categoryEntry{Category: &categories[i], URL: models.CategoryURL(&categories[i])})
	}
	return c.JSON(fiber.Map{"categories": entries})
}
