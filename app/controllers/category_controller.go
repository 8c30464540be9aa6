package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/ingestion"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
	"github.com/ufsoft/screener/internal/pkg/visibility"
)

var (
	errCategoryNameRequired = errors.New("a category name is required")
	errCategoryExists       = errors.New("a category by this name already exists")
)

// categoryEntry is a category as shown to a requester.
type categoryEntry struct {
	*models.Category
	URL string `json:"url"`
}

// HandleCategories lists the categories the requester may browse.
func HandleCategories(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	var (
		categories []models.Category
		err        error
	)
	if uc.IsAdmin {
		categories, err = deps.Repos.Category.List()
	} else {
		categories, err = deps.Repos.Category.ListVisible(uc.UUID)
	}
	if err != nil {
		return internalError(c, "Categories", err)
	}

	entries := make([]categoryEntry, 0, len(categories))
	for i := range categories {
		entries = append(entries, categoryEntry{Category: &categories[i], URL: models.CategoryURL(&categories[i])})
	}
	return c.JSON(fiber.Map{"categories": entries})
}

// HandleCategory lists the images of a category reached by name or secret.
// Private categories addressed by name are only shown to their owner and to
// admins.
func HandleCategory(c *fiber.Ctx) error {
	ref := param(c, "category")
	category, err := deps.Repos.Category.GetByRef(ref)
	if err != nil {
		return notFoundOr(c, "Categories", err)
	}
	uc := usercontext.GetUserContext(c)
	viaSecret := category.MatchesSecret(ref)
	if category.Private && !viaSecret && !category.IsOwnedBy(uc.UUID) && !uc.IsAdmin {
		return jsonError(c, fiber.StatusNotFound, "not found")
	}

	images, err := deps.Repos.Image.ListByCategory(category.Name)
	if err != nil {
		return internalError(c, "Categories", err)
	}
	req := uc.Requester()
	listed := make([]fiber.Map, 0, len(images))
	for i := range images {
		image := &images[i]
		image.Category = category
		switch deps.Policy.CanView(req, image, viaSecret) {
		case visibility.Allowed:
			listed = append(listed, fiber.Map{"image": image, "links": imageLinks(image, category)})
		case visibility.AdultContentGate:
			// listed without links so the client can offer the opt in
			listed = append(listed, fiber.Map{"image": image, "gated": true})
		}
	}

	body := fiber.Map{
		"category": categoryEntry{Category: category, URL: models.CategoryURL(category)},
		"images":   listed,
	}
	if category.IsOwnedBy(uc.UUID) || uc.IsAdmin {
		usage, err := deps.DiskUsage.ForCategory(c.Context(), category.Name)
		if err != nil {
			log.Warnf("[Categories] Disk usage of %s unavailable: %v", category.Name, err)
		} else {
			body["disk_usage"] = usage
		}
	}
	return c.JSON(body)
}

// HandleCreateCategory creates an empty category. The name must not collide
// with an existing name or secret.
func HandleCreateCategory(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	name := strings.TrimSpace(c.FormValue("name"))
	description := c.FormValue("description")
	private := formBool(c, "private")

	category, err := createCategory(uc, name, description, private)
	if err != nil {
		var existing *existingCategoryError
		switch {
		case errors.As(err, &existing):
			body := fiber.Map{"error": errCategoryExists.Error(), "name": existing.category.Name}
			if !existing.category.Private || existing.category.IsOwnedBy(uc.UUID) {
				body["url"] = models.CategoryURL(existing.category)
			}
			return c.Status(fiber.StatusConflict).JSON(body)
		case errors.Is(err, errCategoryNameRequired), errors.Is(err, ingestion.ErrInvalidCategoryName):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "field": "name"})
		default:
			return internalError(c, "Categories", err)
		}
	}
	deps.Statistics.Invalidate(c.Context())
	return c.Status(fiber.StatusCreated).JSON(categoryEntry{Category: category, URL: models.CategoryURL(category)})
}

type existingCategoryError struct {
	category *models.Category
}

func (e *existingCategoryError) Error() string { return errCategoryExists.Error() }

func createCategory(uc usercontext.UserContext, name, description string, private bool) (*models.Category, error) {
	if name == "" {
		return nil, errCategoryNameRequired
	}
	if !models.ValidCategoryName(name) {
		return nil, ingestion.ErrInvalidCategoryName
	}
	existing, err := deps.Repos.Category.GetByRef(name)
	switch {
	case err == nil:
		return nil, &existingCategoryError{category: existing}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	category := models.NewCategory(name, description, private, uc.UUID)
	if err := deps.Repos.Category.Create(category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &existingCategoryError{category: category}
		}
		return nil, err
	}
	log.Infof("[Categories] Created category %s (private=%t)", category.Name, category.Private)
	return category, nil
}
