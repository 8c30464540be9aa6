package controllers

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/internal/pkg/constants"
	"github.com/ufsoft/screener/internal/pkg/metrics"
	"github.com/ufsoft/screener/internal/pkg/storage"
	"github.com/ufsoft/screener/internal/pkg/usercontext"
	"github.com/ufsoft/screener/internal/pkg/visibility"
)

// AdultContentConfirmPath is where a gated client opts in to adult content.
const AdultContentConfirmPath = constants.AdultContentRoute

// param returns the unescaped route parameter.
func param(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// resolvedImage is an image looked up from a category reference and an image
// reference taken from the URL.
type resolvedImage struct {
	category  *models.Category
	image     *models.Image
	viaSecret bool
}

// lookupImage resolves the :category and :image route parameters. A wrong
// category and a missing image are both reported as repository.ErrNotFound.
func lookupImage(c *fiber.Ctx) (*resolvedImage, error) {
	ref := param(c, "category")
	category, err := deps.Repos.Category.GetByRef(ref)
	if err != nil {
		return nil, err
	}
	image, err := deps.Repos.Image.GetByRef(category.Name, param(c, "image"))
	if err != nil {
		return nil, err
	}
	image.Category = category
	return &resolvedImage{category: category, image: image, viaSecret: category.MatchesSecret(ref)}, nil
}

// denied answers a non-allowed verdict.
func denied(c *fiber.Ctx, verdict visibility.Verdict) error {
	body := fiber.Map{"error": verdict.String()}
	if verdict == visibility.AdultContentGate {
		body["confirm_url"] = AdultContentConfirmPath
		body["next"] = c.OriginalURL()
	}
	return c.Status(verdict.Status()).JSON(body)
}

// HandleServeImage streams one rendition of an image.
func HandleServeImage(kind models.RenditionKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m := metrics.Get()
		found, err := lookupImage(c)
		if err != nil {
			m.ServeTotal.WithLabelValues(kind.String(), visibility.NotFound.String()).Inc()
			return notFoundOr(c, "Serve", err)
		}

		uc := usercontext.GetUserContext(c)
		verdict := deps.Policy.CanView(uc.Requester(), found.image, found.viaSecret)
		m.ServeTotal.WithLabelValues(kind.String(), verdict.String()).Inc()
		if verdict != visibility.Allowed {
			return denied(c, verdict)
		}

		headers := visibility.Headers(found.image)
		c.Set(fiber.HeaderETag, headers.ETag)
		c.Set(fiber.HeaderCacheControl, headers.CacheControl)
		if visibility.NotModified(found.image, c.Get(fiber.HeaderIfNoneMatch)) {
			// entity headers stay off a 304
			return c.Status(fiber.StatusNotModified).Send(nil)
		}
		c.Set(fiber.HeaderExpires, headers.Expires)

		rc, size, err := deps.Storage.Open(c.Context(), found.image, kind)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				log.Warnf("[Serve] %s of image %s is missing from storage", kind, found.image.ID)
				return jsonError(c, fiber.StatusNotFound, "not found")
			}
			return internalError(c, "Serve", err)
		}

		c.Set(fiber.HeaderContentType, found.image.Mimetype)
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(size, 10))
		m.ServeBytes.WithLabelValues(kind.String()).Add(float64(size))
		// the response closes rc once the body has been written
		return c.SendStream(rc, int(size))
	}
}

// imageLinks returns the urls of an image's renditions and pages.
func imageLinks(image *models.Image, category *models.Category) fiber.Map {
	return fiber.Map{
		"show":      models.ShowURL(image, category),
		"image":     models.RenditionURL(image, category, models.RenditionOriginal),
		"resized":   models.RenditionURL(image, category, models.RenditionResized),
		"thumbnail": models.RenditionURL(image, category, models.RenditionThumbnail),
		"abuse":     models.AbuseURL(image, category),
	}
}

// HandleShowImage returns the image details and counts a view.
func HandleShowImage(c *fiber.Ctx) error {
	found, err := lookupImage(c)
	if err != nil {
		return notFoundOr(c, "Show", err)
	}
	uc := usercontext.GetUserContext(c)
	if verdict := deps.Policy.CanView(uc.Requester(), found.image, found.viaSecret); verdict != visibility.Allowed {
		return denied(c, verdict)
	}

	if err := deps.Views.AddView(c.Context(), found.image.ID); err != nil {
		log.Warnf("[Show] Could not count view of %s: %v", found.image.ID, err)
	}

	return c.JSON(fiber.Map{
		"image":    found.image,
		"category": found.category,
		"owned":    found.image.IsOwnedBy(uc.UUID),
		"links":    imageLinks(found.image, found.category),
	})
}
