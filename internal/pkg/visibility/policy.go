package visibility

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/app/models"
)

// Verdict is the outcome of a visibility check.
type Verdict int

const (
	Allowed Verdict = iota
	NotFound
	AdultContentGate
	PendingReview
	PermanentlyRemoved
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case NotFound:
		return "not found"
	case AdultContentGate:
		return "adult content"
	case PendingReview:
		return "pending review"
	case PermanentlyRemoved:
		return "permanently removed"
	default:
		return "unknown"
	}
}

// Status maps the verdict to an HTTP status code.
func (v Verdict) Status() int {
	switch v {
	case Allowed:
		return fiber.StatusOK
	case AdultContentGate, PendingReview:
		return fiber.StatusConflict
	case PermanentlyRemoved:
		return fiber.StatusGone
	default:
		return fiber.StatusNotFound
	}
}

// CapabilityChecker reports whether a session holds a capability for an id.
type CapabilityChecker interface {
	Has(id string) bool
}

// Requester is the identity a visibility decision is made for.
type Requester struct {
	UUID             string
	IsAdmin          bool
	ShowAdultContent bool
	Capabilities     CapabilityChecker
}

func (r Requester) hasCapability(id string) bool {
	return r.Capabilities != nil && r.Capabilities.Has(id)
}

// Policy decides who may see an image.
type Policy struct {
	// AdminSeesPrivate lets admins bypass the private image rule.
	AdminSeesPrivate bool
}

// CanView evaluates the rules in order: confirmed abuse, pending abuse, adult
// content, then privacy. viaSecret is true when the category was addressed by
// its secret.
func (p Policy) CanView(req Requester, image *models.Image, viaSecret bool) Verdict {
	v := p.verdict(req, image, viaSecret)
	if v != Allowed {
		log.Debugf("[Visibility] image %s denied for %q: %s", image.ID, req.UUID, v)
	}
	return v
}

func (p Policy) verdict(req Requester, image *models.Image, viaSecret bool) Verdict {
	switch image.AbuseStatus() {
	case models.AbuseConfirmed:
		if !req.IsAdmin {
			return PermanentlyRemoved
		}
	case models.AbuseReported:
		if !req.IsAdmin {
			return PendingReview
		}
	}
	if image.AdultContent && !req.ShowAdultContent {
		return AdultContentGate
	}
	if image.Private {
		switch {
		case image.IsOwnedBy(req.UUID):
		case req.hasCapability(image.ID):
		case viaSecret:
		case req.IsAdmin && p.AdminSeesPrivate:
		default:
			return NotFound
		}
	}
	return Allowed
}

// CacheHeaders are the validators and lifetime sent with a rendition.
type CacheHeaders struct {
	CacheControl string
	Expires      string
	ETag         string
}

// Headers computes the caching headers of an image. Private images, and
// images in private categories, must not be stored by shared caches.
func Headers(image *models.Image) CacheHeaders {
	scope := "public"
	if image.Private || (image.Category != nil && image.Category.Private) {
		scope = "private"
	}
	return CacheHeaders{
		CacheControl: scope + ", max-age=" + maxAge(),
		Expires:      image.Expires().UTC().Format(http.TimeFormat),
		ETag:         `"` + image.ETag() + `"`,
	}
}

func maxAge() string {
	return strconv.FormatInt(int64(models.CacheLifetime/time.Second), 10)
}

// NotModified reports whether an If-None-Match header matches the image.
func NotModified(image *models.Image, ifNoneMatch string) bool {
	if ifNoneMatch == "" {
		return false
	}
	etag := image.ETag()
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		candidate = strings.TrimPrefix(candidate, "W/")
		if strings.Trim(candidate, `"`) == etag {
			return true
		}
	}
	return false
}
