package visibility

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ufsoft/screener/app/models"
)

type caps map[string]bool

func (c caps) Has(id string) bool { return c[id] }

func newImage() *models.Image {
	cat := models.NewCategory("pets", "", false, "")
	img := models.NewImage(cat, "photo.jpg", "image/jpeg")
	img.OwnerUUID = "owner"
	return img
}

func TestCanView_Precedence(t *testing.T) {
	p := Policy{}
	guest := Requester{UUID: "guest"}
	admin := Requester{UUID: "admin", IsAdmin: true}

	img := newImage()
	img.Private = true
	img.AdultContent = true
	img.Abuse = &models.Abuse{Confirmed: true}
	assert.Equal(t, PermanentlyRemoved, p.CanView(guest, img, false))

	img.Abuse.Confirmed = false
	assert.Equal(t, PendingReview, p.CanView(guest, img, false))

	img.Abuse = nil
	assert.Equal(t, AdultContentGate, p.CanView(guest, img, false))
	// admins are gated on adult content like everyone else
	assert.Equal(t, AdultContentGate, p.CanView(admin, img, false))

	guest.ShowAdultContent = true
	assert.Equal(t, NotFound, p.CanView(guest, img, false))
}

func TestCanView_AdminBypassesAbuse(t *testing.T) {
	img := newImage()
	img.Abuse = &models.Abuse{Confirmed: true}
	assert.Equal(t, Allowed, Policy{}.CanView(Requester{IsAdmin: true}, img, false))
}

func TestCanView_PrivateImage(t *testing.T) {
	img := newImage()
	img.Private = true

	assert.Equal(t, NotFound, Policy{}.CanView(Requester{UUID: "stranger"}, img, false))
	assert.Equal(t, Allowed, Policy{}.CanView(Requester{UUID: "owner"}, img, false))
	assert.Equal(t, Allowed, Policy{}.CanView(Requester{Capabilities: caps{img.ID: true}}, img, false))
	assert.Equal(t, Allowed, Policy{}.CanView(Requester{}, img, true))

	admin := Requester{UUID: "admin", IsAdmin: true}
	assert.Equal(t, NotFound, Policy{}.CanView(admin, img, false))
	assert.Equal(t, Allowed, Policy{AdminSeesPrivate: true}.CanView(admin, img, false))
}

func TestVerdict_Status(t *testing.T) {
	assert.Equal(t, http.StatusOK, Allowed.Status())
	assert.Equal(t, http.StatusNotFound, NotFound.Status())
	assert.Equal(t, http.StatusConflict, AdultContentGate.Status())
	assert.Equal(t, http.StatusConflict, PendingReview.Status())
	assert.Equal(t, http.StatusGone, PermanentlyRemoved.Status())
}

func TestHeaders(t *testing.T) {
	img := newImage()
	img.Stamp = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	h := Headers(img)
	assert.Equal(t, "public, max-age=31536000", h.CacheControl)
	assert.Equal(t, "Wed, 01 Jan 2025 03:04:05 GMT", h.Expires)
	assert.Equal(t, `"`+img.ETag()+`"`, h.ETag)

	img.Private = true
	assert.Equal(t, "private, max-age=31536000", Headers(img).CacheControl)
}

func TestNotModified(t *testing.T) {
	img := newImage()
	etag := img.ETag()
	assert.True(t, NotModified(img, etag))
	assert.True(t, NotModified(img, `"`+etag+`"`))
	assert.True(t, NotModified(img, `W/"other", "`+etag+`"`))
	assert.True(t, NotModified(img, "*"))
	assert.False(t, NotModified(img, `"other"`))
	assert.False(t, NotModified(img, ""))
}
