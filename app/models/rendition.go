package models

import (
	"fmt"
	"net/url"
)

// RenditionKind selects one of the three stored variants of an image.
type RenditionKind int

const (
	RenditionOriginal RenditionKind = iota
	RenditionResized
	RenditionThumbnail
)

var renditionNames = map[RenditionKind]string{
	RenditionOriginal:  "image",
	RenditionResized:   "resized",
	RenditionThumbnail: "thumbnail",
}

func (k RenditionKind) String() string {
	if name, ok := renditionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("rendition(%d)", int(k))
}

// ParseRenditionKind maps a route segment to a rendition kind.
func ParseRenditionKind(s string) (RenditionKind, error) {
	for kind, name := range renditionNames {
		if name == s {
			return kind, nil
		}
	}
	return RenditionOriginal, fmt.Errorf("unknown rendition %q", s)
}

// RenditionKinds lists every kind in storage order.
func RenditionKinds() []RenditionKind {
	return []RenditionKind{RenditionOriginal, RenditionResized, RenditionThumbnail}
}

// RenditionURL returns the path a rendition is served from.
func RenditionURL(image *Image, category *Category, kind RenditionKind) string {
	return fmt.Sprintf("/%s/%s/%s", kind, url.PathEscape(category.Ref()), url.PathEscape(image.NameFor(kind)))
}

// ShowURL returns the path of the image detail page.
func ShowURL(image *Image, category *Category) string {
	return fmt.Sprintf("/show/%s/%s", url.PathEscape(category.Ref()), url.PathEscape(image.ImageName()))
}

// CategoryURL returns the path of the category listing.
func CategoryURL(category *Category) string {
	return "/category/" + url.PathEscape(category.Ref())
}

// UploadURL returns the path of the upload page preset to the category.
func UploadURL(category *Category) string {
	return "/upload/" + url.PathEscape(category.Ref())
}

// AbuseURL returns the path of the abuse report form of an image.
func AbuseURL(image *Image, category *Category) string {
	return fmt.Sprintf("/abuse/%s/%s", url.PathEscape(category.Ref()), url.PathEscape(image.ImageName()))
}
