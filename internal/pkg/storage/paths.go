package storage

import (
	"errors"
	"path"
	"strings"

	"github.com/ufsoft/screener/app/models"
)

// Sub-directories that keep private renditions apart. Private renditions
// share the image id as their name.
const (
	ResizedDir   = "resized"
	ThumbnailDir = "thumbnail"
)

var ErrInvalidPath = errors.New("invalid path component")

// Layout holds the slash separated keys of the three renditions of an image,
// relative to the storage root.
type Layout struct {
	Dir       string
	Original  string
	Resized   string
	Thumbnail string
}

// Key returns the key of the given rendition.
func (l Layout) Key(kind models.RenditionKind) string {
	switch kind {
	case models.RenditionResized:
		return l.Resized
	case models.RenditionThumbnail:
		return l.Thumbnail
	default:
		return l.Original
	}
}

// Keys returns all rendition keys in storage order.
func (l Layout) Keys() []string {
	return []string{l.Original, l.Resized, l.Thumbnail}
}

// Resolve computes the rendition keys for an image named name+ext in category.
// Public images keep their name with a rendition infix; private images are
// stored under their id in per-rendition sub-directories.
func Resolve(category, name, ext string, private bool, id string) (Layout, error) {
	if err := checkComponent(category); err != nil {
		return Layout{}, err
	}
	l := Layout{Dir: category}
	if private {
		if err := checkComponent(id); err != nil {
			return Layout{}, err
		}
		l.Original = path.Join(category, id)
		l.Resized = path.Join(category, ResizedDir, id)
		l.Thumbnail = path.Join(category, ThumbnailDir, id)
		return l, nil
	}

	if err := checkComponent(name + ext); err != nil {
		return Layout{}, err
	}
	if ext != "" && (strings.ContainsAny(ext, "/\\\x00") || !strings.HasPrefix(ext, ".")) {
		return Layout{}, ErrInvalidPath
	}
	l.Original = path.Join(category, name+ext)
	l.Resized = path.Join(category, name+models.ResizedInfix+ext)
	l.Thumbnail = path.Join(category, name+models.ThumbnailInfix+ext)
	return l, nil
}

// LayoutFor resolves the layout of a stored image.
func LayoutFor(image *models.Image) (Layout, error) {
	name, ext := models.SplitFilename(image.Filename)
	dir := image.Path
	if dir == "" {
		dir = image.CategoryName
	}
	return Resolve(dir, name, ext, image.Private, image.ID)
}

func checkComponent(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\\x00") {
		return ErrInvalidPath
	}
	return nil
}
