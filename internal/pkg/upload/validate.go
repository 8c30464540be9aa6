package upload

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrUnsupportedType = errors.New("unsupported image type")

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".jpe":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	// SVG stays out: it is scriptable and cannot be re-encoded
}

var allowedMime = map[string]bool{
	"image/jpeg":     true,
	"image/png":      true,
	"image/gif":      true,
	"image/webp":     true,
	"image/bmp":      true,
	"image/x-ms-bmp": true,
	"image/tiff":     true,
}

// AllowedExtension reports whether the filename carries a supported image
// extension.
func AllowedExtension(filename string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(filename))]
}

// ValidateImageBySniff checks the filename extension and the leading bytes
// against the image whitelist and returns the detected mimetype.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	if !AllowedExtension(filename) {
		return "", errors.Join(ErrUnsupportedType, errors.New("supported formats are JPG, PNG, GIF, WEBP, BMP and TIFF"))
	}

	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/html") || m.Is("image/svg+xml") || m.Is("text/xml") {
			return "", errors.Join(ErrUnsupportedType, errors.New("markup content is not allowed"))
		}
	}
	if !allowedMime[detected.String()] {
		return "", errors.Join(ErrUnsupportedType, errors.New("detected "+detected.String()))
	}
	return detected.String(), nil
}
