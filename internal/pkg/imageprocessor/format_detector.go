package imageprocessor

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an encodable image format.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
)

var formatMimes = map[Format]string{
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
	FormatGIF:  "image/gif",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
	FormatWebP: "image/webp",
}

// FormatFromExtension maps a file extension (with or without the dot) to a
// format. "jpg" is canonicalised to jpeg.
func FormatFromExtension(ext string) (Format, error) {
	e := strings.ToLower(strings.TrimPrefix(ext, "."))
	switch e {
	case "jpg", "jpeg", "jpe":
		return FormatJPEG, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	f := Format(e)
	if _, ok := formatMimes[f]; !ok {
		return "", fmt.Errorf("unsupported image format %q", ext)
	}
	return f, nil
}

// FormatFromMime maps a sniffed mimetype to a format.
func FormatFromMime(mime string) (Format, error) {
	mime = strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	for f, m := range formatMimes {
		if m == mime {
			return f, nil
		}
	}
	if mime == "image/x-ms-bmp" {
		return FormatBMP, nil
	}
	return "", fmt.Errorf("unsupported image mimetype %q", mime)
}

// MimeType returns the content type served for the format.
func (f Format) MimeType() string {
	if m, ok := formatMimes[f]; ok {
		return m
	}
	return "application/octet-stream"
}

func (f Format) imaging() (imaging.Format, bool) {
	switch f {
	case FormatJPEG:
		return imaging.JPEG, true
	case FormatPNG:
		return imaging.PNG, true
	case FormatGIF:
		return imaging.GIF, true
	case FormatBMP:
		return imaging.BMP, true
	case FormatTIFF:
		return imaging.TIFF, true
	default:
		return 0, false
	}
}
