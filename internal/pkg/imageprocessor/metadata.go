package imageprocessor

import (
	"bytes"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// Metadata is the subset of EXIF data kept with an image.
type Metadata struct {
	CameraModel *string
	TakenAt     *time.Time
}

// ExtractMetadata reads EXIF data from raw image bytes. Images without EXIF
// data yield an empty Metadata.
func ExtractMetadata(raw []byte) Metadata {
	var md Metadata
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return md
	}

	if m, err := x.Get(exif.Model); err == nil {
		model := strings.TrimSpace(strings.Trim(m.String(), `"`))
		if model != "" {
			md.CameraModel = &model
		}
	}
	if dt, err := x.DateTime(); err == nil {
		md.TakenAt = &dt
	}
	return md
}
