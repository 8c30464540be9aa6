package imageprocessor

import (
	"image"

	"github.com/gofiber/fiber/v2/log"
)

// Rendition size thresholds.
const (
	MaxOriginalDim = 1100
	MaxThumbDim    = 200
)

// Options controls rendition generation.
type Options struct {
	MaxOriginalDim int
	MaxThumbDim    int
	// Format overrides the decoded format when set, usually derived from the
	// uploaded file's extension.
	Format        Format
	Watermarker   *Watermarker
	WatermarkText string
}

// DefaultOptions returns the standard thresholds without a watermark.
func DefaultOptions() Options {
	return Options{MaxOriginalDim: MaxOriginalDim, MaxThumbDim: MaxThumbDim}
}

// Rendition is either encoded image bytes or an alias of the original.
type Rendition struct {
	Data  []byte
	Alias bool
}

// Renditions is the output of Generate.
type Renditions struct {
	Original  Rendition
	Resized   Rendition
	Thumbnail Rendition
	Format    Format
	Width     int
	Height    int
}

// Generate decodes raw once and produces the original, resized and
// thumbnail renditions.
func Generate(raw []byte, opts Options) (*Renditions, error) {
	if opts.MaxOriginalDim <= 0 {
		opts.MaxOriginalDim = MaxOriginalDim
	}
	if opts.MaxThumbDim <= 0 {
		opts.MaxThumbDim = MaxThumbDim
	}

	src, decoded, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	format := opts.Format
	if _, ok := formatMimes[format]; !ok {
		format = decoded
	}

	b := src.Bounds()
	out := &Renditions{Format: format, Width: b.Dx(), Height: b.Dy()}

	var marked image.Image = src
	if opts.Watermarker != nil && opts.WatermarkText != "" {
		if marked, err = opts.Watermarker.Apply(src, opts.WatermarkText); err != nil {
			return nil, err
		}
	}
	if out.Original.Data, err = Encode(marked, format); err != nil {
		log.Errorf("[ImageProcessor] encode original as %s: %v", format, err)
		return nil, err
	}

	if out.Width > opts.MaxOriginalDim {
		resized := Fit(marked, opts.MaxOriginalDim, opts.MaxOriginalDim)
		if out.Resized.Data, err = Encode(resized, format); err != nil {
			log.Errorf("[ImageProcessor] encode resized as %s: %v", format, err)
			return nil, err
		}
	} else {
		out.Resized.Alias = true
	}

	if out.Width > opts.MaxThumbDim || out.Height > opts.MaxThumbDim {
		thumb := Fit(src, opts.MaxThumbDim, opts.MaxThumbDim)
		if out.Thumbnail.Data, err = Encode(thumb, format); err != nil {
			log.Errorf("[ImageProcessor] encode thumbnail as %s: %v", format, err)
			return nil, err
		}
	} else {
		out.Thumbnail.Alias = true
	}
	return out, nil
}
