package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

const (
	jpegQuality = 90
	webpQuality = 85
)

var (
	ErrInvalidImage         = errors.New("the uploaded file is not a valid image")
	ErrDerivativeGeneration = errors.New("could not generate image renditions")
)

// Decode decodes raw image bytes and reports their format.
func Decode(raw []byte) (image.Image, Format, error) {
	format, err := FormatFromMime(mimetype.Detect(raw).String())
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var img image.Image
	if format == FormatWebP {
		img, err = webp.Decode(bytes.NewReader(raw), &decoder.Options{})
	} else {
		img, err = imaging.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	return img, format, nil
}

// Encode encodes img in the given format.
func Encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if format == FormatWebP {
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, webpQuality)
		if err != nil {
			return nil, fmt.Errorf("%w: error creating encoder options: %v", ErrDerivativeGeneration, err)
		}
		if err := webp.Encode(&buf, img, options); err != nil {
			return nil, fmt.Errorf("%w: error encoding WebP image: %v", ErrDerivativeGeneration, err)
		}
		return buf.Bytes(), nil
	}

	f, ok := format.imaging()
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrDerivativeGeneration, format)
	}
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerivativeGeneration, err)
	}
	return buf.Bytes(), nil
}

// Fit scales img down to fit within maxW x maxH keeping the aspect ratio.
func Fit(img image.Image, maxW, maxH int) image.Image {
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}
