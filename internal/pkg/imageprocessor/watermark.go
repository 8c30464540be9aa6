package imageprocessor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// maxWatermarkAlpha caps the opacity of the watermark text.
const maxWatermarkAlpha = 55

// Watermarker renders diagonal text over images with a preloaded font.
type Watermarker struct {
	font *opentype.Font
}

// NewWatermarker loads the TrueType/OpenType font at path.
func NewWatermarker(path string) (*Watermarker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watermark font %s: %w", path, err)
	}
	return NewWatermarkerFromBytes(data)
}

// NewWatermarkerFromBytes parses an in-memory font.
func NewWatermarkerFromBytes(data []byte) (*Watermarker, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse watermark font: %w", err)
	}
	return &Watermarker{font: f}, nil
}

// Apply returns an RGBA copy of img with text composited over it. A nil
// Watermarker or empty text returns img untouched.
func (w *Watermarker) Apply(img image.Image, text string) (image.Image, error) {
	if w == nil || text == "" {
		return img, nil
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	face, textW, textH, err := w.largestFace(text, width)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	layer := image.NewNRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I((width - textW) / 2),
			Y: fixed.I((height-textH)/2) + face.Metrics().Ascent,
		},
	}
	d.DrawString(text)

	angle := math.Atan2(float64(height), float64(width)) * 180 / math.Pi
	rotated := imaging.Rotate(layer, angle, color.Transparent)
	mark := imaging.CropCenter(rotated, width, height)
	clampAlpha(mark, maxWatermarkAlpha)

	base := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(base, base.Bounds(), img, bounds.Min, draw.Src)
	draw.Draw(base, base.Bounds(), mark, image.Point{}, draw.Over)
	return base, nil
}

// largestFace searches upwards from size 1 for the biggest font size whose
// rendered width plus a third of its height still fits maxWidth.
func (w *Watermarker) largestFace(text string, maxWidth int) (font.Face, int, int, error) {
	var (
		best         font.Face
		bestW, bestH int
	)
	for size := 1.0; ; size++ {
		face, err := opentype.NewFace(w.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
		if err != nil {
			if best != nil {
				best.Close()
			}
			return nil, 0, 0, fmt.Errorf("%w: %v", ErrDerivativeGeneration, err)
		}
		tw := font.MeasureString(face, text).Ceil()
		m := face.Metrics()
		th := (m.Ascent + m.Descent).Ceil()
		if best != nil && tw+th/3 > maxWidth {
			face.Close()
			return best, bestW, bestH, nil
		}
		if best != nil {
			best.Close()
		}
		best, bestW, bestH = face, tw, th
		if tw+th/3 > maxWidth {
			// not even size 1 fits
			return best, bestW, bestH, nil
		}
	}
}

func clampAlpha(img *image.NRGBA, max uint8) {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > max {
			img.Pix[i] = max
		}
	}
}
