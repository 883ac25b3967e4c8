// Package utils holds the ambient collaborators the pixelart core does not
// own: image codec I/O and a CLI-facing palette preview helper. None of
// this package is on the deterministic core path (spec.md §1, "out of
// scope: image codec I/O").
package utils

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/naporin0624/pixelart"
)

// ReadImage decodes the image at path, sniffing its format the way
// image.Decode does (PNG and JPEG are registered above).
func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("utils: open %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("utils: decode %q: %w", path, err)
	}
	return img, nil
}

// SaveImage PNG-encodes img to path, the recommended lossless output
// format per spec.md §6.
func SaveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("utils: create %q: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("utils: encode %q: %w", path, err)
	}
	return nil
}

// ToPixelartImage copies a decoded stdlib image into a *pixelart.Image,
// the format the core Converter operates on.
func ToPixelartImage(img image.Image) *pixelart.Image {
	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	out := pixelart.NewImage(width, height)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(uint32(x), uint32(y), pixelart.Pixel{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			})
		}
	}
	return out
}

// FromPixelartImage renders a *pixelart.Image as a stdlib *image.NRGBA,
// ready for SaveImage.
func FromPixelartImage(im *pixelart.Image) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, int(im.Width), int(im.Height)))
	for y := uint32(0); y < im.Height; y++ {
		for x := uint32(0); x < im.Width; x++ {
			p := im.At(x, y)
			out.SetNRGBA(int(x), int(y), color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A})
		}
	}
	return out
}

// SortPaletteByBrightness orders colors from darkest to brightest, the
// first entry becoming the darkest.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortFunc(palette, func(a, b colorful.Color) int {
		ri, gi, bi := a.LinearRgb()
		rj, gj, bj := b.LinearRgb()
		yi := 0.2126*ri + 0.7152*gi + 0.0722*bi
		yj := 0.2126*rj + 0.7152*gj + 0.0722*bj
		if yi < yj {
			return -1
		}
		if yi > yj {
			return 1
		}
		return 0
	})
}

// PreviewPalette returns up to k dominant colors of img, darkest first.
// It is a CLI convenience for suggesting a `-c` value; the core extractors
// never call it. On a degenerate image (dominantcolor finds nothing) it
// logs a warning and falls back to a single mid-gray swatch rather than
// returning an empty slice.
func PreviewPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}

	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	if len(candidates) == 0 {
		log.Println("pixelart: palette preview found no dominant colors, using mid-gray fallback")
		candidates = []dominantcolor.Color{{RGBA: color.RGBA{R: 128, G: 128, B: 128, A: 255}, Weight: 1}}
	}

	palette := make([]colorful.Color, 0, min(k, len(candidates)))
	for i, c := range candidates {
		if i >= k {
			break
		}
		col, _ := colorful.MakeColor(c.RGBA)
		palette = append(palette, col.Clamped())
	}
	SortPaletteByBrightness(palette)
	return palette
}
