// Package pixelart converts a decoded raster image into a pixel-art
// rendering by partitioning the image plane into a small number of
// regions — a uniform Grid or an adaptive QuadTree — and replacing every
// pixel in each region with one representative color chosen by a
// ColorExtractor.
package pixelart

import "fmt"

// Pixel is a 4-channel 8-bit RGBA color. Alpha is carried through the data
// model but ignored by every ColorExtractor; output alpha is always 255.
type Pixel struct {
	R, G, B, A uint8
}

// Opaque returns p with alpha forced to 255.
func (p Pixel) Opaque() Pixel {
	p.A = 255
	return p
}

// Image is a width×height rectangle of Pixels stored row-major, 0-indexed,
// with the origin at the top-left corner.
type Image struct {
	Width, Height uint32
	Pix           []Pixel
}

// NewImage allocates a zeroed Image of the given dimensions.
func NewImage(width, height uint32) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]Pixel, int(width)*int(height)),
	}
}

// At returns the pixel at (x, y). The coordinates are not bounds-checked:
// an x at or past Width reads from a later row, and only an offset past
// the end of Pix panics.
func (im *Image) At(x, y uint32) Pixel {
	return im.Pix[im.offset(x, y)]
}

// Set writes the pixel at (x, y).
func (im *Image) Set(x, y uint32, p Pixel) {
	im.Pix[im.offset(x, y)] = p
}

func (im *Image) offset(x, y uint32) int {
	return int(y)*int(im.Width) + int(x)
}

// FillRect overwrites every pixel in the half-open rectangle
// [x0,x1)×[y0,y1), clipped to the image bounds, with p.
func (im *Image) FillRect(x0, y0, x1, y1 uint32, p Pixel) {
	if x1 > im.Width {
		x1 = im.Width
	}
	if y1 > im.Height {
		y1 = im.Height
	}
	for y := y0; y < y1; y++ {
		row := im.offset(x0, y)
		for x := x0; x < x1; x++ {
			im.Pix[row] = p
			row++
		}
	}
}

// Region returns a freshly allocated copy of the pixels inside the
// half-open rectangle [x0,x1)×[y0,y1), clipped to the image bounds.
func (im *Image) Region(x0, y0, x1, y1 uint32) []Pixel {
	if x1 > im.Width {
		x1 = im.Width
	}
	if y1 > im.Height {
		y1 = im.Height
	}
	if x0 >= x1 || y0 >= y1 {
		return nil
	}
	out := make([]Pixel, 0, int(x1-x0)*int(y1-y0))
	for y := y0; y < y1; y++ {
		row := im.offset(x0, y)
		out = append(out, im.Pix[row:row+int(x1-x0)]...)
	}
	return out
}

// InvalidDimensionsError reports a Grid, QuadTree or Image dimension that
// violates the data model's constraints (zero, or a cell count that
// exceeds the image extent).
type InvalidDimensionsError struct {
	Reason string
}

func (e *InvalidDimensionsError) Error() string {
	return fmt.Sprintf("pixelart: invalid dimensions: %s", e.Reason)
}

// InvalidParameterError reports a ColorExtractor parameter that fails its
// precondition (e.g. a palette size below 1).
type InvalidParameterError struct {
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("pixelart: invalid parameter: %s", e.Reason)
}

// EmptyInputError reports a ColorExtractor invoked with zero pixels.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "pixelart: extractor invoked with empty pixel set"
}

// OutOfMemoryError reports an allocation failure during tree or output
// buffer construction.
type OutOfMemoryError struct {
	Reason string
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("pixelart: out of memory: %s", e.Reason)
}

// ProcessingError is the catch-all for internal invariant violations
// surfaced to the caller.
type ProcessingError struct {
	Reason string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("pixelart: processing error: %s", e.Reason)
}
