package pixelart

// ColorExtractor maps a non-empty multiset of pixels to one representative
// color. Implementations must be stateless or use only thread-local /
// immutable state: Extract may be invoked concurrently from multiple
// worker goroutines by a Converter.
type ColorExtractor interface {
	Extract(pixels []Pixel) (Pixel, error)
}

// AverageExtractor returns the arithmetic mean of the input pixels,
// accumulating each channel in a 64-bit integer so that sums of up to
// width*height pixels never overflow.
type AverageExtractor struct{}

// Extract implements ColorExtractor.
func (AverageExtractor) Extract(pixels []Pixel) (Pixel, error) {
	if len(pixels) == 0 {
		return Pixel{}, &EmptyInputError{}
	}
	return meanOf(pixels), nil
}

// meanOf computes the channel-wise arithmetic mean with 64-bit integer
// accumulation and floor division, per spec.md §4.3.
func meanOf(pixels []Pixel) Pixel {
	var sumR, sumG, sumB uint64
	for _, p := range pixels {
		sumR += uint64(p.R)
		sumG += uint64(p.G)
		sumB += uint64(p.B)
	}
	n := uint64(len(pixels))
	return Pixel{
		R: uint8(sumR / n),
		G: uint8(sumG / n),
		B: uint8(sumB / n),
		A: 255,
	}
}

// squaredDistanceRGB is the squared Euclidean distance between two pixels'
// R, G, B channels, computed in exact integer arithmetic so that nearest-
// color and tie-break comparisons never suffer floating-point rounding.
func squaredDistanceRGB(a, b Pixel) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// lessByChannels reports whether a sorts before b under the "smallest R,
// then G, then B" tie-break rule used by MedianCut's nearest-palette
// selection (spec.md §4.3).
func lessByChannels(a, b Pixel) bool {
	if a.R != b.R {
		return a.R < b.R
	}
	if a.G != b.G {
		return a.G < b.G
	}
	return a.B < b.B
}
