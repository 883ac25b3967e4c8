package pixelart

import (
	"math"
	"math/rand"

	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultKMeansSeed is the PRNG seed used by KMeansExtractor when its Seed
// field is left at zero, so that property 6 (determinism) holds without
// every caller having to pick a seed. Tests that need reproducibility
// across an explicit value set Seed directly.
const DefaultKMeansSeed uint64 = 0x5EED1234

// KMeansExtractor partitions the input pixels into K clusters by squared
// RGB distance and returns the centroid of the most populated cluster.
// Centroid initialization uses k-means++, seeded deterministically from
// Seed (or DefaultKMeansSeed) so repeated calls with the same input are
// byte-identical, per spec.md §4.3 and §9.
type KMeansExtractor struct {
	K             uint32
	MaxIterations uint32
	Seed          uint64
}

// Extract implements ColorExtractor.
func (e KMeansExtractor) Extract(pixels []Pixel) (Pixel, error) {
	_, representative, err := e.ExtractPalette(pixels)
	return representative, err
}

// ExtractPalette implements PaletteExtractor.
func (e KMeansExtractor) ExtractPalette(pixels []Pixel) ([]Pixel, Pixel, error) {
	if e.K < 1 {
		return nil, Pixel{}, &InvalidParameterError{Reason: "kmeans k must be >= 1"}
	}
	if e.MaxIterations < 1 {
		return nil, Pixel{}, &InvalidParameterError{Reason: "kmeans max iterations must be >= 1"}
	}
	if len(pixels) == 0 {
		return nil, Pixel{}, &EmptyInputError{}
	}

	n := len(pixels)
	k := int(e.K)
	if n <= k {
		mean := meanOf(pixels)
		return []Pixel{mean}, mean, nil
	}

	seed := e.Seed
	if seed == 0 {
		seed = DefaultKMeansSeed
	}
	rng := rand.New(rand.NewSource(int64(seed)))

	centroids := mat.NewDense(k, 3, nil)
	seedCentroidsPlusPlus(pixels, centroids, rng)

	assignments := make([]int, n)
	prev := mat.NewDense(k, 3, nil)
	for iter := 0; iter < int(e.MaxIterations); iter++ {
		prev.Copy(centroids)
		assignPixels(pixels, centroids, assignments)
		updateCentroids(pixels, assignments, centroids, prev, k)
		if centroidsConverged(prev, centroids) {
			break
		}
	}

	counts := make([]int, k)
	for _, a := range assignments {
		counts[a]++
	}
	palette := centroidsToPalette(centroids)
	best := 0
	for i := 1; i < k; i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return palette, palette[best], nil
}

// pixelCoordinates adapts a Pixel to the clusters.Coordinates vocabulary
// used by the teacher's clustering code, keeping the pixel-vector
// representation interoperable with github.com/muesli/clusters even
// though the Lloyd loop itself is bespoke (see DESIGN.md).
func pixelCoordinates(p Pixel) clusters.Coordinates {
	return clusters.Coordinates{float64(p.R), float64(p.G), float64(p.B)}
}

// seedCentroidsPlusPlus picks k initial centroids by k-means++: the first
// is pixel index 0, and each subsequent centroid is chosen with
// probability proportional to its squared distance to the nearest
// already-chosen centroid.
func seedCentroidsPlusPlus(pixels []Pixel, centroids *mat.Dense, rng *rand.Rand) {
	k, _ := centroids.Dims()
	n := len(pixels)

	first := pixelCoordinates(pixels[0])
	centroids.SetRow(0, first)

	nearestDist2 := make([]float64, n)
	for i, p := range pixels {
		nearestDist2[i] = float64(squaredDistanceRGB(p, pixels[0]))
	}

	for c := 1; c < k; c++ {
		total := floats.Sum(nearestDist2)
		var idx int
		if total <= 0 {
			idx = c % n
		} else {
			target := rng.Float64() * total
			cum := 0.0
			idx = n - 1
			for i, d := range nearestDist2 {
				cum += d
				if cum >= target {
					idx = i
					break
				}
			}
		}
		centroids.SetRow(c, pixelCoordinates(pixels[idx]))

		for i, p := range pixels {
			d := float64(squaredDistanceRGB(p, pixels[idx]))
			if d < nearestDist2[i] {
				nearestDist2[i] = d
			}
		}
	}
}

// squaredDistanceToCentroid computes the squared Euclidean distance
// between a pixel and centroid row using gonum/floats.Distance.
func squaredDistanceToCentroid(p Pixel, centroids *mat.Dense, row int) float64 {
	pv := [3]float64{float64(p.R), float64(p.G), float64(p.B)}
	cv := [3]float64{centroids.At(row, 0), centroids.At(row, 1), centroids.At(row, 2)}
	d := floats.Distance(pv[:], cv[:], 2)
	return d * d
}

// assignPixels assigns each pixel to its nearest centroid by squared RGB
// distance, ties broken by smallest centroid index (spec.md §4.3).
func assignPixels(pixels []Pixel, centroids *mat.Dense, assignments []int) {
	k, _ := centroids.Dims()
	for i, p := range pixels {
		best := 0
		bestD := squaredDistanceToCentroid(p, centroids, 0)
		for c := 1; c < k; c++ {
			d := squaredDistanceToCentroid(p, centroids, c)
			if d < bestD {
				bestD = d
				best = c
			}
		}
		assignments[i] = best
	}
}

// updateCentroids recomputes each centroid as the mean of its assigned
// pixels. A centroid with no assignments is re-seeded to the pixel
// furthest (by squared distance) from every centroid in prev.
func updateCentroids(pixels []Pixel, assignments []int, centroids, prev *mat.Dense, k int) {
	sums := make([][3]float64, k)
	counts := make([]int, k)
	for i, p := range pixels {
		c := assignments[i]
		sums[c][0] += float64(p.R)
		sums[c][1] += float64(p.G)
		sums[c][2] += float64(p.B)
		counts[c]++
	}

	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			n := float64(counts[c])
			centroids.SetRow(c, []float64{sums[c][0] / n, sums[c][1] / n, sums[c][2] / n})
			continue
		}
		furthest := furthestPixelFromAny(pixels, prev)
		centroids.SetRow(c, pixelCoordinates(furthest))
	}
}

// furthestPixelFromAny returns the pixel maximizing its distance to the
// nearest row of centroids; ties are broken by smallest pixel index.
func furthestPixelFromAny(pixels []Pixel, centroids *mat.Dense) Pixel {
	k, _ := centroids.Dims()
	bestIdx := 0
	bestDist := -1.0
	for i, p := range pixels {
		nearest := squaredDistanceToCentroid(p, centroids, 0)
		for c := 1; c < k; c++ {
			d := squaredDistanceToCentroid(p, centroids, c)
			if d < nearest {
				nearest = d
			}
		}
		if nearest > bestDist {
			bestDist = nearest
			bestIdx = i
		}
	}
	return pixels[bestIdx]
}

// centroidsConverged reports whether no centroid moved by more than 0.5
// in any channel between prev and centroids.
func centroidsConverged(prev, centroids *mat.Dense) bool {
	k, cols := centroids.Dims()
	for r := 0; r < k; r++ {
		for c := 0; c < cols; c++ {
			if math.Abs(centroids.At(r, c)-prev.At(r, c)) > 0.5 {
				return false
			}
		}
	}
	return true
}

// centroidsToPalette converts each centroid row to a Pixel, flooring and
// clamping every channel with clampToByte.
func centroidsToPalette(centroids *mat.Dense) []Pixel {
	k, _ := centroids.Dims()
	palette := make([]Pixel, k)
	for r := 0; r < k; r++ {
		palette[r] = Pixel{
			R: clampToByte(centroids.At(r, 0)),
			G: clampToByte(centroids.At(r, 1)),
			B: clampToByte(centroids.At(r, 2)),
			A: 255,
		}
	}
	return palette
}

// clampToByte floors v into a byte, matching meanOf's integer-division
// truncation so KMeans and QuadTree channel means agree with Average on
// ties (e.g. a mean of 127.5 truncates to 127, not 128).
func clampToByte(v float64) uint8 {
	f := math.Floor(v)
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f)
}
