package pixelart

import "gonum.org/v1/gonum/floats"

// QuadNode is one node of a QuadTree. Its region is the square
// [x, x+size) x [y, y+size). A node is a leaf iff Children is nil; an
// internal node's four children partition its square into equal
// quadrants in top-left, top-right, bottom-left, bottom-right order, so
// size is even and >= 2 at any internal node.
type QuadNode struct {
	X, Y, Size uint32
	Mean       Pixel
	Variance   float64
	Children   *[4]QuadNode
}

// IsLeaf reports whether the node has no children.
func (n *QuadNode) IsLeaf() bool { return n.Children == nil }

// QuadTree is a recursive spatial partition built over the smallest
// square containing an input image, with pixels outside the image
// treated as absent.
type QuadTree struct {
	Root              QuadNode
	MaxDepth          uint32
	VarianceThreshold float64
}

// BuildQuadTree constructs a QuadTree over im. S, the square side, is the
// smallest power of two >= max(im.Width, im.Height); the build proceeds
// recursively per spec.md §4.2.
func BuildQuadTree(im *Image, maxDepth uint32, varianceThreshold float64) *QuadTree {
	s := smallestPowerOfTwoAtLeast(maxU32(im.Width, im.Height))
	t := &QuadTree{MaxDepth: maxDepth, VarianceThreshold: varianceThreshold}
	t.Root = buildNode(im, 0, 0, s, 0, maxDepth, varianceThreshold)
	return t
}

func smallestPowerOfTwoAtLeast(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	p := uint32(1)
	for p < v {
		p <<= 1
	}
	return p
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func buildNode(im *Image, x, y, size, depth, maxDepth uint32, varianceThreshold float64) QuadNode {
	mean, variance := regionMeanVariance(im, x, y, size)
	node := QuadNode{X: x, Y: y, Size: size, Mean: mean, Variance: variance}

	if depth >= maxDepth || variance <= varianceThreshold || size <= 1 {
		return node
	}

	half := size / 2
	children := [4]QuadNode{
		buildNode(im, x, y, half, depth+1, maxDepth, varianceThreshold),
		buildNode(im, x+half, y, half, depth+1, maxDepth, varianceThreshold),
		buildNode(im, x, y+half, half, depth+1, maxDepth, varianceThreshold),
		buildNode(im, x+half, y+half, half, depth+1, maxDepth, varianceThreshold),
	}
	node.Children = &children
	return node
}

// regionMeanVariance collects the pixels of the size x size square at
// (x, y) that fall within im, computes their channel-wise mean (alpha
// forced to 255), and the population variance defined as the mean over
// in-region pixels of the sum of squared per-channel deviations from the
// mean (spec.md §4.2, GLOSSARY "Variance"). An empty region yields
// (transparent black, 0).
func regionMeanVariance(im *Image, x, y, size uint32) (Pixel, float64) {
	x1 := x + size
	y1 := y + size
	if x1 > im.Width {
		x1 = im.Width
	}
	if y1 > im.Height {
		y1 = im.Height
	}
	if x >= x1 || y >= y1 {
		return Pixel{}, 0
	}

	var sumR, sumG, sumB uint64
	var count uint64
	for py := y; py < y1; py++ {
		row := py*im.Width + x
		for px := x; px < x1; px++ {
			p := im.Pix[row]
			sumR += uint64(p.R)
			sumG += uint64(p.G)
			sumB += uint64(p.B)
			count++
			row++
		}
	}
	if count == 0 {
		return Pixel{}, 0
	}

	n := float64(count)
	meanR := float64(sumR) / n
	meanG := float64(sumG) / n
	meanB := float64(sumB) / n

	var sumSq float64
	deviation := make([]float64, 3)
	for py := y; py < y1; py++ {
		row := py*im.Width + x
		for px := x; px < x1; px++ {
			p := im.Pix[row]
			deviation[0] = float64(p.R) - meanR
			deviation[1] = float64(p.G) - meanG
			deviation[2] = float64(p.B) - meanB
			sumSq += floats.Dot(deviation, deviation)
			row++
		}
	}
	variance := sumSq / n

	mean := Pixel{
		R: clampToByte(meanR),
		G: clampToByte(meanG),
		B: clampToByte(meanB),
		A: 255,
	}
	return mean, variance
}

// NodeCount returns the total number of nodes (leaves + internals), used
// as the progress denominator for a QuadTree conversion.
func (t *QuadTree) NodeCount() uint32 {
	return countNodes(&t.Root)
}

func countNodes(n *QuadNode) uint32 {
	count := uint32(1)
	if n.Children != nil {
		for i := range n.Children {
			count += countNodes(&n.Children[i])
		}
	}
	return count
}

// Leaf is one leaf of a QuadTree, yielded by ToLeaves in depth-first
// pre-order.
type Leaf struct {
	X, Y, Size uint32
	Color      Pixel
}

// ToLeaves returns every leaf of the tree in depth-first pre-order.
func (t *QuadTree) ToLeaves() []Leaf {
	var leaves []Leaf
	collectLeaves(&t.Root, &leaves)
	return leaves
}

func collectLeaves(n *QuadNode, out *[]Leaf) {
	if n.Children == nil {
		*out = append(*out, Leaf{X: n.X, Y: n.Y, Size: n.Size, Color: n.Mean})
		return
	}
	for i := range n.Children {
		collectLeaves(&n.Children[i], out)
	}
}

// Render allocates a fresh width x height image and fills the
// intersection of every leaf's square with the image bounds with the
// leaf's color. Leaves partition the padded square exactly, so every
// output pixel is written exactly once.
func (t *QuadTree) Render(width, height uint32) *Image {
	out := NewImage(width, height)
	for _, leaf := range t.ToLeaves() {
		out.FillRect(leaf.X, leaf.Y, leaf.X+leaf.Size, leaf.Y+leaf.Size, leaf.Color)
	}
	return out
}
