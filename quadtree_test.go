package pixelart

import "testing"

func TestSmallestPowerOfTwoAtLeast(t *testing.T) {
	tests := []struct {
		v, want uint32
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8}, {16, 16}, {17, 32},
	}
	for _, tt := range tests {
		if got := smallestPowerOfTwoAtLeast(tt.v); got != tt.want {
			t.Errorf("smallestPowerOfTwoAtLeast(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

// TestQuadTreeScenarioS5 reproduces spec.md §8 scenario S5: a uniform
// image never splits because its variance is zero.
func TestQuadTreeScenarioS5(t *testing.T) {
	im := NewImage(4, 4)
	gray := Pixel{R: 128, G: 128, B: 128, A: 255}
	im.FillRect(0, 0, 4, 4, gray)

	tree := BuildQuadTree(im, 4, 0.0)
	leaves := tree.ToLeaves()
	if len(leaves) != 1 {
		t.Fatalf("len(leaves) = %d, want 1", len(leaves))
	}
	if leaves[0].Size != 4 {
		t.Errorf("leaf size = %d, want 4", leaves[0].Size)
	}
	if leaves[0].Color != gray {
		t.Errorf("leaf color = %+v, want %+v", leaves[0].Color, gray)
	}

	rendered := tree.Render(im.Width, im.Height)
	for i, p := range rendered.Pix {
		if p != gray {
			t.Errorf("rendered pixel %d = %+v, want %+v", i, p, gray)
		}
	}
}

// TestQuadTreeCoverage covers property 9: leaf rectangles, clipped to the
// image, tile it exactly.
func TestQuadTreeCoverage(t *testing.T) {
	im := NewImage(6, 5)
	for y := uint32(0); y < im.Height; y++ {
		for x := uint32(0); x < im.Width; x++ {
			im.Set(x, y, Pixel{R: uint8(x * 40), G: uint8(y * 40), B: uint8((x + y) * 20), A: 255})
		}
	}

	tree := BuildQuadTree(im, 6, 10.0)
	covered := make([]int, int(im.Width)*int(im.Height))
	for _, leaf := range tree.ToLeaves() {
		x1, y1 := leaf.X+leaf.Size, leaf.Y+leaf.Size
		if x1 > im.Width {
			x1 = im.Width
		}
		if y1 > im.Height {
			y1 = im.Height
		}
		for y := leaf.Y; y < y1; y++ {
			for x := leaf.X; x < x1; x++ {
				if x >= im.Width || y >= im.Height {
					continue
				}
				covered[int(y)*int(im.Width)+int(x)]++
			}
		}
	}
	for i, n := range covered {
		if n != 1 {
			t.Fatalf("pixel %d covered %d times, want exactly 1", i, n)
		}
	}
}

// TestQuadTreeVarianceMonotonicity covers property 10: the area-weighted
// mean of a node's children's variances never exceeds the node's own
// variance.
func TestQuadTreeVarianceMonotonicity(t *testing.T) {
	im := NewImage(8, 8)
	for y := uint32(0); y < im.Height; y++ {
		for x := uint32(0); x < im.Width; x++ {
			im.Set(x, y, Pixel{R: uint8((x * 37) % 256), G: uint8((y * 53) % 256), B: uint8((x * y) % 256), A: 255})
		}
	}

	tree := BuildQuadTree(im, 8, 0.0)
	checkVarianceMonotonicity(t, &tree.Root)
}

func checkVarianceMonotonicity(t *testing.T, n *QuadNode) {
	if n.Children == nil {
		return
	}
	var weighted float64
	area := float64(n.Size) * float64(n.Size)
	for i := range n.Children {
		child := &n.Children[i]
		childArea := float64(child.Size) * float64(child.Size)
		weighted += child.Variance * childArea / area
		checkVarianceMonotonicity(t, child)
	}
	if weighted > n.Variance+1e-9 {
		t.Errorf("node (%d,%d,size=%d): area-weighted child variance %v > node variance %v",
			n.X, n.Y, n.Size, weighted, n.Variance)
	}
}

func TestQuadTreeMaxDepthZero(t *testing.T) {
	im := NewImage(4, 4)
	for y := uint32(0); y < im.Height; y++ {
		for x := uint32(0); x < im.Width; x++ {
			im.Set(x, y, Pixel{R: uint8(x * 60), G: uint8(y * 60), B: 0, A: 255})
		}
	}
	tree := BuildQuadTree(im, 0, 1.0)
	if len(tree.ToLeaves()) != 1 {
		t.Errorf("len(leaves) = %d, want 1 with max_depth=0", len(tree.ToLeaves()))
	}
}

func TestQuadTreeNodeCount(t *testing.T) {
	im := NewImage(4, 4)
	im.FillRect(0, 0, 4, 4, Pixel{R: 1, A: 255})
	tree := BuildQuadTree(im, 10, 0.0)
	if tree.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1 for a uniform image", tree.NodeCount())
	}
}
