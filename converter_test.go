package pixelart

import (
	"sync"
	"testing"
)

func checkerImage() *Image {
	im := NewImage(2, 2)
	im.Set(0, 0, Pixel{R: 255, G: 0, B: 0, A: 255})
	im.Set(1, 0, Pixel{R: 0, G: 255, B: 0, A: 255})
	im.Set(0, 1, Pixel{R: 0, G: 0, B: 255, A: 255})
	im.Set(1, 1, Pixel{R: 255, G: 255, B: 255, A: 255})
	return im
}

// TestConvertScenarioS1 reproduces spec.md §8 scenario S1.
func TestConvertScenarioS1(t *testing.T) {
	im := NewImage(2, 2)
	red := Pixel{R: 255, G: 0, B: 0, A: 255}
	im.FillRect(0, 0, 2, 2, red)

	var events [][2]uint32
	conv := NewGridConverter(1, 1, AverageExtractor{})
	conv.SetProgress(NewCallbackProgressSink(func(r, c uint32) {
		events = append(events, [2]uint32{r, c})
	}))

	out, err := conv.Convert(im)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	for i, p := range out.Pix {
		if p != red {
			t.Errorf("pixel %d = %+v, want %+v", i, p, red)
		}
	}
	if len(events) != 1 || events[0] != [2]uint32{0, 0} {
		t.Errorf("events = %v, want [[0 0]]", events)
	}
}

// TestConvertScenarioS3 reproduces spec.md §8 scenario S3: a per-pixel
// grid with Average is a no-op.
func TestConvertScenarioS3(t *testing.T) {
	im := checkerImage()
	conv := NewGridConverter(2, 2, AverageExtractor{})
	out, err := conv.Convert(im)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if len(out.Pix) != len(im.Pix) {
		t.Fatalf("output length = %d, want %d", len(out.Pix), len(im.Pix))
	}
	for i := range im.Pix {
		if out.Pix[i] != im.Pix[i] {
			t.Errorf("pixel %d = %+v, want %+v", i, out.Pix[i], im.Pix[i])
		}
	}
}

// TestConvertScenarioS4 reproduces spec.md §8 scenario S4.
func TestConvertScenarioS4(t *testing.T) {
	im := NewImage(4, 4)
	red := Pixel{R: 255, G: 0, B: 0, A: 255}
	blue := Pixel{R: 0, G: 0, B: 255, A: 255}
	for y := uint32(0); y < 4; y++ {
		for x := uint32(0); x < 4; x++ {
			if x < 2 {
				im.Set(x, y, red)
			} else {
				im.Set(x, y, blue)
			}
		}
	}

	conv := NewGridConverter(2, 1, AverageExtractor{})
	out, err := conv.Convert(im)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	for y := uint32(0); y < 4; y++ {
		for x := uint32(0); x < 4; x++ {
			want := red
			if x >= 2 {
				want = blue
			}
			if got := out.At(x, y); got != want {
				t.Errorf("At(%d,%d) = %+v, want %+v", x, y, got, want)
			}
		}
	}
}

// TestConvertOutputDimensions covers property 2.
func TestConvertOutputDimensions(t *testing.T) {
	im := NewImage(7, 5)
	conv := NewGridConverter(3, 5, AverageExtractor{})
	out, err := conv.Convert(im)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if out.Width != im.Width || out.Height != im.Height {
		t.Errorf("output dims = %dx%d, want %dx%d", out.Width, out.Height, im.Width, im.Height)
	}
}

// TestConvertParallelEquivalence covers property 7: Convert and
// ConvertParallel return byte-identical output for Grid strategy.
func TestConvertParallelEquivalence(t *testing.T) {
	im := NewImage(13, 9)
	for y := uint32(0); y < im.Height; y++ {
		for x := uint32(0); x < im.Width; x++ {
			im.Set(x, y, Pixel{R: uint8(x * 17), G: uint8(y * 23), B: uint8((x + y) * 5), A: 255})
		}
	}

	seqConv := NewGridConverter(4, 3, AverageExtractor{})
	seqOut, err := seqConv.Convert(im)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	parConv := NewGridConverter(4, 3, AverageExtractor{})
	parOut, err := parConv.ConvertParallel(im)
	if err != nil {
		t.Fatalf("ConvertParallel() error: %v", err)
	}

	if len(seqOut.Pix) != len(parOut.Pix) {
		t.Fatalf("output length differs: %d vs %d", len(seqOut.Pix), len(parOut.Pix))
	}
	for i := range seqOut.Pix {
		if seqOut.Pix[i] != parOut.Pix[i] {
			t.Errorf("pixel %d differs: %+v vs %+v", i, seqOut.Pix[i], parOut.Pix[i])
		}
	}
}

// TestConvertProgressCompleteness covers property 8: the set of (r,c)
// events emitted equals, as a multiset, exactly one event per cell.
func TestConvertProgressCompleteness(t *testing.T) {
	im := NewImage(10, 10)
	var mu sync.Mutex
	seen := map[Cell]int{}
	conv := NewGridConverter(3, 4, AverageExtractor{})
	conv.SetProgress(NewCallbackProgressSink(func(r, c uint32) {
		mu.Lock()
		defer mu.Unlock()
		seen[Cell{Row: r, Col: c}]++
	}))

	if _, err := conv.ConvertParallel(im); err != nil {
		t.Fatalf("ConvertParallel() error: %v", err)
	}

	g, _ := NewGrid(im.Width, im.Height, 3, 4)
	want := g.IterCells()
	if len(seen) != len(want) {
		t.Fatalf("distinct events = %d, want %d", len(seen), len(want))
	}
	for _, cell := range want {
		if seen[cell] != 1 {
			t.Errorf("cell %+v seen %d times, want 1", cell, seen[cell])
		}
	}
}

func TestConverterRejectsConcurrentInvocation(t *testing.T) {
	conv := NewGridConverter(1, 1, AverageExtractor{})
	if err := conv.begin(); err != nil {
		t.Fatalf("begin() error: %v", err)
	}
	defer conv.finish(nil)

	im := NewImage(2, 2)
	if _, err := conv.Convert(im); err == nil {
		t.Error("Convert() while running = nil error, want error")
	}
}

func TestConvertWithStats(t *testing.T) {
	im := NewImage(4, 4)
	conv := NewGridConverter(2, 2, AverageExtractor{})
	out, stats, err := ConvertWithStats(conv, im, false)
	if err != nil {
		t.Fatalf("ConvertWithStats() error: %v", err)
	}
	if out.Width != 4 || out.Height != 4 {
		t.Errorf("output dims = %dx%d, want 4x4", out.Width, out.Height)
	}
	if stats.CellsProcessed != 4 {
		t.Errorf("CellsProcessed = %d, want 4", stats.CellsProcessed)
	}
}

func TestQuadTreePaletteRemap(t *testing.T) {
	im := NewImage(4, 4)
	for y := uint32(0); y < 4; y++ {
		for x := uint32(0); x < 4; x++ {
			if x < 2 && y < 2 {
				im.Set(x, y, Pixel{R: 10, G: 10, B: 10, A: 255})
			} else if x >= 2 && y < 2 {
				im.Set(x, y, Pixel{R: 200, G: 10, B: 10, A: 255})
			} else if x < 2 && y >= 2 {
				im.Set(x, y, Pixel{R: 10, G: 200, B: 10, A: 255})
			} else {
				im.Set(x, y, Pixel{R: 10, G: 10, B: 200, A: 255})
			}
		}
	}

	conv := NewQuadTreeConverter(4, 0.0, &MedianCutExtractor{TargetColors: 2})
	out, err := conv.Convert(im)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	distinct := map[Pixel]bool{}
	for _, p := range out.Pix {
		distinct[p] = true
	}
	if len(distinct) > 2 {
		t.Errorf("distinct output colors = %d, want <= 2 after palette remap", len(distinct))
	}
}
