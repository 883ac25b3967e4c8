package pixelart

// Grid describes a uniform partition of an image rectangle into
// rows×cols cells with integer bounds. Cell (r, c) has bounds
// (x0, y0, x1, y1) where x0 = floor(c*imageW/cols), x1 = floor((c+1)*imageW/cols)
// (analogously for y); the cells tile [0,imageW)×[0,imageH) exactly.
type Grid struct {
	imageW, imageH uint32
	cols, rows     uint32
}

// NewGrid validates and constructs a Grid. It returns an
// *InvalidDimensionsError if any argument is zero, or if cols > imageW, or
// rows > imageH.
func NewGrid(imageW, imageH, cols, rows uint32) (*Grid, error) {
	if imageW == 0 || imageH == 0 {
		return nil, &InvalidDimensionsError{Reason: "image width and height must be positive"}
	}
	if cols == 0 || rows == 0 {
		return nil, &InvalidDimensionsError{Reason: "grid cols and rows must be positive"}
	}
	if cols > imageW {
		return nil, &InvalidDimensionsError{Reason: "grid cols exceeds image width"}
	}
	if rows > imageH {
		return nil, &InvalidDimensionsError{Reason: "grid rows exceeds image height"}
	}
	return &Grid{imageW: imageW, imageH: imageH, cols: cols, rows: rows}, nil
}

// Cols returns the number of grid columns.
func (g *Grid) Cols() uint32 { return g.cols }

// Rows returns the number of grid rows.
func (g *Grid) Rows() uint32 { return g.rows }

// CellCount returns rows*cols.
func (g *Grid) CellCount() uint32 { return g.rows * g.cols }

// CellBounds returns the integer bounds (x0, y0, x1, y1) of cell (r, c).
func (g *Grid) CellBounds(r, c uint32) (x0, y0, x1, y1 uint32) {
	x0 = c * g.imageW / g.cols
	x1 = (c + 1) * g.imageW / g.cols
	y0 = r * g.imageH / g.rows
	y1 = (r + 1) * g.imageH / g.rows
	return
}

// Cell is one (row, col) coordinate yielded by IterCells.
type Cell struct {
	Row, Col uint32
}

// IterCells returns every (r, c) for r in [0,rows), c in [0,cols) in
// row-major order.
func (g *Grid) IterCells() []Cell {
	cells := make([]Cell, 0, g.CellCount())
	for r := uint32(0); r < g.rows; r++ {
		for c := uint32(0); c < g.cols; c++ {
			cells = append(cells, Cell{Row: r, Col: c})
		}
	}
	return cells
}
