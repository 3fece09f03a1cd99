package heat

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// spanEpsilon guards the affine lat/lon-to-cell mapping against a
// zero-span bounding box. With it, a degenerate box maps every point to
// cell 0 instead of dividing by zero.
const spanEpsilon = 1e-9

// Grid is a square density raster over a bounding box. Cells are stored
// row-major with row 0 at the geographic south edge; the pixel encoder
// flips rows into image order at emission time.
type Grid struct {
	Res   int
	Cells []float64
}

// NewGrid returns a zeroed res×res grid.
func NewGrid(res int) *Grid {
	return &Grid{Res: res, Cells: make([]float64, res*res)}
}

// At returns the cell value at column x, row y.
func (g *Grid) At(x, y int) float64 { return g.Cells[y*g.Res+x] }

func (g *Grid) set(x, y int, v float64) { g.Cells[y*g.Res+x] = v }

// Sum returns the total mass of the grid.
func (g *Grid) Sum() float64 { return floats.Sum(g.Cells) }

// Accumulate rasterizes one category's points into an unweighted 2D
// histogram over the shared bounds. Overlapping points stack: each
// in-range point adds 1.0 to its cell.
//
// Points whose rounded index lands outside [0, res) in either axis sit
// exactly on or beyond the padded edge and are silently dropped. That
// matches the rounding contract: values inside the box round to at most
// res-1, so only true edge cases are affected.
func Accumulate(points []Point, bounds GeoBounds, res int) *Grid {
	g := NewGrid(res)

	sx := float64(res-1) / (bounds.Width() + spanEpsilon)
	sy := float64(res-1) / (bounds.Height() + spanEpsilon)

	for _, p := range points {
		xi := int(math.Round((p.Lon - bounds.West) * sx))
		yi := int(math.Round((p.Lat - bounds.South) * sy))
		if xi < 0 || xi >= res || yi < 0 || yi >= res {
			continue
		}
		g.Cells[yi*res+xi]++
	}
	return g
}
