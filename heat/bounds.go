package heat

import (
	"errors"

	"github.com/paulmach/orb"
)

// ErrNoPoints is returned when a batch contains no samples. An empty batch
// is fatal: there is nothing to bound, so no raster work starts.
var ErrNoPoints = errors.New("no points in batch")

// boundsPadding expands each axis of the raw bounding box by 2% of its
// span so clusters at the data's edge are not clipped against the raster
// border.
const boundsPadding = 0.02

// ComputeBounds scans the combined point set of a batch and returns the
// padded geographic bounding box shared by every category's raster.
//
// A batch whose points all share one coordinate yields a zero-area box:
// the spans are zero, so the padding is zero and the box collapses to the
// point. That degenerate box is legal downstream.
func ComputeBounds(points []Point) (GeoBounds, error) {
	if len(points) == 0 {
		return GeoBounds{}, ErrNoPoints
	}

	first := orb.Point{points[0].Lon, points[0].Lat}
	b := orb.Bound{Min: first, Max: first}
	for _, p := range points[1:] {
		b = b.Extend(orb.Point{p.Lon, p.Lat})
	}

	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]

	return GeoBounds{
		West:  b.Min[0] - boundsPadding*dx,
		East:  b.Max[0] + boundsPadding*dx,
		South: b.Min[1] - boundsPadding*dy,
		North: b.Max[1] + boundsPadding*dy,
	}, nil
}
