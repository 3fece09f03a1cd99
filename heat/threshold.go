package heat

import "sort"

// saturationQuantile picks the density treated as "full saturation". Using
// the 99.5th percentile of nonzero cells instead of the true maximum keeps
// a handful of extreme hotspot cells from washing out the whole gradient.
const saturationQuantile = 0.995

// Threshold holds the normalization range for pixel encoding: cells below
// Cutoff are background, cells at or above MaxDensity render at peak.
// Invariant: Cutoff <= MaxDensity.
type Threshold struct {
	Cutoff     float64
	MaxDensity float64
}

// ComputeThreshold scans a smoothed grid and derives the saturation
// reference and background cutoff. A grid with no positive cells yields
// the zero Threshold, which the encoder treats as all-background.
func ComputeThreshold(g *Grid, ratio float64) Threshold {
	positive := make([]float64, 0, len(g.Cells)/4)
	for _, v := range g.Cells {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) == 0 {
		return Threshold{}
	}

	sort.Float64s(positive)
	max := positive[int(float64(len(positive)-1)*saturationQuantile)]

	return Threshold{Cutoff: max * ratio, MaxDensity: max}
}
