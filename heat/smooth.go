package heat

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Kernel is an odd-length, normalized 1D Gaussian. The same kernel serves
// both separable passes of a blur and is shared across categories with the
// same radius.
type Kernel []float64

var (
	kernelMu    sync.Mutex
	kernelCache = make(map[float64]Kernel)
)

// GaussianKernel builds the kernel for the given sigma (in grid cells).
// Half-width is ceil(3*sigma), so the full length 2*ceil(3*sigma)+1 is
// always odd. Weights are exp(-k²/(2σ²)) normalized to sum to 1.
func GaussianKernel(sigma float64) Kernel {
	kernelMu.Lock()
	defer kernelMu.Unlock()

	if k, ok := kernelCache[sigma]; ok {
		return k
	}

	half := int(math.Ceil(3 * sigma))
	k := make(Kernel, 2*half+1)
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)

	kernelCache[sigma] = k
	return k
}

// Smooth applies the kernel as two separable 1D passes, horizontal then
// vertical, returning a new grid. Each pass reads from the previous pass's
// complete output, never in place.
//
// Border samples clamp to the valid range (edge replication) instead of
// zero-padding; zero-padding would darken density near the map edge even
// when the data continues right up to it.
func Smooth(g *Grid, k Kernel) *Grid {
	res := g.Res
	half := len(k) / 2

	tmp := NewGrid(res)
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			var acc float64
			for i, w := range k {
				sx := x + i - half
				if sx < 0 {
					sx = 0
				} else if sx >= res {
					sx = res - 1
				}
				acc += w * g.At(sx, y)
			}
			tmp.set(x, y, acc)
		}
	}

	out := NewGrid(res)
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			var acc float64
			for i, w := range k {
				sy := y + i - half
				if sy < 0 {
					sy = 0
				} else if sy >= res {
					sy = res - 1
				}
				acc += w * tmp.At(x, sy)
			}
			out.set(x, y, acc)
		}
	}

	return out
}
