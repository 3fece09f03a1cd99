package heat

import (
	"fmt"
	"image/color"
	"math"
)

const (
	// alphaFloor is the opacity of a cell exactly at the cutoff: 30% of
	// full. Anything past the cutoff stays visible; only peak density
	// reaches 255.
	alphaFloor = 77

	// whiteMix caps the lerp toward white at peak density, so hotspots
	// glow near-white without losing the category hue entirely.
	whiteMix = 0.6
)

// ParseHexColor parses a 6-digit hex color code, with or without a leading
// '#'. Malformed codes fall back to black so a bad config entry degrades a
// layer's styling instead of aborting the batch; the caller logs the
// fallback.
func ParseHexColor(hex string) color.NRGBA {
	black := color.NRGBA{0, 0, 0, 255}

	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return black
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return black
	}
	return color.NRGBA{r, g, b, 255}
}

// RampColor returns the overlay color for a normalized density in [0, 1]:
// the base color lerped toward white by norm*whiteMix, with alpha rising
// linearly from alphaFloor to 255.
func RampColor(base color.NRGBA, norm float64) color.NRGBA {
	glow := norm * whiteMix
	return color.NRGBA{
		R: lerpByte(base.R, glow),
		G: lerpByte(base.G, glow),
		B: lerpByte(base.B, glow),
		A: uint8(math.Round(alphaFloor + (255-alphaFloor)*norm)),
	}
}

func lerpByte(base uint8, t float64) uint8 {
	return uint8(float64(base) + (255-float64(base))*t)
}

// EncodePixels maps a smoothed grid to a raw RGBA buffer in image row
// order: grid row 0 is the geographic south edge, so rows are vertically
// flipped during emission to put north at pixel row 0.
//
// Cells below the cutoff (and every cell of an all-zero grid) stay at the
// zero value of the buffer: fully transparent. When MaxDensity equals
// Cutoff the normalization range is zero-wide and norm is forced to 0,
// never a division by zero.
func EncodePixels(g *Grid, thr Threshold, base color.NRGBA) []byte {
	res := g.Res
	buf := make([]byte, res*res*4)
	span := thr.MaxDensity - thr.Cutoff

	for row := 0; row < res; row++ {
		gy := res - 1 - row
		for x := 0; x < res; x++ {
			v := g.At(x, gy)
			if thr.MaxDensity == 0 || v < thr.Cutoff {
				continue
			}

			norm := 0.0
			if span > 0 {
				norm = (v - thr.Cutoff) / span
				if norm > 1 {
					norm = 1
				}
			}

			c := RampColor(base, norm)
			o := (row*res + x) * 4
			buf[o] = c.R
			buf[o+1] = c.G
			buf[o+2] = c.B
			buf[o+3] = c.A
		}
	}
	return buf
}
