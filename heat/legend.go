package heat

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// Legend layout in pixels (rasterized at 1 px per mm).
const (
	legendMargin = 10
	legendLabelW = 110
	legendBarW   = 160
	legendBarH   = 14
	legendRowH   = 24
	legendSteps  = 32
)

// nrgbaToRGBA premultiplies alpha, which the canvas paint model expects.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// RenderLegend draws one horizontal color ramp per category, from the
// low-density color at 30% opacity to the white-mixed peak, and returns
// PNG bytes for the archive's ScreenOverlay. Labels are stamped after the
// rasterizer pass; canvas text would need a loaded font face.
func RenderLegend(labels []string, colorFor func(string) color.NRGBA) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("legend: %w", ErrNoPoints)
	}

	width := float64(2*legendMargin + legendLabelW + legendBarW)
	height := float64(2*legendMargin + legendRowH*len(labels))

	rast := rasterizer.New(width, height, canvas.DPMM(1.0), canvas.DefaultColorSpace)

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	rast.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	for i, label := range labels {
		base := colorFor(label)

		// Canvas y points up; row i sits i rows below the top edge.
		rowTop := height - float64(legendMargin+i*legendRowH)
		barBottom := rowTop - float64(legendBarH) - (legendRowH-legendBarH)/2
		barLeft := float64(legendMargin + legendLabelW)

		stepW := float64(legendBarW) / float64(legendSteps)
		for s := 0; s < legendSteps; s++ {
			norm := float64(s) / float64(legendSteps-1)

			style := canvas.DefaultStyle
			style.Fill = canvas.Paint{Color: nrgbaToRGBA(RampColor(base, norm))}

			slice := canvas.Rectangle(stepW+0.5, float64(legendBarH))
			slice = slice.Translate(barLeft+float64(s)*stepW, barBottom)
			rast.RenderPath(slice, style, canvas.Identity)
		}
	}

	// The rasterizer satisfies draw.Image, so labels can be stamped
	// directly in image coordinates (y down).
	for i, label := range labels {
		y := legendMargin + i*legendRowH + legendRowH/2 + 4
		drawText(rast, legendMargin, y, label, color.RGBA{0, 0, 0, 255})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rast); err != nil {
		return nil, fmt.Errorf("encoding legend PNG: %w", err)
	}
	return buf.Bytes(), nil
}
