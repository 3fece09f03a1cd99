package heat

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var previewBackground = color.RGBA{240, 240, 240, 255}

// RenderPreview composites every layer's raster over a light background
// and stamps a labeled legend in the top-left corner, for quick inspection
// without a map viewer. All layers of one batch share the same bounds and
// resolution, so they are drawn 1:1 on top of each other.
func RenderPreview(layers []RasterLayer, colorFor func(string) color.NRGBA) (*image.RGBA, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("preview: %w", ErrNoPoints)
	}

	first, err := png.Decode(bytes.NewReader(layers[0].Image))
	if err != nil {
		return nil, fmt.Errorf("decoding layer %q: %w", layers[0].Label, err)
	}
	bounds := first.Bounds()

	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, image.NewUniform(previewBackground), image.Point{}, draw.Src)

	draw.Draw(img, bounds, first, bounds.Min, draw.Over)
	for _, layer := range layers[1:] {
		overlay, err := png.Decode(bytes.NewReader(layer.Image))
		if err != nil {
			return nil, fmt.Errorf("decoding layer %q: %w", layer.Label, err)
		}
		draw.Draw(img, bounds, overlay, overlay.Bounds().Min, draw.Over)
	}

	drawPreviewLegend(img, layers, colorFor)

	return img, nil
}

// drawPreviewLegend adds a color swatch and label per layer.
func drawPreviewLegend(img *image.RGBA, layers []RasterLayer, colorFor func(string) color.NRGBA) {
	y := 15
	for _, layer := range layers {
		c := colorFor(layer.Label)
		swatch := color.RGBA{c.R, c.G, c.B, 255}

		for dy := 0; dy < 12; dy++ {
			for dx := 0; dx < 12; dx++ {
				img.Set(10+dx, y+dy-6, swatch)
			}
		}

		drawText(img, 28, y+4, layer.Label, color.RGBA{0, 0, 0, 255})

		y += 18
	}
}

// drawText renders text onto an image at the specified position.
func drawText(dst draw.Image, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
