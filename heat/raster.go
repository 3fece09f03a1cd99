package heat

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sort"
)

// EncodePNG compresses a raw RGBA buffer of size res*res*4 into PNG bytes.
// The buffer is wrapped without copying; callers hand off ownership.
func EncodePNG(res int, pix []byte) ([]byte, error) {
	img := &image.NRGBA{
		Pix:    pix,
		Stride: res * 4,
		Rect:   image.Rect(0, 0, res, res),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderLayer runs the full pipeline for one category over the shared
// bounds: histogram, separable blur, adaptive threshold, pixel encoding,
// PNG compression.
func RenderLayer(points []Point, bounds GeoBounds, cfg ProcessingConfig, label, hexColor string) (RasterLayer, error) {
	grid := Accumulate(points, bounds, cfg.GridResolution)
	smoothed := Smooth(grid, GaussianKernel(cfg.BlurRadius))
	thr := ComputeThreshold(smoothed, cfg.ThresholdRatio)
	pix := EncodePixels(smoothed, thr, ParseHexColor(hexColor))

	img, err := EncodePNG(cfg.GridResolution, pix)
	if err != nil {
		return RasterLayer{}, fmt.Errorf("layer %q: %w", label, err)
	}

	return RasterLayer{Label: label, Image: img, Bounds: bounds}, nil
}

// GroupByCategory splits a batch into per-category slices, preserving
// input order within each category.
func GroupByCategory(points []Point) map[string][]Point {
	groups := make(map[string][]Point)
	for _, p := range points {
		groups[p.Category] = append(groups[p.Category], p)
	}
	return groups
}

// RenderBatch computes the shared bounding box over the whole batch and
// renders one layer per category, in label order.
//
// Categories are independent, so ctx is checked between them: a cancelled
// batch returns the context error and no layers, never a partial raster
// presented as complete.
func RenderBatch(ctx context.Context, points []Point, cfg ProcessingConfig, colorFor func(string) string) ([]RasterLayer, error) {
	bounds, err := ComputeBounds(points)
	if err != nil {
		return nil, err
	}

	groups := GroupByCategory(points)
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	layers := make([]RasterLayer, 0, len(groups))
	for _, label := range labels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layer, err := RenderLayer(groups[label], bounds, cfg, label, colorFor(label))
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}
