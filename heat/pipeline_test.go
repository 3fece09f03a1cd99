package heat

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(res int) ProcessingConfig {
	return ProcessingConfig{GridResolution: res, BlurRadius: 1, ThresholdRatio: 0.3}
}

func redFor(string) string { return "#FF0000" }

// Four points clustered at one coordinate: the hottest pixel must sit at
// the cell nearest that coordinate after the vertical flip, and the layer
// must contain visible pixels.
func TestRenderLayer_ClusterRoundTrip(t *testing.T) {
	pt := Point{Lat: 40.0, Lon: -74.0, Category: "A"}
	points := []Point{pt, pt, pt, pt}

	bounds, err := ComputeBounds(points)
	require.NoError(t, err)

	layer, err := RenderLayer(points, bounds, testConfig(10), "A", "#FF0000")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(layer.Image))
	require.NoError(t, err)
	require.Equal(t, 10, img.Bounds().Dx())
	require.Equal(t, 10, img.Bounds().Dy())

	// Degenerate bounds put the cluster in grid cell (0,0), which flips to
	// image row 9.
	var peakA uint32
	visible := 0
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a > 0 {
				visible++
			}
			if a > peakA {
				peakA = a
			}
		}
	}

	assert.Greater(t, visible, 0, "at least one pixel must be non-transparent")

	_, _, _, clusterA := img.At(0, 9).RGBA()
	assert.Equal(t, peakA, clusterA, "the cell nearest the cluster must carry peak density")
	assert.NotZero(t, clusterA)
}

func TestRenderBatch_EndToEnd(t *testing.T) {
	var points []Point
	for i := 0; i < 100; i++ {
		points = append(points,
			Point{Lat: 10 + float64(i)/100, Lon: 20 + float64(i)/100, Category: "A"},
			Point{Lat: 10 + float64(i)/125, Lon: 20 + float64(i)/125, Category: "B"},
		)
	}

	bounds, err := ComputeBounds(points)
	require.NoError(t, err)

	layers, err := RenderBatch(context.Background(), points, testConfig(32), redFor)
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, "A", layers[0].Label)
	assert.Equal(t, "B", layers[1].Label)

	archive, err := BuildArchive("test", layers, nil)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3, "manifest + one raster per category")

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	manifest, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	var doc parsedKML
	require.NoError(t, xml.Unmarshal(manifest, &doc))
	require.Len(t, doc.Folder.Overlays, 2)

	for _, overlay := range doc.Folder.Overlays {
		assert.InDelta(t, bounds.North, overlay.LatLonBox.North, 1e-9)
		assert.InDelta(t, bounds.South, overlay.LatLonBox.South, 1e-9)
		assert.InDelta(t, bounds.East, overlay.LatLonBox.East, 1e-9)
		assert.InDelta(t, bounds.West, overlay.LatLonBox.West, 1e-9)
	}
}

func TestRenderBatch_EmptyInput(t *testing.T) {
	_, err := RenderBatch(context.Background(), nil, testConfig(10), redFor)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestRenderBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points := []Point{
		{Lat: 1, Lon: 1, Category: "A"},
		{Lat: 2, Lon: 2, Category: "B"},
	}

	layers, err := RenderBatch(ctx, points, testConfig(10), redFor)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, layers, "a cancelled batch must not expose partial results")
}

func TestRenderPreview(t *testing.T) {
	points := []Point{
		{Lat: 1, Lon: 1, Category: "A"},
		{Lat: 1.5, Lon: 1.5, Category: "A"},
	}

	layers, err := RenderBatch(context.Background(), points, testConfig(32), redFor)
	require.NoError(t, err)

	img, err := RenderPreview(layers, func(string) color.NRGBA {
		return color.NRGBA{255, 0, 0, 255}
	})
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}
