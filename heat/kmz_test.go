package heat

import (
	"archive/zip"
	"bytes"
	"testing"
)

func tinyPNG(t *testing.T, res int) []byte {
	t.Helper()
	img, err := EncodePNG(res, make([]byte, res*res*4))
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	return img
}

func TestWriteArchive_EntriesAndOrder(t *testing.T) {
	bounds := GeoBounds{North: 1, South: 0, East: 1, West: 0}
	layers := []RasterLayer{
		// Deliberately out of label order; the archive must sort.
		{Label: "B", Image: tinyPNG(t, 2), Bounds: bounds},
		{Label: "A", Image: tinyPNG(t, 2), Bounds: bounds},
	}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, "test", layers, nil); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("archive is not a readable zip: %v", err)
	}

	if len(zr.File) != 3 {
		t.Fatalf("entry count = %d, want 3 (manifest + 2 rasters)", len(zr.File))
	}
	if zr.File[0].Name != ManifestName {
		t.Errorf("first entry = %q, want %q", zr.File[0].Name, ManifestName)
	}
	if zr.File[1].Name != "A.png" || zr.File[2].Name != "B.png" {
		t.Errorf("raster entries = %q, %q, want label order A.png, B.png", zr.File[1].Name, zr.File[2].Name)
	}
}

func TestWriteArchive_WithLegend(t *testing.T) {
	layers := []RasterLayer{{Label: "A", Image: tinyPNG(t, 2)}}
	legend := tinyPNG(t, 4)

	var buf bytes.Buffer
	if err := WriteArchive(&buf, "test", layers, legend); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names[LegendName] {
		t.Errorf("archive missing %s, entries: %v", LegendName, names)
	}
}

func TestWriteArchive_CollidingLabels(t *testing.T) {
	layers := []RasterLayer{
		{Label: "a b", Image: tinyPNG(t, 2)},
		{Label: "a  b", Image: tinyPNG(t, 2)}, // sanitizes to the same name
	}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, "test", layers, nil); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}

	seen := make(map[string]int)
	for _, f := range zr.File {
		seen[f.Name]++
	}
	for name, n := range seen {
		if n > 1 {
			t.Errorf("duplicate archive entry %q", name)
		}
	}
	if len(zr.File) != 3 {
		t.Errorf("entry count = %d, want 3", len(zr.File))
	}
}

func TestWriteArchive_NoLayers(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, "test", nil, nil); err == nil {
		t.Fatal("expected error for empty layer list")
	}
}
