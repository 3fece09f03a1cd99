package heat

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
)

// ManifestName is the manifest entry name KMZ readers resolve first.
const ManifestName = "doc.kml"

// WriteArchive packages the manifest, the per-category rasters, and an
// optional legend image into one KMZ (zip) stream on w.
//
// Layers may arrive in any order; they are sorted by label before emission
// so repeated runs over the same data produce identical archives. The
// manifest is always the first written entry. Colliding sanitized
// filenames get a numeric suffix so no raster silently overwrites another.
func WriteArchive(w io.Writer, title string, layers []RasterLayer, legend []byte) error {
	if len(layers) == 0 {
		return fmt.Errorf("archive: %w", ErrNoPoints)
	}

	sorted := make([]RasterLayer, len(layers))
	copy(sorted, layers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	names := entryNames(sorted)

	manifest, err := buildManifestWithNames(title, sorted, names, legend != nil)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	if err := writeEntry(zw, ManifestName, manifest); err != nil {
		return err
	}
	if legend != nil {
		if err := writeEntry(zw, LegendName, legend); err != nil {
			return err
		}
	}
	for i, layer := range sorted {
		if err := writeEntry(zw, names[i], layer.Image); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

// BuildArchive is WriteArchive into a byte slice.
func BuildArchive(title string, layers []RasterLayer, legend []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, title, layers, legend); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// entryNames sanitizes every layer label and disambiguates collisions with
// a numeric suffix, preserving layer order.
func entryNames(layers []RasterLayer) []string {
	seen := make(map[string]int, len(layers))
	names := make([]string, len(layers))
	for i, layer := range layers {
		base := SanitizeLabel(layer.Label)
		if n := seen[base]; n > 0 {
			names[i] = fmt.Sprintf("%s_%d%s", base, n+1, RasterExt)
		} else {
			names[i] = base + RasterExt
		}
		seen[base]++
	}
	return names
}

// buildManifestWithNames builds the manifest with the already-deduplicated
// entry names instead of re-sanitizing labels.
func buildManifestWithNames(title string, layers []RasterLayer, names []string, withLegend bool) ([]byte, error) {
	folder := kmlFolder{Name: title}
	for i, layer := range layers {
		folder.Overlays = append(folder.Overlays, groundOverlay{
			Name: layer.Label,
			Icon: kmlIcon{Href: names[i]},
			LatLonBox: latLonBox{
				North: layer.Bounds.North,
				South: layer.Bounds.South,
				East:  layer.Bounds.East,
				West:  layer.Bounds.West,
			},
		})
	}
	if withLegend {
		folder.Legend = &screenOverlay{
			Name:      "Legend",
			Icon:      kmlIcon{Href: LegendName},
			OverlayXY: screenXY{X: 0, Y: 1, XUnits: "fraction", YUnits: "fraction"},
			ScreenXY:  screenXY{X: 0.01, Y: 0.99, XUnits: "fraction", YUnits: "fraction"},
		}
	}

	return marshalManifest(folder)
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing archive entry %s: %w", name, err)
	}
	return nil
}
