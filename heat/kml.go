package heat

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// RasterExt is the extension given to every raster entry in the archive.
const RasterExt = ".png"

// LegendName is the archive entry for the ScreenOverlay legend image.
const LegendName = "legend.png"

const kmlNamespace = "http://www.opengis.net/kml/2.2"

// KML manifest structure. One GroundOverlay per raster ties the image to
// its geographic box; map viewers place it from the LatLonBox alone.
type kmlRoot struct {
	XMLName xml.Name  `xml:"kml"`
	Xmlns   string    `xml:"xmlns,attr"`
	Folder  kmlFolder `xml:"Folder"`
}

type kmlFolder struct {
	Name     string          `xml:"name"`
	Overlays []groundOverlay `xml:"GroundOverlay"`
	Legend   *screenOverlay  `xml:"ScreenOverlay,omitempty"`
}

type groundOverlay struct {
	Name      string    `xml:"name"`
	Icon      kmlIcon   `xml:"Icon"`
	LatLonBox latLonBox `xml:"LatLonBox"`
}

type kmlIcon struct {
	Href string `xml:"href"`
}

type latLonBox struct {
	North float64 `xml:"north"`
	South float64 `xml:"south"`
	East  float64 `xml:"east"`
	West  float64 `xml:"west"`
}

type screenOverlay struct {
	Name      string   `xml:"name"`
	Icon      kmlIcon  `xml:"Icon"`
	OverlayXY screenXY `xml:"overlayXY"`
	ScreenXY  screenXY `xml:"screenXY"`
}

type screenXY struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	XUnits string  `xml:"xunits,attr"`
	YUnits string  `xml:"yunits,attr"`
}

// SanitizeLabel turns a category label into a filesystem-safe archive
// entry name: whitespace runs collapse to a single underscore and path
// separators are replaced. The result never contains the raster extension;
// callers append it.
func SanitizeLabel(label string) string {
	fields := strings.Fields(label)
	name := strings.Join(fields, "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	if name == "" {
		name = "layer"
	}
	return name
}

// BuildManifest produces the doc.kml document: one GroundOverlay per layer
// referencing its sanitized raster filename, plus an optional ScreenOverlay
// for the legend pinned to the viewer's top-left corner. The caller is
// responsible for layer ordering; the manifest preserves it.
func BuildManifest(title string, layers []RasterLayer, withLegend bool) ([]byte, error) {
	folder := kmlFolder{Name: title}
	for _, layer := range layers {
		folder.Overlays = append(folder.Overlays, groundOverlay{
			Name: layer.Label,
			Icon: kmlIcon{Href: SanitizeLabel(layer.Label) + RasterExt},
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

func marshalManifest(folder kmlFolder) ([]byte, error) {
	body, err := xml.MarshalIndent(kmlRoot{Xmlns: kmlNamespace, Folder: folder}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling KML manifest: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
