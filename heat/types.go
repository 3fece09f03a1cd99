package heat

import "hash/fnv"

// Point is one validated geolocated sample. Instances are produced by the
// decoding boundary (CSV files or MQTT payloads) and are immutable once
// validated; the core never sees an unvalidated row.
type Point struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"category"`
}

// GeoBounds is a geographic bounding box. Invariant: North >= South and
// East >= West. A zero-extent box is legal and denotes a single coordinate;
// downstream stages must tolerate it without division errors.
type GeoBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Width returns the longitude span in degrees.
func (b GeoBounds) Width() float64 { return b.East - b.West }

// Height returns the latitude span in degrees.
func (b GeoBounds) Height() float64 { return b.North - b.South }

// IsDegenerate reports whether the box has zero area.
func (b GeoBounds) IsDegenerate() bool { return b.Width() == 0 || b.Height() == 0 }

// RasterLayer is one finished per-category overlay: the PNG-encoded raster
// and the geographic extent it maps onto. The layer owns Image exclusively
// until handed to the archive assembler.
type RasterLayer struct {
	Label  string
	Image  []byte
	Bounds GeoBounds
}

// ProcessingConfig controls the density pipeline for one run.
type ProcessingConfig struct {
	GridResolution int     `yaml:"gridResolution" json:"gridResolution"` // raster side length in cells
	BlurRadius     float64 `yaml:"blurRadius" json:"blurRadius"`         // Gaussian sigma in grid cells
	ThresholdRatio float64 `yaml:"thresholdRatio" json:"thresholdRatio"` // background cutoff as a fraction of the saturation density
}

// CategoryStyle assigns a base color to a category label.
type CategoryStyle struct {
	Category string `yaml:"category" json:"category"`
	Color    string `yaml:"color" json:"color"` // 6-digit hex, leading # optional
}

// MQTTConfig holds MQTT connection settings for service mode.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	IngestTopic   string `yaml:"ingestTopic,omitempty" json:"ingestTopic,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config is the full configuration file.
type Config struct {
	MQTT       MQTTConfig       `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
	StorePath  string           `yaml:"storePath,omitempty" json:"storePath,omitempty"`
	Processing ProcessingConfig `yaml:"processing" json:"processing"`
	Categories []CategoryStyle  `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// DefaultPalette provides base colors for categories without an explicit
// style, in the same spirit as a map legend: saturated, mutually distinct.
var DefaultPalette = []string{
	"#D32F2F", // red
	"#1976D2", // blue
	"#388E3C", // green
	"#F57C00", // orange
	"#7B1FA2", // purple
	"#00838F", // teal
	"#C2185B", // pink
	"#5D4037", // brown
}

// ColorFor returns the configured hex color for a category, or a stable
// palette color when the category has no explicit style. The palette pick
// hashes the label so the assignment survives config edits and reorderings.
func (c *Config) ColorFor(category string) string {
	for _, cs := range c.Categories {
		if cs.Category == category {
			return cs.Color
		}
	}
	h := fnv.New32a()
	h.Write([]byte(category))
	return DefaultPalette[int(h.Sum32())%len(DefaultPalette)]
}
