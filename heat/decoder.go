package heat

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DecodeResult reports what a decode pass accepted and dropped. Skipped
// rows are not an error: a partially dirty file still yields a batch, and
// the caller logs the count.
type DecodeResult struct {
	Points  []Point
	Skipped int
}

// column indices for a decoded table; -1 means not found.
type columnLayout struct {
	lat, lon, cat int
}

var defaultLayout = columnLayout{lat: 0, lon: 1, cat: 2}

// DecodePoints reads delimited text rows of {latitude, longitude,
// category} and returns validated Points. A header row is detected by a
// non-numeric latitude field and used to map columns by name (lat/latitude,
// lon/lng/longitude, category/label); headerless input uses positional
// columns lat,lon,category.
//
// Validation: latitude in [-90, 90], longitude in [-180, 180], category
// non-empty after trimming. Rows failing any check are counted in Skipped.
func DecodePoints(r io.Reader) (DecodeResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var res DecodeResult
	layout := defaultLayout
	first := true

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return DecodeResult{}, fmt.Errorf("reading input rows: %w", err)
		}

		if first {
			first = false
			if hl, ok := headerLayout(record); ok {
				layout = hl
				continue
			}
		}

		p, ok := decodeRow(record, layout)
		if !ok {
			res.Skipped++
			continue
		}
		res.Points = append(res.Points, p)
	}

	return res, nil
}

// DecodeFile decodes one delimited text file.
func DecodeFile(path string) (DecodeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	res, err := DecodePoints(f)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return res, nil
}

// headerLayout maps named columns when the first row looks like a header
// (its latitude candidate does not parse as a number).
func headerLayout(record []string) (columnLayout, bool) {
	if len(record) == 0 {
		return columnLayout{}, false
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64); err == nil {
		return columnLayout{}, false
	}

	layout := columnLayout{lat: -1, lon: -1, cat: -1}
	for i, field := range record {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "lat", "latitude":
			layout.lat = i
		case "lon", "lng", "long", "longitude":
			layout.lon = i
		case "category", "label", "type":
			layout.cat = i
		}
	}

	if layout.lat < 0 || layout.lon < 0 || layout.cat < 0 {
		// Header row without the expected names; fall back to positions
		// but still skip the header itself.
		return defaultLayout, true
	}
	return layout, true
}

func decodeRow(record []string, layout columnLayout) (Point, bool) {
	max := layout.lat
	if layout.lon > max {
		max = layout.lon
	}
	if layout.cat > max {
		max = layout.cat
	}
	if len(record) <= max {
		return Point{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(record[layout.lat]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(record[layout.lon]), 64)
	if err != nil || lon < -180 || lon > 180 {
		return Point{}, false
	}
	category := strings.TrimSpace(record[layout.cat])
	if category == "" {
		return Point{}, false
	}

	return Point{Lat: lat, Lon: lon, Category: category}, true
}
