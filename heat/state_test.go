package heat

import "testing"

func TestCollector_AddAndPoints(t *testing.T) {
	c := NewCollector()

	c.Add([]Point{{Lat: 1, Lon: 2, Category: "a"}})
	c.Add([]Point{{Lat: 3, Lon: 4, Category: "b"}})
	c.Add(nil)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	got := c.Points()
	if len(got) != 2 {
		t.Fatalf("Points returned %d entries, want 2", len(got))
	}

	// The returned slice must be a copy.
	got[0].Category = "mutated"
	if c.Points()[0].Category != "a" {
		t.Error("mutating the returned slice leaked into the collector")
	}
}

func TestCollector_ArchiveLifecycle(t *testing.T) {
	c := NewCollector()

	if _, ok := c.Archive(); ok {
		t.Fatal("fresh collector should report no archive")
	}
	if !c.RenderedAt().IsZero() {
		t.Error("fresh collector should have a zero render time")
	}

	layers := []RasterLayer{{Label: "a"}}
	c.SetArchive([]byte("kmz-bytes"), layers)

	archive, ok := c.Archive()
	if !ok {
		t.Fatal("archive should be available after SetArchive")
	}
	if string(archive) != "kmz-bytes" {
		t.Errorf("archive = %q, want %q", archive, "kmz-bytes")
	}
	if len(c.Layers()) != 1 || c.Layers()[0].Label != "a" {
		t.Errorf("layers = %+v, want the stored layer", c.Layers())
	}
	if c.RenderedAt().IsZero() {
		t.Error("render time should be set after SetArchive")
	}
}
