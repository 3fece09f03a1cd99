package heat

import (
	"sync"
	"time"
)

// Collector accumulates validated samples and the most recent finished
// archive for service mode. Renders publish their result atomically via
// SetArchive; readers never observe a half-built archive.
type Collector struct {
	mu         sync.RWMutex
	points     []Point
	archive    []byte
	layers     []RasterLayer
	renderedAt time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a batch of points.
func (c *Collector) Add(points []Point) {
	if len(points) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, points...)
}

// Points returns a copy of the accumulated batch.
func (c *Collector) Points() []Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Len returns the number of accumulated points.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.points)
}

// SetArchive swaps in a completed archive and its layers.
func (c *Collector) SetArchive(archive []byte, layers []RasterLayer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.archive = archive
	c.layers = layers
	c.renderedAt = time.Now()
}

// Archive returns the latest archive bytes, or false when no render has
// completed yet.
func (c *Collector) Archive() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.archive == nil {
		return nil, false
	}
	return c.archive, true
}

// Layers returns the layers of the latest completed render.
func (c *Collector) Layers() []RasterLayer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]RasterLayer, len(c.layers))
	copy(out, c.layers)
	return out
}

// RenderedAt returns when the latest archive was completed; zero when no
// render has completed.
func (c *Collector) RenderedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.renderedAt
}
