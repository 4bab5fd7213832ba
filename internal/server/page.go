package server

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/ironsheep/omr-match-mcp/internal/distance"
	"github.com/ironsheep/omr-match-mcp/internal/imaging"
	"github.com/ironsheep/omr-match-mcp/internal/pixel"
	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// Adaptive binarization defaults.
const (
	defaultWindow      = 31
	defaultSensitivity = 0.2
)

// pageArgs are the arguments shared by every tool that analyzes a page.
// Binarization settings are pointers so that an explicit zero is kept.
type pageArgs struct {
	Path        string          `json:"path"`
	Region      *imaging.Region `json:"region,omitempty"`
	NamedRegion string          `json:"named_region"`
	Threshold   *int            `json:"threshold"`
	Adaptive    bool            `json:"adaptive"`
	Window      *int            `json:"window"`
	Sensitivity *float64        `json:"sensitivity"`
}

// binarization is the resolved filter setting of a page.
type binarization struct {
	threshold   int
	adaptive    bool
	window      int
	sensitivity float64
}

// page is a loaded, cropped and binarized image.
type page struct {
	path   string
	region *imaging.Region
	bin    binarization
	img    image.Image
	origin image.Point
	buffer *pixel.Buffer
	filter pixel.Filter
}

// toPage translates a point from region coordinates to page coordinates.
func (p *page) toPage(x, y int) (int, int) {
	return x + p.origin.X, y + p.origin.Y
}

// binarizationOf resolves the binarization arguments of a, taking unset
// values from the configuration.
func (s *Server) binarizationOf(a pageArgs) binarization {
	b := binarization{
		threshold:   s.cfg.Threshold,
		adaptive:    a.Adaptive,
		window:      defaultWindow,
		sensitivity: defaultSensitivity,
	}
	if a.Threshold != nil {
		b.threshold = *a.Threshold
	}
	if a.Window != nil {
		b.window = *a.Window
	}
	if a.Sensitivity != nil {
		b.sensitivity = *a.Sensitivity
	}
	return b
}

// loadPage loads the image named by a, crops it to the requested region and
// binarizes it.
func (s *Server) loadPage(a pageArgs) (*page, error) {
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	bin := s.binarizationOf(a)

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	region := a.Region
	if region == nil && a.NamedRegion != "" {
		if region, err = imaging.NamedRegion(img.Bounds(), a.NamedRegion); err != nil {
			return nil, err
		}
	}
	cropped, err := imaging.CropRegion(img, region)
	if err != nil {
		return nil, err
	}
	p := &page{path: a.Path, region: region, bin: bin, img: cropped}
	if region != nil {
		p.origin = image.Pt(region.X1-img.Bounds().Min.X, region.Y1-img.Bounds().Min.Y)
	}

	if p.buffer, err = pixel.FromImage(cropped); err != nil {
		return nil, err
	}
	if bin.adaptive {
		p.filter, err = pixel.NewAdaptiveFilter(p.buffer, bin.window, bin.sensitivity)
	} else {
		p.filter, err = pixel.NewGlobalFilter(p.buffer, bin.threshold)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// tableKey identifies a distance table computed on a page.
type tableKey struct {
	path   string
	region imaging.Region
	bin    binarization
	kernel string
}

// tableCache keeps distance tables so that several matches on one page run
// the transform once. It holds at most capacity tables and drops the oldest
// one first.
type tableCache struct {
	mu       sync.Mutex
	capacity int
	tables   map[tableKey]*table.DistanceTable
	order    []tableKey
}

func newTableCache(capacity int) *tableCache {
	return &tableCache{
		capacity: max(1, capacity),
		tables:   make(map[tableKey]*table.DistanceTable),
	}
}

func (c *tableCache) get(key tableKey) (*table.DistanceTable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dt, ok := c.tables[key]
	return dt, ok
}

func (c *tableCache) put(key tableKey, dt *table.DistanceTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[key]; !ok {
		c.order = append(c.order, key)
	}
	c.tables[key] = dt
	for len(c.order) > c.capacity {
		delete(c.tables, c.order[0])
		c.order = c.order[1:]
	}
}

// evictPath removes every table computed on the image at path and returns
// how many were dropped.
func (c *tableCache) evictPath(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	for _, key := range c.order {
		if key.path == path {
			delete(c.tables, key)
			continue
		}
		kept = append(kept, key)
	}
	n := len(c.order) - len(kept)
	c.order = kept
	return n
}

func (c *tableCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[tableKey]*table.DistanceTable)
	c.order = nil
}

func (c *tableCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tables)
}

// distanceTable returns the cached distance table of p for kernelName,
// computing it on first use.
func (s *Server) distanceTable(p *page, kernelName string) (*table.DistanceTable, error) {
	if kernelName == "" {
		kernelName = s.cfg.Kernel
	}
	kernelName = strings.ToLower(kernelName)

	key := tableKey{
		path:   p.path,
		bin:    p.bin,
		kernel: kernelName,
	}
	if p.region != nil {
		key.region = *p.region
	}
	if p.bin.adaptive {
		key.bin.threshold = 0
	} else {
		key.bin.window, key.bin.sensitivity = 0, 0
	}

	if dt, ok := s.tables.get(key); ok {
		s.logger.Debug().Str("path", key.path).Str("kernel", kernelName).Msg("distance table cache hit")
		return dt, nil
	}

	kernel, err := distance.KernelByName(kernelName)
	if err != nil {
		return nil, err
	}
	ch, err := distance.NewChamfer(kernel)
	if err != nil {
		return nil, err
	}
	dt, err := ch.ComputeTable(p.filter, table.Int)
	if err != nil {
		return nil, fmt.Errorf("distance transform failed: %w", err)
	}
	s.tables.put(key, dt)

	s.logger.Debug().
		Str("path", key.path).
		Str("kernel", kernelName).
		Int("width", dt.Width()).
		Int("height", dt.Height()).
		Msg("distance table computed")
	return dt, nil
}
