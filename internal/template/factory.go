package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// CacheKey identifies a descriptor in a Factory.
type CacheKey struct {
	Shape     Shape
	Interline int
}

type cacheEntry struct {
	once sync.Once
	desc *ShapeDescriptor
	err  error
}

// Factory builds shape descriptors on demand and caches them by shape and
// interline. Concurrent requests for the same key build it once.
type Factory struct {
	renderer Renderer
	opts     BuildOptions
	logger   zerolog.Logger

	mu      sync.Mutex
	entries map[CacheKey]*cacheEntry
}

// NewFactory creates a factory drawing glyphs with r.
func NewFactory(r Renderer, opts BuildOptions, logger zerolog.Logger) (*Factory, error) {
	if r == nil {
		return nil, fmt.Errorf("template factory needs a renderer")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Factory{
		renderer: r,
		opts:     opts,
		logger:   logger.With().Str("component", "templates").Logger(),
		entries:  make(map[CacheKey]*cacheEntry),
	}, nil
}

// Descriptor returns the cached descriptor for shape at interline, building
// it if needed. Failed builds are not cached.
func (f *Factory) Descriptor(shape Shape, interline int) (*ShapeDescriptor, error) {
	if interline <= 0 {
		return nil, fmt.Errorf("interline must be positive, got %d", interline)
	}
	key := CacheKey{Shape: shape, Interline: interline}

	f.mu.Lock()
	e, ok := f.entries[key]
	if !ok {
		e = &cacheEntry{}
		f.entries[key] = e
	}
	f.mu.Unlock()

	e.once.Do(func() {
		start := time.Now()
		e.desc, e.err = NewShapeDescriptor(f.renderer, shape, interline, f.opts)
		if e.err != nil {
			f.logger.Warn().Err(e.err).Str("shape", shape.String()).Int("interline", interline).Msg("template build failed")
			return
		}
		f.logger.Debug().
			Str("shape", shape.String()).
			Int("interline", interline).
			Int("width", e.desc.Width()).
			Int("height", e.desc.Height()).
			Dur("elapsed", time.Since(start)).
			Msg("templates built")
		f.traceDistances(e.desc)
		if f.opts.KeepDir != "" {
			f.keep(e.desc)
		}
	})

	if e.err != nil {
		f.mu.Lock()
		if f.entries[key] == e {
			delete(f.entries, key)
		}
		f.mu.Unlock()
		return nil, e.err
	}
	return e.desc, nil
}

// Len reports the number of cached descriptors.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Evict drops one cached descriptor.
func (f *Factory) Evict(key CacheKey) {
	f.mu.Lock()
	delete(f.entries, key)
	f.mu.Unlock()
}

// Clear drops all cached descriptors.
func (f *Factory) Clear() {
	f.mu.Lock()
	f.entries = make(map[CacheKey]*cacheEntry)
	f.mu.Unlock()
}

// traceDistances logs the local distance table of every variant.
func (f *Factory) traceDistances(d *ShapeDescriptor) {
	for _, t := range d.variants {
		e := f.logger.Trace()
		if !e.Enabled() || t.distances == nil {
			continue
		}
		e.Str("shape", t.shape.String()).
			Int("interline", t.interline).
			Str("key", t.key.String()).
			Msg(table.Dump(t.distances, "template distances"))
	}
}

// keep writes decorated images of every variant to the keep directory.
// Failures are logged and otherwise ignored.
func (f *Factory) keep(d *ShapeDescriptor) {
	if err := os.MkdirAll(f.opts.KeepDir, 0o755); err != nil {
		f.logger.Warn().Err(err).Str("dir", f.opts.KeepDir).Msg("cannot create template directory")
		return
	}
	for _, t := range d.variants {
		name := fmt.Sprintf("%s-%d-%s-%s.png", t.shape, t.interline, t.key.Lines, t.key.Stem)
		path := filepath.Join(f.opts.KeepDir, name)
		if err := imaging.Save(t.DecoratedImage(8), path); err != nil {
			f.logger.Warn().Err(err).Str("path", path).Msg("cannot save template image")
			continue
		}
		f.logger.Debug().Str("path", path).Msg("template image saved")
	}
}
