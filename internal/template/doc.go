// Package template builds and evaluates distance-matching templates for
// music symbols.
//
// # Templates
//
// A Template is a fixed-size box holding key points. Foreground key points
// expect a distance of 0 in the image distance table; hole key points, sampled
// inside the closed background regions of hollow note heads, expect the
// distance the rendered glyph exhibits there. Evaluating a template at a
// location yields the mean squared difference between observed and expected
// distances, so lower is better and 0 is a perfect match.
//
// # Anchors
//
// Templates are placed either by their top-left corner (NoAnchor) or by a
// named anchor such as Center or LeftStem. Anchor offsets are computed once,
// from ratios of the template size, and never change afterwards. Using an
// anchor the template does not define returns ErrUndefinedAnchor.
//
// # Construction
//
// Build asks a Renderer for a Glyph, binarizes it, marks holes with a flood
// fill, runs a local chamfer transform and extracts key points. The
// SyntheticRenderer draws note heads with golang.org/x/image/vector; any
// other Renderer may be plugged in as long as all variants of a shape share
// one image size.
//
// # Caching
//
// A Factory caches one ShapeDescriptor per shape and interline. Descriptors
// and templates are immutable once built and safe to share.
package template
