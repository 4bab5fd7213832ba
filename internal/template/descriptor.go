package template

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// ErrNoVariant is returned when a key filter rejects every variant of a
// descriptor.
var ErrNoVariant = errors.New("no template variant matches filter")

// ShapeDescriptor groups the templates of all variants of one shape at one
// interline. All variants share the same box size and anchors.
type ShapeDescriptor struct {
	shape     Shape
	interline int
	variants  []*Template
}

// NewShapeDescriptor builds every variant listed by Keys(shape).
func NewShapeDescriptor(r Renderer, shape Shape, interline int, opts BuildOptions) (*ShapeDescriptor, error) {
	d := &ShapeDescriptor{shape: shape, interline: interline}

	for _, key := range Keys(shape) {
		t, err := Build(r, shape, interline, key, opts)
		if err != nil {
			return nil, err
		}
		if len(d.variants) > 0 {
			first := d.variants[0]
			if t.width != first.width || t.height != first.height {
				return nil, fmt.Errorf("%v variant %v is %dx%d, expected %dx%d",
					shape, key, t.width, t.height, first.width, first.height)
			}
		}
		d.variants = append(d.variants, t)
	}

	return d, nil
}

// Shape returns the described shape.
func (d *ShapeDescriptor) Shape() Shape { return d.shape }

// Interline returns the interline the templates were built for.
func (d *ShapeDescriptor) Interline() int { return d.interline }

// Width is the common template width.
func (d *ShapeDescriptor) Width() int { return d.variants[0].width }

// Height is the common template height.
func (d *ShapeDescriptor) Height() int { return d.variants[0].height }

// Variants returns the templates in Keys order.
func (d *ShapeDescriptor) Variants() []*Template { return d.variants }

// Variant returns the template for key, or nil.
func (d *ShapeDescriptor) Variant(key Key) *Template {
	for _, t := range d.variants {
		if t.key == key {
			return t
		}
	}
	return nil
}

// Select returns the variants accepted by filter.
func (d *ShapeDescriptor) Select(filter KeyFilter) []*Template {
	if filter == nil {
		return d.variants
	}
	var out []*Template
	for _, t := range d.variants {
		if filter(t.key) {
			out = append(out, t)
		}
	}
	return out
}

// Evaluate scores every variant accepted by filter and returns the best
// score with the key of the variant that achieved it.
func (d *ShapeDescriptor) Evaluate(x, y int, anchor Anchor, dt *table.DistanceTable, filter KeyFilter) (float64, Key, error) {
	variants := d.Select(filter)
	if len(variants) == 0 {
		return 0, Key{}, fmt.Errorf("%w: %v", ErrNoVariant, d.shape)
	}

	best, bestKey := math.Inf(1), variants[0].key
	for _, t := range variants {
		score, err := t.Evaluate(x, y, anchor, dt)
		if err != nil {
			return 0, Key{}, err
		}
		if score < best {
			best, bestKey = score, t.key
		}
	}
	return best, bestKey, nil
}

func (d *ShapeDescriptor) String() string {
	return fmt.Sprintf("%v@%d (%d variants)", d.shape, d.interline, len(d.variants))
}
