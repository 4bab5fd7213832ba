package template

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/omr-match-mcp/internal/pixel"
	"github.com/ironsheep/omr-match-mcp/internal/table"
)

var (
	// ErrUndefinedAnchor is returned when a template is placed by an anchor it
	// does not define.
	ErrUndefinedAnchor = errors.New("anchor not defined on template")

	// ErrOutOfTable is returned when a placement puts part of the template
	// outside the distance table.
	ErrOutOfTable = errors.New("template placement outside distance table")
)

// KeyPoint is a template pixel whose distance is checked during matching.
//
// DX, DY are relative to the template top-left corner. Expected is the
// distance, in pixels, the image should exhibit there: 0 for a foreground
// point, the distance to the symbol edge for a hole point.
type KeyPoint struct {
	DX       int     `json:"dx"`
	DY       int     `json:"dy"`
	Expected float64 `json:"expected"`
}

// IsHole reports a point sampled inside a hole of the symbol.
func (k KeyPoint) IsHole() bool { return k.Expected > 0 }

// Template is an immutable set of key points with named anchors. It is safe
// for concurrent use once built.
type Template struct {
	shape     Shape
	interline int
	key       Key

	width     int
	height    int
	keyPoints []KeyPoint
	symbol    image.Rectangle
	anchors   [anchorCount]anchorOffset
	distances *table.DistanceTable
}

// NewTemplate creates a template of the given box size. Key points must lie
// inside the box and there must be at least one.
func NewTemplate(width, height int, keyPoints []KeyPoint) (*Template, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("template size must be positive, got %dx%d", width, height)
	}
	if len(keyPoints) == 0 {
		return nil, errors.New("template needs at least one key point")
	}
	for _, kp := range keyPoints {
		if kp.DX < 0 || kp.DX >= width || kp.DY < 0 || kp.DY >= height {
			return nil, fmt.Errorf("key point (%d,%d) outside %dx%d template", kp.DX, kp.DY, width, height)
		}
		if kp.Expected < 0 || math.IsNaN(kp.Expected) || math.IsInf(kp.Expected, 0) {
			return nil, fmt.Errorf("key point (%d,%d) has invalid expected distance %v", kp.DX, kp.DY, kp.Expected)
		}
	}

	pts := make([]KeyPoint, len(keyPoints))
	copy(pts, keyPoints)

	return &Template{
		width:     width,
		height:    height,
		keyPoints: pts,
		symbol:    image.Rect(0, 0, width, height),
	}, nil
}

// Shape returns the shape the template was built for.
func (t *Template) Shape() Shape { return t.shape }

// Interline returns the staff interline the template was sized for.
func (t *Template) Interline() int { return t.interline }

// Key returns the structural variant of the template.
func (t *Template) Key() Key { return t.key }

// Width is the template box width.
func (t *Template) Width() int { return t.width }

// Height is the template box height.
func (t *Template) Height() int { return t.height }

// KeyPoints returns the key points. The slice is shared and must not be
// modified.
func (t *Template) KeyPoints() []KeyPoint { return t.keyPoints }

// Symbol returns the bounds of the symbol within the template box.
func (t *Template) Symbol() image.Rectangle { return t.symbol }

// Distances returns the local distance table the template was built from,
// or nil for a template assembled by NewTemplate.
func (t *Template) Distances() *table.DistanceTable { return t.distances }

// ForegroundCount is the number of foreground key points.
func (t *Template) ForegroundCount() int {
	n := 0
	for _, kp := range t.keyPoints {
		if !kp.IsHole() {
			n++
		}
	}
	return n
}

// HoleCount is the number of hole key points.
func (t *Template) HoleCount() int {
	return len(t.keyPoints) - t.ForegroundCount()
}

// AddAnchor defines anchor at the given ratios of the template width and
// height. The offset is rounded once and never recomputed.
func (t *Template) AddAnchor(anchor Anchor, xRatio, yRatio float64) error {
	if anchor <= NoAnchor || anchor >= anchorCount {
		return fmt.Errorf("cannot define anchor %v", anchor)
	}
	t.anchors[anchor] = anchorOffset{
		dx:      int(math.Round(xRatio * float64(t.width))),
		dy:      int(math.Round(yRatio * float64(t.height))),
		defined: true,
	}
	return nil
}

// HasAnchor reports whether anchor can be used to place the template.
func (t *Template) HasAnchor(anchor Anchor) bool {
	if anchor == NoAnchor {
		return true
	}
	return anchor > NoAnchor && anchor < anchorCount && t.anchors[anchor].defined
}

// Offset returns the translation from the template top-left corner to anchor.
func (t *Template) Offset(anchor Anchor) (image.Point, error) {
	if anchor == NoAnchor {
		return image.Point{}, nil
	}
	if !t.HasAnchor(anchor) {
		return image.Point{}, fmt.Errorf("%w: %v on %v", ErrUndefinedAnchor, anchor, t.shape)
	}
	a := t.anchors[anchor]
	return image.Pt(a.dx, a.dy), nil
}

// Anchors lists the anchors the template defines, NoAnchor excluded.
func (t *Template) Anchors() []Anchor {
	var out []Anchor
	for a := NoAnchor + 1; a < anchorCount; a++ {
		if t.anchors[a].defined {
			out = append(out, a)
		}
	}
	return out
}

// UpperLeft converts an anchored location to the template top-left corner.
func (t *Template) UpperLeft(x, y int, anchor Anchor) (image.Point, error) {
	off, err := t.Offset(anchor)
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x-off.X, y-off.Y), nil
}

// BoundsAt returns the template box when anchor is placed at (x, y).
func (t *Template) BoundsAt(x, y int, anchor Anchor) (image.Rectangle, error) {
	ul, err := t.UpperLeft(x, y, anchor)
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(ul.X, ul.Y, ul.X+t.width, ul.Y+t.height), nil
}

// SymbolBoundsAt returns the symbol box when anchor is placed at (x, y).
func (t *Template) SymbolBoundsAt(x, y int, anchor Anchor) (image.Rectangle, error) {
	ul, err := t.UpperLeft(x, y, anchor)
	if err != nil {
		return image.Rectangle{}, err
	}
	return t.symbol.Add(ul), nil
}

// Evaluate scores the template placed with anchor at (x, y) against dt.
//
// The score is the mean over all key points of the squared difference
// between the observed distance and the expected one, both in pixels. A key
// point falling on an unreachable cell observes +Inf, which makes the score
// +Inf. Lower is better; 0 is a perfect match.
func (t *Template) Evaluate(x, y int, anchor Anchor, dt *table.DistanceTable) (float64, error) {
	ul, err := t.UpperLeft(x, y, anchor)
	if err != nil {
		return 0, err
	}
	if err := t.checkPlacement(ul, dt); err != nil {
		return 0, err
	}
	return t.scoreAt(ul.X, ul.Y, dt), nil
}

func (t *Template) checkPlacement(ul image.Point, dt *table.DistanceTable) error {
	if ul.X < 0 || ul.Y < 0 || ul.X+t.width > dt.Width() || ul.Y+t.height > dt.Height() {
		return fmt.Errorf("%w: %dx%d box at (%d,%d) on %dx%d table",
			ErrOutOfTable, t.width, t.height, ul.X, ul.Y, dt.Width(), dt.Height())
	}
	return nil
}

func (t *Template) scoreAt(ulx, uly int, dt *table.DistanceTable) float64 {
	norm := float64(dt.Normalizer())
	total := 0.0
	for _, kp := range t.keyPoints {
		raw := dt.Value(ulx+kp.DX, uly+kp.DY)
		if raw == table.Unreachable {
			return math.Inf(1)
		}
		diff := float64(raw)/norm - kp.Expected
		total += diff * diff
	}
	return total / float64(len(t.keyPoints))
}

// EvaluateHole returns the ratio of hole key points that are not foreground
// in dt when anchor is placed at (x, y). A filled hole gives 0, a clean one
// gives 1. Templates without holes return 1.
func (t *Template) EvaluateHole(x, y int, anchor Anchor, dt *table.DistanceTable) (float64, error) {
	ul, err := t.UpperLeft(x, y, anchor)
	if err != nil {
		return 0, err
	}
	if err := t.checkPlacement(ul, dt); err != nil {
		return 0, err
	}

	holes, clear := 0, 0
	for _, kp := range t.keyPoints {
		if !kp.IsHole() {
			continue
		}
		holes++
		if dt.Value(ul.X+kp.DX, ul.Y+kp.DY) != 0 {
			clear++
		}
	}
	if holes == 0 {
		return 1, nil
	}
	return float64(clear) / float64(holes), nil
}

// ForegroundPixels returns the foreground key points that are also
// foreground in f when the template box is placed at box.Min. Points are
// relative to box.Min; locations outside f are ignored.
func (t *Template) ForegroundPixels(box image.Rectangle, f pixel.Filter) []image.Point {
	var out []image.Point
	for _, kp := range t.keyPoints {
		if kp.IsHole() {
			continue
		}
		x, y := box.Min.X+kp.DX, box.Min.Y+kp.DY
		if x < 0 || y < 0 || x >= f.Width() || y >= f.Height() {
			continue
		}
		if f.IsFore(x, y) {
			out = append(out, image.Pt(kp.DX, kp.DY))
		}
	}
	return out
}

func (t *Template) String() string {
	return fmt.Sprintf("%v(%d,%v) %dx%d keys:%d", t.shape, t.interline, t.key, t.width, t.height, len(t.keyPoints))
}
