package distance

import (
	"math"

	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// Field holds normalized distances in pixel units, row-major. Unreachable
// cells keep the -1 sentinel.
type Field struct {
	width  int
	height int
	values []float64
}

// FieldOf normalizes the raw values of dt.
func FieldOf(dt *table.DistanceTable) *Field {
	w, h := dt.Width(), dt.Height()
	f := &Field{width: w, height: h, values: make([]float64, w*h)}
	norm := float64(dt.Normalizer())

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := dt.Value(x, y)
			if v == table.Unreachable {
				f.values[y*w+x] = table.Unreachable
			} else {
				f.values[y*w+x] = float64(v) / norm
			}
		}
	}

	return f
}

// Width is the number of columns.
func (f *Field) Width() int { return f.width }

// Height is the number of rows.
func (f *Field) Height() int { return f.height }

// Value returns the stored value at (x, y): a normalized distance, or -1 for
// an unreachable cell. It panics with a *table.BoundsError when out of range.
func (f *Field) Value(x, y int) float64 {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		panic(&table.BoundsError{X: x, Y: y, Width: f.width, Height: f.height})
	}
	return f.values[y*f.width+x]
}

// IsReachable reports whether (x, y) holds a real distance.
func (f *Field) IsReachable(x, y int) bool {
	return f.Value(x, y) != table.Unreachable
}

// Distance returns the distance at (x, y), +Inf when unreachable.
func (f *Field) Distance(x, y int) float64 {
	v := f.Value(x, y)
	if v == table.Unreachable {
		return math.Inf(1)
	}
	return v
}

// Max returns the largest reachable distance, and false when no cell is
// reachable.
func (f *Field) Max() (float64, bool) {
	found := false
	best := 0.0
	for _, v := range f.values {
		if v == table.Unreachable {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best, found
}
