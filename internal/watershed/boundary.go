package watershed

import (
	"image"

	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// BoundaryMap flags the watershed line pixels of a segmented raster. It is a
// pixel.Filter whose foreground is the boundary.
type BoundaryMap struct {
	width  int
	height int
	bits   []bool
	count  int
}

func newBoundaryMap(width, height int, ids []int32) *BoundaryMap {
	m := &BoundaryMap{width: width, height: height, bits: make([]bool, len(ids))}
	for i, id := range ids {
		if id == boundary {
			m.bits[i] = true
			m.count++
		}
	}
	return m
}

// Width is the number of columns.
func (m *BoundaryMap) Width() int { return m.width }

// Height is the number of rows.
func (m *BoundaryMap) Height() int { return m.height }

// At reports whether (x, y) lies on a watershed line. It panics with a
// *table.BoundsError when out of range.
func (m *BoundaryMap) At(x, y int) bool {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		panic(&table.BoundsError{X: x, Y: y, Width: m.width, Height: m.height})
	}
	return m.bits[y*m.width+x]
}

// IsFore is At, for use as a pixel.Filter.
func (m *BoundaryMap) IsFore(x, y int) bool { return m.At(x, y) }

// Count is the number of boundary pixels.
func (m *BoundaryMap) Count() int { return m.count }

// Points lists the boundary pixels in row-major order.
func (m *BoundaryMap) Points() []image.Point {
	out := make([]image.Point, 0, m.count)
	for i, b := range m.bits {
		if b {
			out = append(out, image.Pt(i%m.width, i/m.width))
		}
	}
	return out
}
