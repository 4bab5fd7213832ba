package pixel

import (
	"fmt"

	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// Mask is a materialized boolean foreground map.
type Mask struct {
	width  int
	height int
	bits   []bool
}

// NewMask creates an all-background mask.
func NewMask(width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", table.ErrInvalidSize, width, height)
	}
	return &Mask{
		width:  width,
		height: height,
		bits:   make([]bool, width*height),
	}, nil
}

// MaskOf evaluates f once for every pixel. Filters with an expensive IsFore
// should be materialized before being scanned repeatedly.
func MaskOf(f Filter) (*Mask, error) {
	m, err := NewMask(f.Width(), f.Height())
	if err != nil {
		return nil, err
	}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			m.bits[y*m.width+x] = f.IsFore(x, y)
		}
	}
	return m, nil
}

// Width is the number of columns.
func (m *Mask) Width() int { return m.width }

// Height is the number of rows.
func (m *Mask) Height() int { return m.height }

// IsFore reports whether (x, y) is set. Out-of-range locations are background.
func (m *Mask) IsFore(x, y int) bool {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x]
}

// Set marks (x, y) as foreground or background.
func (m *Mask) Set(x, y int, fore bool) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		panic(&table.BoundsError{X: x, Y: y, Width: m.width, Height: m.height})
	}
	m.bits[y*m.width+x] = fore
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}
