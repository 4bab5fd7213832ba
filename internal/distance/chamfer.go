// Package distance computes chamfer distance transforms: for every pixel of a
// raster, an approximation of the distance to the nearest reference
// (foreground) pixel.
//
// # Algorithm
//
// The transform follows the classic two-pass dynamic programming scheme:
//
//  1. Initialization: reference pixels get 0, all others the Unreachable
//     sentinel (-1).
//  2. Forward pass, top-left to bottom-right: every known cell pushes
//     value+weight to the neighbors of the kernel's forward half. A neighbor
//     is updated only if it is still unknown or holds a larger value.
//  3. Backward pass, bottom-right to top-left, with the mirrored moves.
//
// Moves landing outside the raster are skipped silently: this is the normal
// overhang at image borders, not an error.
//
// # Units
//
// Raw values are sums of integer kernel weights. Dividing by the kernel
// normalizer (the unit step weight) approximates the Euclidean distance in
// pixels. ComputeTable keeps raw values in a table.DistanceTable that carries
// the normalizer; ComputeField returns already normalized floats.
//
// # Unreachable Cells
//
// A raster with no reference pixel leaves every cell at -1. Such cells mean
// "infinitely far" and are reported as +Inf by the Distance accessors; they
// are never coerced to 0.
package distance

import (
	"fmt"

	"github.com/ironsheep/omr-match-mcp/internal/pixel"
	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// Chamfer is a distance transform bound to one kernel. It holds no per-run
// state and may be shared between goroutines.
type Chamfer struct {
	kernel   Kernel
	forward  []offset
	backward []offset
}

// NewChamfer validates kernel and precomputes its symmetric moves.
func NewChamfer(kernel Kernel) (*Chamfer, error) {
	if err := kernel.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chamfer kernel: %w", err)
	}
	fwd, bwd := kernel.expand()
	return &Chamfer{
		kernel:   kernel,
		forward:  fwd,
		backward: bwd,
	}, nil
}

// Kernel returns the kernel of this transform.
func (c *Chamfer) Kernel() Kernel { return c.kernel }

// Normalizer is the raw value of a unit step.
func (c *Chamfer) Normalizer() int { return c.kernel.Normalizer() }

// ComputeTable runs the transform over f and stores raw distances in a table
// of the given kind (Short or Int). Distances beyond the storage range
// saturate at its maximum value.
func (c *Chamfer) ComputeTable(f pixel.Filter, kind table.Kind) (*table.DistanceTable, error) {
	var t table.Table

	switch kind {
	case table.Short:
		g, err := table.NewShort(f.Width(), f.Height())
		if err != nil {
			return nil, err
		}
		initialize(g.Data(), f)
		c.run16(g.Data(), g.Width(), g.Height())
		t = g
	case table.Int:
		g, err := table.NewInt(f.Width(), f.Height())
		if err != nil {
			return nil, err
		}
		initialize(g.Data(), f)
		c.run32(g.Data(), g.Width(), g.Height())
		t = g
	default:
		return nil, fmt.Errorf("distance table cannot use %v storage: it has no room for the unreachable sentinel", kind)
	}

	return table.NewDistanceTable(t, c.Normalizer())
}

// ComputeField runs the transform over f and returns normalized distances.
func (c *Chamfer) ComputeField(f pixel.Filter) (*Field, error) {
	dt, err := c.ComputeTable(f, table.Int)
	if err != nil {
		return nil, err
	}
	return FieldOf(dt), nil
}

func (c *Chamfer) run16(data []int16, width, height int) {
	transform(data, width, height, c.forward, c.backward, table.Short.MaxValue())
}

func (c *Chamfer) run32(data []int32, width, height int) {
	transform(data, width, height, c.forward, c.backward, table.Int.MaxValue())
}

func initialize[T int16 | int32](data []T, f pixel.Filter) {
	width, height := f.Width(), f.Height()
	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]
		for x := range row {
			if f.IsFore(x, y) {
				row[x] = 0
			} else {
				row[x] = table.Unreachable
			}
		}
	}
}

func transform[T int16 | int32](data []T, width, height int, forward, backward []offset, limit int) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if v := int(data[y*width+x]); v >= 0 {
				propagate(data, width, height, x, y, v, forward, limit)
			}
		}
	}

	for y := height - 1; y >= 0; y-- {
		for x := width - 1; x >= 0; x-- {
			if v := int(data[y*width+x]); v >= 0 {
				propagate(data, width, height, x, y, v, backward, limit)
			}
		}
	}
}

// propagate pushes v+weight from (x, y) along moves. It only ever decreases
// an existing value or replaces the unknown sentinel.
func propagate[T int16 | int32](data []T, width, height, x, y, v int, moves []offset, limit int) {
	for _, m := range moves {
		nx, ny := x+m.dx, y+m.dy
		if nx < 0 || nx >= width || ny < 0 || ny >= height {
			continue
		}
		d := v + m.w
		if d > limit {
			d = limit
		}
		i := ny*width + nx
		if cur := int(data[i]); cur == table.Unreachable || cur > d {
			data[i] = T(d)
		}
	}
}

// FromBools adapts a boolean grid indexed [y][x] to a pixel.Filter. All rows
// must have the same length.
func FromBools(grid [][]bool) pixel.Filter {
	return boolFilter(grid)
}

type boolFilter [][]bool

func (b boolFilter) Width() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

func (b boolFilter) Height() int { return len(b) }

func (b boolFilter) IsFore(x, y int) bool { return b[y][x] }
