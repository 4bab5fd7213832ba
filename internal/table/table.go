package table

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSize is returned by constructors when width or height is not positive.
var ErrInvalidSize = errors.New("table dimensions must be positive")

// Kind identifies the primitive storage of a Table.
type Kind int

const (
	// UnsignedByte stores values in 0..255.
	UnsignedByte Kind = iota
	// Short stores signed 16-bit values.
	Short
	// Int stores signed 32-bit values.
	Int
)

// String returns the lower-case name of the storage kind.
func (k Kind) String() string {
	switch k {
	case UnsignedByte:
		return "unsigned-byte"
	case Short:
		return "short"
	case Int:
		return "int"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MaxValue reports the largest value the kind can hold.
func (k Kind) MaxValue() int {
	switch k {
	case UnsignedByte:
		return math.MaxUint8
	case Short:
		return math.MaxInt16
	default:
		return math.MaxInt32
	}
}

// Table is a fixed width×height grid of integer values.
//
// All storage variants share this interface; concrete *Grid values are
// returned by the constructors so that hot loops can reach the raw storage.
type Table interface {
	// Width is the number of columns.
	Width() int

	// Height is the number of rows.
	Height() int

	// Kind reports the storage variant.
	Kind() Kind

	// Value returns the value at (x, y). It panics with a *BoundsError when
	// (x, y) is outside the table.
	Value(x, y int) int

	// SetValue stores v at (x, y), converted to the storage kind. It panics
	// with a *BoundsError when (x, y) is outside the table.
	SetValue(x, y, v int)

	// Fill sets every cell to v.
	Fill(v int)

	// Contains reports whether (x, y) addresses a cell of the table.
	Contains(x, y int) bool
}

// BoundsError reports an access outside a table.
type BoundsError struct {
	X, Y          int
	Width, Height int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("table access (%d,%d) outside %dx%d", e.X, e.Y, e.Width, e.Height)
}

// Cell lists the primitive types a Grid can store.
type Cell interface {
	~uint8 | ~int16 | ~int32
}

// Grid is the row-major Table implementation over one primitive cell type.
type Grid[T Cell] struct {
	width  int
	height int
	data   []T
}

func newGrid[T Cell](width, height int) (*Grid[T], error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, width, height)
	}
	return &Grid[T]{
		width:  width,
		height: height,
		data:   make([]T, width*height),
	}, nil
}

// NewUnsignedByte creates a zero-filled table of bytes.
func NewUnsignedByte(width, height int) (*Grid[uint8], error) {
	return newGrid[uint8](width, height)
}

// NewShort creates a zero-filled table of signed 16-bit values.
func NewShort(width, height int) (*Grid[int16], error) {
	return newGrid[int16](width, height)
}

// NewInt creates a zero-filled table of signed 32-bit values.
func NewInt(width, height int) (*Grid[int32], error) {
	return newGrid[int32](width, height)
}

// New creates a zero-filled table of the requested kind.
func New(kind Kind, width, height int) (Table, error) {
	switch kind {
	case UnsignedByte:
		return NewUnsignedByte(width, height)
	case Short:
		return NewShort(width, height)
	case Int:
		return NewInt(width, height)
	default:
		return nil, fmt.Errorf("unknown table kind %v", kind)
	}
}

// Width is the number of columns.
func (g *Grid[T]) Width() int { return g.width }

// Height is the number of rows.
func (g *Grid[T]) Height() int { return g.height }

// Kind reports the storage variant from the cell type.
func (g *Grid[T]) Kind() Kind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return UnsignedByte
	case int16:
		return Short
	default:
		return Int
	}
}

// Contains reports whether (x, y) addresses a cell of the table.
func (g *Grid[T]) Contains(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Grid[T]) index(x, y int) int {
	if !g.Contains(x, y) {
		panic(&BoundsError{X: x, Y: y, Width: g.width, Height: g.height})
	}
	return y*g.width + x
}

// Value returns the value at (x, y).
func (g *Grid[T]) Value(x, y int) int {
	return int(g.data[g.index(x, y)])
}

// SetValue stores v at (x, y). Values outside the range of the storage kind
// are truncated like a Go integer conversion.
func (g *Grid[T]) SetValue(x, y, v int) {
	g.data[g.index(x, y)] = T(v)
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v int) {
	val := T(v)
	for i := range g.data {
		g.data[i] = val
	}
}

// Data exposes the row-major storage. Cell (x, y) is Data()[y*Width()+x].
// Writes through the slice are visible to the table.
func (g *Grid[T]) Data() []T {
	return g.data
}

// Clone returns an independent copy of the table.
func (g *Grid[T]) Clone() *Grid[T] {
	data := make([]T, len(g.data))
	copy(data, g.data)
	return &Grid[T]{width: g.width, height: g.height, data: data}
}
