// Package pixel defines the capability contracts that glue the analysis core
// to raster buffers: gray-level sources and sinks, and foreground filters that
// encode a binarization policy.
//
// The core never decodes images itself. Callers adapt a decoded image.Image
// with FromImage, pick a Filter (GlobalFilter or AdaptiveFilter) and hand the
// filter to the distance transform.
package pixel

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// Source provides gray-level pixel values in 0..255.
type Source interface {
	Width() int
	Height() int
	Pixel(x, y int) int
}

// Sink accepts gray-level pixel values.
type Sink interface {
	SetPixel(x, y, v int)
}

// Filter is a foreground predicate over a width×height raster.
type Filter interface {
	Width() int
	Height() int

	// IsFore reports whether the pixel at (x, y) belongs to the foreground.
	IsFore(x, y int) bool
}

// Context describes how a filter classified a given location. It exists for
// diagnostics; no algorithm branches on it.
type Context struct {
	// Threshold is the gray level at or below which a pixel is foreground.
	Threshold float64 `json:"threshold"`
}

// ContextFilter is a Filter able to report its decision context.
type ContextFilter interface {
	Filter
	Context(x, y int) *Context
}

// Buffer is a gray-level Source and Sink backed by an unsigned-byte table.
type Buffer struct {
	grid *table.Grid[uint8]
}

// NewBuffer creates a white (255) buffer of the given size.
func NewBuffer(width, height int) (*Buffer, error) {
	g, err := table.NewUnsignedByte(width, height)
	if err != nil {
		return nil, err
	}
	g.Fill(255)
	return &Buffer{grid: g}, nil
}

// FromImage converts any image to an 8-bit gray buffer. Alpha is ignored
// beyond what the grayscale conversion applies.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("cannot build pixel buffer from empty image %v", bounds)
	}

	gray := imaging.Grayscale(img)
	g, err := table.NewUnsignedByte(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	data := g.Data()
	w := bounds.Dx()
	for y := 0; y < bounds.Dy(); y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			// Grayscale output has R == G == B.
			data[y*w+x] = row[x*4]
		}
	}

	return &Buffer{grid: g}, nil
}

// Width is the number of columns.
func (b *Buffer) Width() int { return b.grid.Width() }

// Height is the number of rows.
func (b *Buffer) Height() int { return b.grid.Height() }

// Pixel returns the gray level at (x, y).
func (b *Buffer) Pixel(x, y int) int { return b.grid.Value(x, y) }

// SetPixel stores the gray level v at (x, y).
func (b *Buffer) SetPixel(x, y, v int) { b.grid.SetValue(x, y, v) }

// Grid returns the backing table. Writes to it are visible through the buffer.
func (b *Buffer) Grid() *table.Grid[uint8] { return b.grid }

// Image renders the buffer as a standard gray image.
func (b *Buffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width(), b.Height()))
	copy(img.Pix, b.grid.Data())
	return img
}
