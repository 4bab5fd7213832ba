package pixel

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/segment"
)

// GlobalFilter classifies a pixel as foreground when its gray level is at or
// below a single threshold.
//
// The filter is immutable after construction and safe for concurrent use by
// several scanning goroutines.
type GlobalFilter struct {
	source    Source
	threshold int
}

// NewGlobalFilter creates a filter over source with the given threshold in
// 0..255.
func NewGlobalFilter(source Source, threshold int) (*GlobalFilter, error) {
	if source == nil {
		return nil, errors.New("global filter needs a pixel source")
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold must be in 0..255, got %d", threshold)
	}
	return &GlobalFilter{source: source, threshold: threshold}, nil
}

// Width is the number of columns.
func (f *GlobalFilter) Width() int { return f.source.Width() }

// Height is the number of rows.
func (f *GlobalFilter) Height() int { return f.source.Height() }

// IsFore reports whether the pixel at (x, y) is dark enough.
func (f *GlobalFilter) IsFore(x, y int) bool {
	return f.source.Pixel(x, y) <= f.threshold
}

// Threshold returns the configured gray level.
func (f *GlobalFilter) Threshold() int { return f.threshold }

// Context reports the global threshold, which does not depend on location.
func (f *GlobalFilter) Context(x, y int) *Context {
	return &Context{Threshold: float64(f.threshold)}
}

// Binarized renders the filter decision as a gray image where foreground is
// black (0) and background white (255).
func (f *GlobalFilter) Binarized() *image.Gray {
	src := image.NewGray(image.Rect(0, 0, f.Width(), f.Height()))
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			src.Pix[y*src.Stride+x] = uint8(f.source.Pixel(x, y))
		}
	}
	// segment.Threshold sets white when level >= t, so foreground (<= threshold)
	// maps to black with t = threshold+1.
	if f.threshold >= 255 {
		return image.NewGray(src.Rect)
	}
	return segment.Threshold(src, uint8(f.threshold+1))
}

// Binarize renders the decision of any filter as a gray image, black for
// foreground and white for background.
func Binarize(f Filter) *image.Gray {
	if g, ok := f.(*GlobalFilter); ok {
		return g.Binarized()
	}
	img := image.NewGray(image.Rect(0, 0, f.Width(), f.Height()))
	for y := 0; y < f.Height(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width(); x++ {
			if !f.IsFore(x, y) {
				row[x] = 255
			}
		}
	}
	return img
}

// AdaptiveFilter applies Sauvola's local threshold
//
//	t(x, y) = mean · (1 + k · (stddev / 128 − 1))
//
// over a square window centered on each pixel. Window statistics come from
// integral images computed once at construction; afterwards the filter is
// read-only and safe for concurrent use.
type AdaptiveFilter struct {
	source   Source
	k        float64
	half     int
	width    int
	height   int
	integral []float64
	squares  []float64
}

// NewAdaptiveFilter builds the integral images of source. windowSize is the
// side of the averaging window in pixels (odd values are centered exactly),
// k is the Sauvola sensitivity, typically 0.2 to 0.5.
func NewAdaptiveFilter(source Source, windowSize int, k float64) (*AdaptiveFilter, error) {
	if source == nil {
		return nil, errors.New("adaptive filter needs a pixel source")
	}
	if windowSize < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}

	w, h := source.Width(), source.Height()
	f := &AdaptiveFilter{
		source:   source,
		k:        k,
		half:     windowSize / 2,
		width:    w,
		height:   h,
		integral: make([]float64, (w+1)*(h+1)),
		squares:  make([]float64, (w+1)*(h+1)),
	}

	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum, rowSq float64
		for x := 0; x < w; x++ {
			v := float64(source.Pixel(x, y))
			rowSum += v
			rowSq += v * v
			i := (y+1)*stride + x + 1
			f.integral[i] = f.integral[i-stride] + rowSum
			f.squares[i] = f.squares[i-stride] + rowSq
		}
	}

	return f, nil
}

// Width is the number of columns.
func (f *AdaptiveFilter) Width() int { return f.width }

// Height is the number of rows.
func (f *AdaptiveFilter) Height() int { return f.height }

// IsFore reports whether the pixel at (x, y) is at or below its local threshold.
func (f *AdaptiveFilter) IsFore(x, y int) bool {
	return float64(f.source.Pixel(x, y)) <= f.threshold(x, y)
}

// Context reports the local threshold at (x, y).
func (f *AdaptiveFilter) Context(x, y int) *Context {
	return &Context{Threshold: f.threshold(x, y)}
}

func (f *AdaptiveFilter) threshold(x, y int) float64 {
	x0 := max(x-f.half, 0)
	y0 := max(y-f.half, 0)
	x1 := min(x+f.half+1, f.width)
	y1 := min(y+f.half+1, f.height)

	n := float64((x1 - x0) * (y1 - y0))
	sum := f.windowSum(f.integral, x0, y0, x1, y1)
	sq := f.windowSum(f.squares, x0, y0, x1, y1)

	mean := sum / n
	variance := sq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	dev := math.Sqrt(variance)

	return mean * (1 + f.k*(dev/128-1))
}

// windowSum returns the sum over [x0,x1)×[y0,y1) from an integral image.
func (f *AdaptiveFilter) windowSum(in []float64, x0, y0, x1, y1 int) float64 {
	stride := f.width + 1
	return in[y1*stride+x1] - in[y0*stride+x1] - in[y1*stride+x0] + in[y0*stride+x0]
}
