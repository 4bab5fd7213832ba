package template

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Glyph is a rendered symbol variant: an image whose red channel encodes ink
// (dark) versus paper (light) and whose alpha channel marks irrelevant
// pixels, plus the bounds of the symbol itself within the image.
type Glyph struct {
	Image  *image.NRGBA
	Symbol image.Rectangle
}

// Renderer draws shape variants at a given interline. Every variant of one
// shape and interline must share the same image size.
type Renderer interface {
	Render(shape Shape, interline int, key Key) (*Glyph, error)
}

// SyntheticRenderer draws note heads as filled, tilted ellipses with an
// optional reversed inner ellipse for the hole.
type SyntheticRenderer struct {
	// SmallRatio scales cue / grace shapes relative to standard ones.
	SmallRatio float64
}

// NewSyntheticRenderer creates a renderer; smallRatio must be in (0, 1].
func NewSyntheticRenderer(smallRatio float64) (*SyntheticRenderer, error) {
	if smallRatio <= 0 || smallRatio > 1 {
		return nil, fmt.Errorf("small ratio must be in (0,1], got %v", smallRatio)
	}
	return &SyntheticRenderer{SmallRatio: smallRatio}, nil
}

type ellipse struct {
	rx, ry float64 // radii, in interline units
	tilt   float64 // degrees
}

type headGeometry struct {
	outer ellipse
	inner *ellipse
}

func geometryOf(shape Shape) headGeometry {
	switch shape {
	case NoteheadVoid, NoteheadVoidSmall:
		return headGeometry{
			outer: ellipse{rx: 0.62, ry: 0.44, tilt: -20},
			inner: &ellipse{rx: 0.42, ry: 0.22, tilt: -35},
		}
	case WholeNote, WholeNoteSmall:
		return headGeometry{
			outer: ellipse{rx: 0.85, ry: 0.5, tilt: 0},
			inner: &ellipse{rx: 0.38, ry: 0.3, tilt: 50},
		}
	default:
		return headGeometry{outer: ellipse{rx: 0.62, ry: 0.44, tilt: -20}}
	}
}

// extent returns the half width and half height of the tilted ellipse.
func (e ellipse) extent(scale float64) (float64, float64) {
	th := e.tilt * math.Pi / 180
	rx, ry := e.rx*scale, e.ry*scale
	hx := math.Sqrt(rx*rx*math.Cos(th)*math.Cos(th) + ry*ry*math.Sin(th)*math.Sin(th))
	hy := math.Sqrt(rx*rx*math.Sin(th)*math.Sin(th) + ry*ry*math.Cos(th)*math.Cos(th))
	return hx, hy
}

// Layout of one rendered shape, in pixels.
type layout struct {
	width, height int
	symbol        image.Rectangle
	cx, cy        float64 // symbol center
	thickness     float64 // staff line and stem thickness
	scale         float64 // effective interline of the head
}

func (r *SyntheticRenderer) layout(shape Shape, interline int) layout {
	scale := float64(interline)
	if shape.IsSmall() {
		scale *= r.SmallRatio
	}

	hx, hy := geometryOf(shape).outer.extent(scale)
	symW := max(1, int(math.Ceil(2*hx)))
	symH := max(1, int(math.Ceil(2*hy)))
	margin := max(1, int(math.Round(0.25*float64(interline))))

	return layout{
		width:     symW + 2*margin,
		height:    symH + 2*margin,
		symbol:    image.Rect(margin, margin, margin+symW, margin+symH),
		cx:        float64(margin) + float64(symW)/2,
		cy:        float64(margin) + float64(symH)/2,
		thickness: float64(lineThickness(interline)),
		scale:     scale,
	}
}

// Render draws shape for key on an opaque white background.
func (r *SyntheticRenderer) Render(shape Shape, interline int, key Key) (*Glyph, error) {
	if interline <= 0 {
		return nil, fmt.Errorf("interline must be positive, got %d", interline)
	}
	if shape < 0 || int(shape) >= len(shapeNames) {
		return nil, fmt.Errorf("cannot render %v", shape)
	}
	if key.Stem != StemNone && !shape.CanHaveStem() {
		return nil, fmt.Errorf("%v cannot have a %v stem", shape, key.Stem)
	}

	lay := r.layout(shape, interline)
	geo := geometryOf(shape)

	z := vector.NewRasterizer(lay.width, lay.height)
	addEllipse(z, lay.cx, lay.cy, geo.outer, lay.scale, false)
	if geo.inner != nil {
		addEllipse(z, lay.cx, lay.cy, *geo.inner, lay.scale, true)
	}

	w, h := float64(lay.width), float64(lay.height)
	if key.Lines == LinesMiddle {
		addRect(z, 0, lay.cy-lay.thickness/2, w, lay.cy+lay.thickness/2)
	}
	switch key.Stem {
	case StemLeft:
		x0 := float64(lay.symbol.Min.X)
		addRect(z, x0, lay.cy, x0+lay.thickness, h)
	case StemRight:
		x1 := float64(lay.symbol.Max.X)
		addRect(z, x1-lay.thickness, 0, x1, lay.cy)
	}

	bounds := image.Rect(0, 0, lay.width, lay.height)
	mask := image.NewAlpha(bounds)
	z.Draw(mask, bounds, image.Opaque, image.Point{})

	img := image.NewNRGBA(bounds)
	draw.Draw(img, bounds, image.White, image.Point{}, draw.Src)
	draw.DrawMask(img, bounds, image.Black, image.Point{}, mask, image.Point{}, draw.Over)

	return &Glyph{Image: img, Symbol: lay.symbol}, nil
}

const ellipseSegments = 72

// addEllipse appends a closed polygon approximating e centered on (cx, cy).
// A reversed ellipse cancels the coverage of the one it lies in.
func addEllipse(z *vector.Rasterizer, cx, cy float64, e ellipse, scale float64, reversed bool) {
	th := e.tilt * math.Pi / 180
	rx, ry := e.rx*scale, e.ry*scale
	cos, sin := math.Cos(th), math.Sin(th)

	point := func(i int) (float32, float32) {
		phi := 2 * math.Pi * float64(i) / ellipseSegments
		if reversed {
			phi = -phi
		}
		ex, ey := rx*math.Cos(phi), ry*math.Sin(phi)
		return float32(cx + ex*cos - ey*sin), float32(cy + ex*sin + ey*cos)
	}

	z.MoveTo(point(0))
	for i := 1; i < ellipseSegments; i++ {
		z.LineTo(point(i))
	}
	z.ClosePath()
}

func addRect(z *vector.Rasterizer, x0, y0, x1, y1 float64) {
	z.MoveTo(float32(x0), float32(y0))
	z.LineTo(float32(x1), float32(y0))
	z.LineTo(float32(x1), float32(y1))
	z.LineTo(float32(x0), float32(y1))
	z.ClosePath()
}
