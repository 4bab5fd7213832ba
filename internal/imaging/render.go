package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/omr-match-mcp/internal/pixel"
)

// DistanceSource is a raster of distances where unreachable cells read as
// +Inf. Both distance.Field and table.DistanceTable satisfy it.
type DistanceSource interface {
	Width() int
	Height() int
	Distance(x, y int) float64
}

var (
	heatNear, _     = colorful.Hex("#ffffcc")
	heatFar, _      = colorful.Hex("#253494")
	unreachableTint = color.NRGBA{R: 0xff, G: 0x00, B: 0xff, A: 0xff}
)

// ParseColor parses "#RRGGBB" (the leading '#' is optional).
func ParseColor(hex string) (color.NRGBA, error) {
	if hex != "" && hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// DistanceHeatmap renders distances as a gradient from pale yellow (on the
// foreground) to dark blue (at the largest finite distance), blended in HCL
// space. Unreachable cells are magenta.
func DistanceHeatmap(src DistanceSource) *image.NRGBA {
	w, h := src.Width(), src.Height()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	maxD := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if d := src.Distance(x, y); !math.IsInf(d, 1) && d > maxD {
				maxD = d
			}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := src.Distance(x, y)
			if math.IsInf(d, 1) {
				out.SetNRGBA(x, y, unreachableTint)
				continue
			}
			t := 0.0
			if maxD > 0 {
				t = d / maxD
			}
			r, g, b := heatNear.BlendHcl(heatFar, t).Clamped().RGB255()
			out.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return out
}

// BoundaryOverlay paints the foreground pixels of mask over a copy of base
// using line. base and mask must have the same size.
func BoundaryOverlay(base image.Image, mask pixel.Filter, line color.Color) (*image.NRGBA, error) {
	b := base.Bounds()
	if b.Dx() != mask.Width() || b.Dy() != mask.Height() {
		return nil, fmt.Errorf("overlay mask is %dx%d, image is %dx%d", mask.Width(), mask.Height(), b.Dx(), b.Dy())
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)

	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			if mask.IsFore(x, y) {
				out.Set(x, y, line)
			}
		}
	}
	return out, nil
}

// DrawBoxes outlines each rectangle on a copy of base, clipped to its
// bounds. Rectangles are in base coordinates relative to its top-left
// corner.
func DrawBoxes(base image.Image, boxes []image.Rectangle, line color.Color) *image.NRGBA {
	b := base.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)

	bounds := out.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(bounds) {
			out.Set(x, y, line)
		}
	}

	for _, r := range boxes {
		if r.Empty() {
			continue
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			set(x, r.Min.Y)
			set(x, r.Max.Y-1)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			set(r.Min.X, y)
			set(r.Max.X-1, y)
		}
	}
	return out
}
