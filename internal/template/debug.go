package template

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	holeNear, _ = colorful.Hex("#cfe8ff")
	holeFar, _  = colorful.Hex("#08306b")
	anchorMark  = color.NRGBA{R: 0xe0, G: 0x20, B: 0x20, A: 0xff}
)

// Dump renders the template as text: "X" for foreground key points, the
// rounded expected distance for hole key points, "." elsewhere, followed by
// the anchor offsets.
func (t *Template) Dump() string {
	cells := make([]string, t.width*t.height)
	for i := range cells {
		cells[i] = "."
	}
	for _, kp := range t.keyPoints {
		if kp.IsHole() {
			cells[kp.DY*t.width+kp.DX] = fmt.Sprintf("%.0f", kp.Expected)
		} else {
			cells[kp.DY*t.width+kp.DX] = "X"
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%v\n", t)
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			fmt.Fprintf(&sb, "%2s", cells[y*t.width+x])
		}
		sb.WriteByte('\n')
	}
	for _, a := range t.Anchors() {
		off := t.anchors[a]
		fmt.Fprintf(&sb, "%-18s (%d,%d)\n", a, off.dx, off.dy)
	}
	return sb.String()
}

// DecoratedImage draws the key points magnified by scale: foreground points
// in black, hole points shaded by expected distance, anchors as red squares.
func (t *Template) DecoratedImage(scale int) image.Image {
	scale = max(1, scale)

	base := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	draw.Draw(base, base.Bounds(), image.White, image.Point{}, draw.Src)

	maxHole := 0.0
	for _, kp := range t.keyPoints {
		maxHole = max(maxHole, kp.Expected)
	}
	for _, kp := range t.keyPoints {
		if !kp.IsHole() {
			base.Set(kp.DX, kp.DY, color.Black)
			continue
		}
		c := holeNear.BlendHcl(holeFar, kp.Expected/maxHole).Clamped()
		r, g, b := c.RGB255()
		base.Set(kp.DX, kp.DY, color.NRGBA{R: r, G: g, B: b, A: 0xff})
	}

	out := imaging.Resize(base, t.width*scale, t.height*scale, imaging.NearestNeighbor)

	half := max(1, scale/3)
	for _, a := range t.Anchors() {
		off := t.anchors[a]
		cx, cy := off.dx*scale+scale/2, off.dy*scale+scale/2
		mark := image.Rect(cx-half, cy-half, cx+half+1, cy+half+1)
		draw.Draw(out, mark.Intersect(out.Bounds()), image.NewUniform(anchorMark), image.Point{}, draw.Src)
	}
	return out
}
