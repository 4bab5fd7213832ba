package template

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/omr-match-mcp/internal/distance"
	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// BuildOptions tunes template construction.
type BuildOptions struct {
	// Kernel drives the local distance table of the glyph.
	Kernel distance.Kernel

	// Threshold splits glyph pixels: alpha below it is irrelevant, red at or
	// above it is background, anything else is foreground.
	Threshold int

	// StemDX and StemDY place stem anchors, as ratios of the symbol width
	// and height, inside the symbol box.
	StemDX float64
	StemDY float64

	// KeepDir, when set, receives a decorated PNG of every built template.
	KeepDir string
}

// DefaultBuildOptions returns the usual construction settings.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Kernel:    distance.Chamfer3,
		Threshold: 175,
		StemDX:    0.05,
		StemDY:    0.0,
	}
}

func (o BuildOptions) validate() error {
	if o.Threshold < 0 || o.Threshold > 255 {
		return fmt.Errorf("template threshold must be in 0..255, got %d", o.Threshold)
	}
	if o.StemDX < 0 || o.StemDX > 0.5 || o.StemDY < 0 || o.StemDY > 0.5 {
		return fmt.Errorf("stem ratios must be in [0,0.5], got dx=%v dy=%v", o.StemDX, o.StemDY)
	}
	return o.Kernel.Validate()
}

// Pixel labels of a binarized glyph.
const (
	labelIrrelevant uint8 = iota
	labelFore
	labelBack
	labelHole
	labelOpen // background reached by a fill that leaked out
)

// lineThickness is the staff line and stem thickness drawn for interline.
func lineThickness(interline int) int {
	return max(1, int(math.Round(float64(interline)/8)))
}

// Build renders one variant of shape and turns it into a template.
func Build(r Renderer, shape Shape, interline int, key Key, opts BuildOptions) (*Template, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	glyph, err := r.Render(shape, interline, key)
	if err != nil {
		return nil, fmt.Errorf("render %v %v: %w", shape, key, err)
	}

	labels, err := binarize(glyph.Image, opts.Threshold)
	if err != nil {
		return nil, err
	}

	if shape.HasHoles() {
		fillHoles(labels, glyph.Symbol)
	}

	chamfer, err := distance.NewChamfer(opts.Kernel)
	if err != nil {
		return nil, err
	}
	dt, err := chamfer.ComputeTable(labelFilter{labels}, table.Short)
	if err != nil {
		return nil, fmt.Errorf("template distances: %w", err)
	}

	t, err := NewTemplate(labels.Width(), labels.Height(), keyPointsOf(labels, dt))
	if err != nil {
		return nil, fmt.Errorf("%v %v: %w", shape, key, err)
	}
	t.shape = shape
	t.interline = interline
	t.key = key
	t.symbol = glyph.Symbol
	t.distances = dt

	if err := addAnchors(t, opts); err != nil {
		return nil, err
	}
	return t, nil
}

// binarize labels every glyph pixel as irrelevant, foreground or background.
func binarize(img *image.NRGBA, threshold int) (*table.Grid[uint8], error) {
	b := img.Bounds()
	labels, err := table.NewUnsignedByte(b.Dx(), b.Dy())
	if err != nil {
		return nil, fmt.Errorf("empty glyph: %w", err)
	}

	data := labels.Data()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			red, alpha := int(row[x*4]), int(row[x*4+3])
			switch {
			case alpha < threshold:
				data[y*w+x] = labelIrrelevant
			case red >= threshold:
				data[y*w+x] = labelBack
			default:
				data[y*w+x] = labelFore
			}
		}
	}
	return labels, nil
}

// fillHoles relabels as hole every background region met in the central
// part of symbol that does not reach the glyph border. A middle line splits
// the hole into two such regions, either of which may miss the vertical axis.
func fillHoles(labels *table.Grid[uint8], symbol image.Rectangle) {
	dx, dy := symbol.Dx()/4, symbol.Dy()/4
	core := image.Rect(symbol.Min.X+dx, symbol.Min.Y+dy, symbol.Max.X-dx, symbol.Max.Y-dy).
		Intersect(image.Rect(0, 0, labels.Width(), labels.Height()))

	for y := core.Min.Y; y < core.Max.Y; y++ {
		for x := core.Min.X; x < core.Max.X; x++ {
			if labels.Value(x, y) == int(labelBack) {
				fillRegion(labels, image.Pt(x, y))
			}
		}
	}

	data := labels.Data()
	for i, l := range data {
		if l == labelOpen {
			data[i] = labelBack
		}
	}
}

// fillRegion labels the 4-connected background region of start as hole, or
// as open when the region touches the glyph border and therefore is no hole.
func fillRegion(labels *table.Grid[uint8], start image.Point) {
	w, h := labels.Width(), labels.Height()
	data := labels.Data()
	var filled []int
	leaked := false

	stack := []image.Point{start}
	data[start.Y*w+start.X] = labelHole
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		filled = append(filled, p.Y*w+p.X)

		if p.X == 0 || p.Y == 0 || p.X == w-1 || p.Y == h-1 {
			leaked = true
		}
		for _, n := range [4]image.Point{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}} {
			if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
				continue
			}
			if i := n.Y*w + n.X; data[i] == labelBack {
				data[i] = labelHole
				stack = append(stack, n)
			}
		}
	}

	if leaked {
		for _, i := range filled {
			data[i] = labelOpen
		}
	}
}

// labelFilter takes foreground and irrelevant pixels as distance references.
type labelFilter struct {
	labels *table.Grid[uint8]
}

func (f labelFilter) Width() int  { return f.labels.Width() }
func (f labelFilter) Height() int { return f.labels.Height() }

func (f labelFilter) IsFore(x, y int) bool {
	l := uint8(f.labels.Value(x, y))
	return l == labelFore || l == labelIrrelevant
}

func keyPointsOf(labels *table.Grid[uint8], dt *table.DistanceTable) []KeyPoint {
	var kps []KeyPoint
	for y := 0; y < labels.Height(); y++ {
		for x := 0; x < labels.Width(); x++ {
			switch uint8(labels.Value(x, y)) {
			case labelFore:
				kps = append(kps, KeyPoint{DX: x, DY: y})
			case labelHole:
				kps = append(kps, KeyPoint{DX: x, DY: y, Expected: dt.Distance(x, y)})
			}
		}
	}
	return kps
}

// addAnchors defines the center and middle-left anchors, plus the stem
// anchors for shapes that can carry a stem. Positions derive from the
// symbol box, expressed as ratios of the template box.
func addAnchors(t *Template, opts BuildOptions) error {
	w, h := float64(t.width), float64(t.height)
	left, top := float64(t.symbol.Min.X), float64(t.symbol.Min.Y)
	sw, sh := float64(t.symbol.Dx()-1), float64(t.symbol.Dy()-1)

	xc := (left + 0.5*sw) / w
	yc := (top + 0.5*sh) / h

	ratios := map[Anchor][2]float64{
		Center:     {xc, yc},
		MiddleLeft: {left / w, yc},
	}

	if t.shape.CanHaveStem() {
		xl := (left + opts.StemDX*sw) / w
		xr := (left + (1-opts.StemDX)*sw) / w
		yt := (top + opts.StemDY*sh) / h
		yb := (top + (1-opts.StemDY)*sh) / h

		ratios[TopLeftStem] = [2]float64{xl, yt}
		ratios[LeftStem] = [2]float64{xl, yc}
		ratios[BottomLeftStem] = [2]float64{xl, yb}
		ratios[TopRightStem] = [2]float64{xr, yt}
		ratios[RightStem] = [2]float64{xr, yc}
		ratios[BottomRightStem] = [2]float64{xr, yb}
	}

	for a, r := range ratios {
		if err := t.AddAnchor(a, r[0], r[1]); err != nil {
			return err
		}
	}
	return nil
}
