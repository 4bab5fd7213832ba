package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/omr-match-mcp/internal/table"
	"github.com/ironsheep/omr-match-mcp/internal/template"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive), (X2, Y2) the bottom-right
// corner (exclusive).
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// PixelDistance is a template placement and its score.
//
// (X, Y) is the template top-left corner in the distance table. D is the
// mean squared residual between observed and expected distances, in squared
// pixels: 0 is a perfect match.
type PixelDistance struct {
	X int     `json:"x"`
	Y int     `json:"y"`
	D float64 `json:"d"`
}

func (p PixelDistance) String() string {
	return fmt.Sprintf("(%d,%d) d=%.3f", p.X, p.Y, p.D)
}

// Candidate is a descriptor match: the best variant at a placement, with
// the boxes a caller needs to report it.
type Candidate struct {
	PixelDistance

	// Key is the variant that achieved D.
	Key template.Key `json:"-"`

	// Lines and Stem describe Key for JSON output.
	Lines string `json:"lines"`
	Stem  string `json:"stem"`

	// Bounds is the template box in image coordinates.
	Bounds Bounds `json:"bounds"`

	// Center is the location of the template Center anchor.
	Center Point `json:"center"`
}

// Search slides tpl over dt and returns every top-left position whose
// unanchored score is at most maxDistance.
//
// Positions range over x in [0, W-w) and y in [0, H-h), where W×H is the
// table size and w×h the template size. A template as large as or larger
// than the table yields an empty, non-nil result.
func Search(dt *table.DistanceTable, tpl *template.Template, maxDistance float64) []PixelDistance {
	out := make([]PixelDistance, 0)

	xMax, yMax := dt.Width()-tpl.Width(), dt.Height()-tpl.Height()
	if xMax <= 0 || yMax <= 0 {
		return out
	}

	score := newScorer(dt, tpl)
	w := dt.Width()
	for y := 0; y < yMax; y++ {
		for x := 0; x < xMax; x++ {
			if d := score(y*w + x); d <= maxDistance {
				out = append(out, PixelDistance{X: x, Y: y, D: d})
			}
		}
	}
	return out
}

// SearchDescriptor slides every variant of desc accepted by filter over dt
// and keeps, for each position, the best variant when its score is at most
// maxDistance. It returns template.ErrNoVariant when filter rejects all
// variants.
func SearchDescriptor(dt *table.DistanceTable, desc *template.ShapeDescriptor, filter template.KeyFilter, maxDistance float64) ([]Candidate, error) {
	variants := desc.Select(filter)
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: %v", template.ErrNoVariant, desc.Shape())
	}

	out := make([]Candidate, 0)
	tw, th := desc.Width(), desc.Height()
	xMax, yMax := dt.Width()-tw, dt.Height()-th
	if xMax <= 0 || yMax <= 0 {
		return out, nil
	}

	scorers := make([]func(int) float64, len(variants))
	for i, v := range variants {
		scorers[i] = newScorer(dt, v)
	}

	center, err := variants[0].Offset(template.Center)
	if err != nil {
		center.X, center.Y = tw/2, th/2
	}

	w := dt.Width()
	for y := 0; y < yMax; y++ {
		for x := 0; x < xMax; x++ {
			base := y*w + x
			best, bestIdx := math.Inf(1), -1
			for i, score := range scorers {
				if d := score(base); d < best || bestIdx < 0 {
					best, bestIdx = d, i
				}
			}
			if best > maxDistance {
				continue
			}
			key := variants[bestIdx].Key()
			out = append(out, Candidate{
				PixelDistance: PixelDistance{X: x, Y: y, D: best},
				Key:           key,
				Lines:         key.Lines.String(),
				Stem:          key.Stem.String(),
				Bounds:        Bounds{X1: x, Y1: y, X2: x + tw, Y2: y + th},
				Center:        Point{X: x + center.X, Y: y + center.Y},
			})
		}
	}
	return out, nil
}

// SortByDistance orders placements by score, then row, then column.
func SortByDistance(ps []PixelDistance) {
	sort.SliceStable(ps, func(i, j int) bool {
		return lessPlacement(ps[i], ps[j])
	})
}

// SortCandidates orders candidates like SortByDistance.
func SortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return lessPlacement(cs[i].PixelDistance, cs[j].PixelDistance)
	})
}

func lessPlacement(a, b PixelDistance) bool {
	if a.D != b.D {
		return a.D < b.D
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// Best returns the n best placements of ps, sorted, without modifying ps.
func Best(ps []PixelDistance, n int) []PixelDistance {
	sorted := make([]PixelDistance, len(ps))
	copy(sorted, ps)
	SortByDistance(sorted)
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// newScorer precomputes the linear offsets of the key points of tpl in dt
// and returns a function scoring the template with its top-left corner at
// linear index base. The result equals tpl.Evaluate at that placement.
func newScorer(dt *table.DistanceTable, tpl *template.Template) func(base int) float64 {
	kps := tpl.KeyPoints()
	w := dt.Width()
	offsets := make([]int, len(kps))
	expected := make([]float64, len(kps))
	for i, kp := range kps {
		offsets[i] = kp.DY*w + kp.DX
		expected[i] = kp.Expected
	}
	norm := float64(dt.Normalizer())

	switch g := dt.Table.(type) {
	case *table.Grid[int16]:
		return scoreData(g.Data(), offsets, expected, norm)
	case *table.Grid[int32]:
		return scoreData(g.Data(), offsets, expected, norm)
	case *table.Grid[uint8]:
		// Bytes cannot hold the unreachable sentinel, so every cell reads as
		// a real distance.
		return scoreData(g.Data(), offsets, expected, norm)
	default:
		return func(base int) float64 {
			x0, y0 := base%w, base/w
			total := 0.0
			for i, kp := range kps {
				raw := dt.Value(x0+kp.DX, y0+kp.DY)
				if raw == table.Unreachable {
					return math.Inf(1)
				}
				diff := float64(raw)/norm - expected[i]
				total += diff * diff
			}
			return total / float64(len(kps))
		}
	}
}

func scoreData[T table.Cell](data []T, offsets []int, expected []float64, norm float64) func(int) float64 {
	n := float64(len(offsets))
	return func(base int) float64 {
		total := 0.0
		for i, off := range offsets {
			raw := int(data[base+off])
			if raw == table.Unreachable {
				return math.Inf(1)
			}
			diff := float64(raw)/norm - expected[i]
			total += diff * diff
		}
		return total / n
	}
}
