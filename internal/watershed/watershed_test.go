package watershed

import (
	"image"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/omr-match-mcp/internal/table"
)

// createGray builds a gray table filled with level, then applies the given
// spot values.
func createGray(t *testing.T, width, height int, level uint8, spots map[image.Point]uint8) *table.Grid[uint8] {
	t.Helper()
	g, err := table.NewUnsignedByte(width, height)
	if err != nil {
		t.Fatalf("NewUnsignedByte failed: %v", err)
	}
	g.Fill(int(level))
	for p, v := range spots {
		g.SetValue(p.X, p.Y, int(v))
	}
	return g
}

func mustNew(t *testing.T, step int) *Watershed {
	t.Helper()
	w, err := New(step, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return w
}

// connected reports whether a path of 8-adjacent non-boundary pixels links
// a and b.
func connected(m *BoundaryMap, a, b image.Point) bool {
	if m.At(a.X, a.Y) || m.At(b.X, b.Y) {
		return false
	}
	seen := make([]bool, m.Width()*m.Height())
	stack := []image.Point{a}
	seen[a.Y*m.Width()+a.X] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p == b {
			return true
		}
		for _, n := range neighbors {
			q := image.Pt(p.X+n[0], p.Y+n[1])
			if q.X < 0 || q.Y < 0 || q.X >= m.Width() || q.Y >= m.Height() {
				continue
			}
			if i := q.Y*m.Width() + q.X; !seen[i] && !m.At(q.X, q.Y) {
				seen[i] = true
				stack = append(stack, q)
			}
		}
	}
	return false
}

func TestProcess_ConstantImage(t *testing.T) {
	for _, step := range []int{1, 4} {
		w := mustNew(t, step)
		m, err := w.Process(createGray(t, 10, 8, 128, nil), false)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if w.RegionCount() != 1 {
			t.Errorf("step %d: RegionCount() = %d, want 1", step, w.RegionCount())
		}
		if m.Count() != 0 {
			t.Errorf("step %d: %d boundary pixels, want 0", step, m.Count())
		}
	}
}

func TestProcess_Ramp(t *testing.T) {
	g, _ := table.NewUnsignedByte(16, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 16; x++ {
			g.SetValue(x, y, x*10)
		}
	}

	w := mustNew(t, 1)
	m, err := w.Process(g, false)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if w.RegionCount() != 1 || m.Count() != 0 {
		t.Errorf("ramp: %d regions, %d boundary pixels, want 1 and 0", w.RegionCount(), m.Count())
	}
}

func TestProcess_TwoMinima(t *testing.T) {
	a, b := image.Pt(2, 2), image.Pt(6, 2)
	g := createGray(t, 9, 5, 200, map[image.Point]uint8{a: 10, b: 10})

	w := mustNew(t, 1)
	m, err := w.Process(g, false)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if w.RegionCount() != 2 {
		t.Errorf("RegionCount() = %d, want 2", w.RegionCount())
	}
	if m.Count() == 0 {
		t.Fatal("no boundary between the two minima")
	}
	if connected(m, a, b) {
		t.Error("a boundary-free path links the two minima")
	}
	if len(m.Points()) != m.Count() {
		t.Errorf("Points() has %d entries, Count() = %d", len(m.Points()), m.Count())
	}
}

func TestProcess_BrightOnDark(t *testing.T) {
	a, b := image.Pt(3, 3), image.Pt(12, 4)
	g := createGray(t, 16, 8, 50, map[image.Point]uint8{a: 250, b: 250})

	w := mustNew(t, 1)
	m, err := w.Process(g, true)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if w.RegionCount() != 2 {
		t.Errorf("RegionCount() = %d, want 2", w.RegionCount())
	}
	if connected(m, a, b) {
		t.Error("a boundary-free path links the two bright spots")
	}
	if got := g.Value(a.X, a.Y); got != 5 {
		t.Errorf("inverted spot = %d, want 5", got)
	}
	if got := g.Value(0, 0); got != 205 {
		t.Errorf("inverted background = %d, want 205", got)
	}
}

func TestNew_InvalidStep(t *testing.T) {
	for _, step := range []int{0, -1, 257} {
		if _, err := New(step, zerolog.Nop()); err == nil {
			t.Errorf("New(%d): expected error", step)
		}
	}
}

func TestBoundaryMap_OutOfRange(t *testing.T) {
	w := mustNew(t, 1)
	m, _ := w.Process(createGray(t, 3, 3, 0, nil), false)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range access")
		}
	}()
	m.At(3, 0)
}
