package distance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Entry is one kernel element: moving by (DX, DY) costs Weight.
type Entry struct {
	DX     int `json:"dx"`
	DY     int `json:"dy"`
	Weight int `json:"weight"`
}

// Kernel is a list of weighted moves given for one octant (DX >= DY >= 0).
// The other octants follow from symmetry. The first entry must be the minimal
// step (1, 0): its weight is the normalizer of the kernel.
type Kernel []Entry

// Predefined kernels, in increasing order of accuracy with respect to the
// Euclidean metric.
var (
	// Chessboard yields the Chebyshev distance.
	Chessboard = Kernel{{1, 0, 1}, {1, 1, 1}}

	// Chamfer3 is the 3-4 Borgefors kernel on a 3x3 neighborhood.
	Chamfer3 = Kernel{{1, 0, 3}, {1, 1, 4}}

	// Chamfer5 is the 5-7-11 Borgefors kernel on a 5x5 neighborhood.
	Chamfer5 = Kernel{{1, 0, 5}, {1, 1, 7}, {2, 1, 11}}

	// Chamfer7 is the 14-20-31-44 Verwer kernel on a 7x7 neighborhood.
	Chamfer7 = Kernel{{1, 0, 14}, {1, 1, 20}, {2, 1, 31}, {3, 1, 44}}

	// Chamfer13 is the 13x13 Thiel kernel.
	Chamfer13 = Kernel{
		{1, 0, 68}, {1, 1, 96}, {2, 1, 152}, {3, 1, 215}, {3, 2, 245},
		{4, 1, 280}, {4, 3, 340}, {5, 1, 346}, {6, 1, 413},
	}
)

var kernelsByName = map[string]Kernel{
	"chessboard": Chessboard,
	"chamfer3":   Chamfer3,
	"chamfer5":   Chamfer5,
	"chamfer7":   Chamfer7,
	"chamfer13":  Chamfer13,
}

// KernelNames lists the names accepted by KernelByName, sorted.
func KernelNames() []string {
	names := make([]string, 0, len(kernelsByName))
	for name := range kernelsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KernelByName resolves a predefined kernel, case-insensitively.
func KernelByName(name string) (Kernel, error) {
	k, ok := kernelsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown kernel %q (known: %s)", name, strings.Join(KernelNames(), ", "))
	}
	return k, nil
}

// Normalizer is the weight of the unit step.
func (k Kernel) Normalizer() int {
	if len(k) == 0 {
		return 0
	}
	return k[0].Weight
}

// Validate checks the kernel is usable by the transform.
func (k Kernel) Validate() error {
	if len(k) == 0 {
		return errors.New("empty kernel")
	}
	if k[0].DX != 1 || k[0].DY != 0 {
		return fmt.Errorf("first kernel entry must be the unit step (1,0), got (%d,%d)", k[0].DX, k[0].DY)
	}
	for i, e := range k {
		if e.Weight <= 0 {
			return fmt.Errorf("kernel entry %d has non-positive weight %d", i, e.Weight)
		}
		if e.DX < 0 || e.DY < 0 || e.DY > e.DX {
			return fmt.Errorf("kernel entry %d (%d,%d) is not in the first octant", i, e.DX, e.DY)
		}
		if e.DX == 0 {
			return fmt.Errorf("kernel entry %d is a null move", i)
		}
		if e.Weight < k[0].Weight {
			return fmt.Errorf("kernel entry %d weight %d is below the unit weight %d", i, e.Weight, k[0].Weight)
		}
	}
	return nil
}

// offset is one expanded neighbor move.
type offset struct {
	dx, dy, w int
}

// expand applies the kernel symmetries and returns the forward half (moves to
// cells later in row-major order) and the backward half (its mirror).
//
// Each (dx, dy) entry yields (±dx, ±dy) and, when dx != dy, the swapped
// (±dy, ±dx) moves.
func (k Kernel) expand() (forward, backward []offset) {
	seen := make(map[[2]int]bool)
	add := func(dx, dy, w int) {
		key := [2]int{dx, dy}
		if seen[key] {
			return
		}
		seen[key] = true
		if dy > 0 || (dy == 0 && dx > 0) {
			forward = append(forward, offset{dx, dy, w})
		} else {
			backward = append(backward, offset{dx, dy, w})
		}
	}

	for _, e := range k {
		for _, sx := range []int{1, -1} {
			for _, sy := range []int{1, -1} {
				add(sx*e.DX, sy*e.DY, e.Weight)
				if e.DX != e.DY {
					add(sx*e.DY, sy*e.DX, e.Weight)
				}
			}
		}
	}

	return forward, backward
}
