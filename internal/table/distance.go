package table

import (
	"errors"
	"fmt"
	"math"
)

// Unreachable marks a cell that no reference pixel could reach. It stands for
// an infinite distance and must never be read as a small value.
const Unreachable = -1

// DistanceTable is a Table of raw chamfer distances together with the
// normalizer that converts them to pixel units.
//
// Raw values are integer kernel weights: the real-unit distance at (x, y) is
// approximately Value(x, y) / Normalizer().
type DistanceTable struct {
	Table
	normalizer int
}

// NewDistanceTable wraps t, whose values are expressed in units of
// normalizer.
func NewDistanceTable(t Table, normalizer int) (*DistanceTable, error) {
	if t == nil {
		return nil, errors.New("distance table needs a backing table")
	}
	if normalizer <= 0 {
		return nil, fmt.Errorf("distance normalizer must be positive, got %d", normalizer)
	}
	return &DistanceTable{Table: t, normalizer: normalizer}, nil
}

// Normalizer is the divisor converting raw values to pixel units.
func (d *DistanceTable) Normalizer() int {
	return d.normalizer
}

// IsReachable reports whether (x, y) holds a real distance.
func (d *DistanceTable) IsReachable(x, y int) bool {
	return d.Value(x, y) != Unreachable
}

// Distance returns the normalized distance at (x, y), or +Inf for an
// unreachable cell.
func (d *DistanceTable) Distance(x, y int) float64 {
	v := d.Value(x, y)
	if v == Unreachable {
		return math.Inf(1)
	}
	return float64(v) / float64(d.normalizer)
}
