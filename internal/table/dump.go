package table

import (
	"fmt"
	"strings"
)

// Dump renders t as a fixed-width text grid with a column header, one row per
// line. Unreachable (-1) cells print as ".". It is meant for debug logging of
// small tables such as template distance maps.
func Dump(t Table, title string) string {
	width := t.Width()
	height := t.Height()

	// Cell width fits the largest value and the largest abscissa.
	cell := len(fmt.Sprint(width - 1))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if n := len(fmt.Sprint(t.Value(x, y))); n > cell {
				cell = n
			}
		}
	}
	cell++
	rowLabel := len(fmt.Sprint(height-1)) + 1

	var sb strings.Builder
	if title != "" {
		sb.WriteString(title)
		sb.WriteByte('\n')
	}

	sb.WriteString(strings.Repeat(" ", rowLabel))
	for x := 0; x < width; x++ {
		fmt.Fprintf(&sb, "%*d", cell, x)
	}
	sb.WriteByte('\n')

	for y := 0; y < height; y++ {
		fmt.Fprintf(&sb, "%*d", rowLabel, y)
		for x := 0; x < width; x++ {
			v := t.Value(x, y)
			if v == Unreachable && t.Kind() != UnsignedByte {
				fmt.Fprintf(&sb, "%*s", cell, ".")
			} else {
				fmt.Fprintf(&sb, "%*d", cell, v)
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
