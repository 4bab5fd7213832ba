package detection

import (
	"errors"

	"github.com/ironsheep/omr-match-mcp/internal/pixel"
)

// ErrNoScale is returned when a binarized image holds no usable vertical
// runs, typically because it is blank or entirely foreground.
var ErrNoScale = errors.New("cannot estimate staff scale")

// Scale summarizes the vertical rhythm of a music page.
type Scale struct {
	// LineThickness is the most frequent foreground vertical run length.
	LineThickness int `json:"line_thickness"`

	// Gap is the most frequent background vertical run length.
	Gap int `json:"gap"`

	// Interline is the most frequent length of a foreground run followed by
	// a background run, the distance between two staff lines.
	Interline int `json:"interline"`
}

// EstimateScale builds vertical run-length histograms over f and returns
// their peaks.
//
// Runs longer than a quarter of the height (background) or a sixteenth of
// it (foreground) are ignored; a long background run also breaks the
// fore+back pairing.
func EstimateScale(f pixel.Filter) (*Scale, error) {
	width, height := f.Width(), f.Height()
	maxBack := max(1, height/4)
	maxFore := max(1, height/16)

	fore := make([]int, height+2)
	back := make([]int, height+2)
	both := make([]int, 2*height+2)

	for x := 0; x < width; x++ {
		y := 0
		lastFore := 0
		for y < height {
			start := y
			for y < height && !f.IsFore(x, y) {
				y++
			}
			if y == height {
				break // trailing background is not followed by a run
			}
			if backLen := y - start; backLen > 0 {
				if backLen <= maxBack {
					back[backLen]++
					if lastFore != 0 {
						both[lastFore+backLen]++
					}
				} else {
					lastFore = 0
				}
			}

			start = y
			for y < height && f.IsFore(x, y) {
				y++
			}
			if foreLen := y - start; foreLen <= maxFore {
				fore[foreLen]++
				lastFore = foreLen
			} else {
				lastFore = 0
			}
		}
	}

	s := &Scale{
		LineThickness: peak(fore),
		Gap:           peak(back),
		Interline:     peak(both),
	}
	if s.LineThickness == 0 || s.Gap == 0 || s.Interline == 0 {
		return nil, ErrNoScale
	}
	return s, nil
}

// peak returns the index of the largest count, 0 when all counts are 0.
// Ties keep the smallest length.
func peak(histo []int) int {
	best, bestCount := 0, 0
	for length, count := range histo {
		if count > bestCount {
			best, bestCount = length, count
		}
	}
	return best
}
