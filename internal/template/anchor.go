package template

import (
	"fmt"
	"strings"
)

// Anchor is a named reference point of a template, used to align it on an
// absolute image location.
type Anchor int

const (
	// NoAnchor places the template by its top-left corner.
	NoAnchor Anchor = iota
	Center
	MiddleLeft
	TopLeftStem
	LeftStem
	BottomLeftStem
	TopRightStem
	RightStem
	BottomRightStem

	anchorCount
)

var anchorNames = [anchorCount]string{
	NoAnchor:        "NONE",
	Center:          "CENTER",
	MiddleLeft:      "MIDDLE_LEFT",
	TopLeftStem:     "TOP_LEFT_STEM",
	LeftStem:        "LEFT_STEM",
	BottomLeftStem:  "BOTTOM_LEFT_STEM",
	TopRightStem:    "TOP_RIGHT_STEM",
	RightStem:       "RIGHT_STEM",
	BottomRightStem: "BOTTOM_RIGHT_STEM",
}

var anchorAbbreviations = [anchorCount]string{
	NoAnchor:        "",
	Center:          "C",
	MiddleLeft:      "ML",
	TopLeftStem:     "TLS",
	LeftStem:        "LS",
	BottomLeftStem:  "BLS",
	TopRightStem:    "TRS",
	RightStem:       "RS",
	BottomRightStem: "BRS",
}

func (a Anchor) String() string {
	if a < 0 || a >= anchorCount {
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
	return anchorNames[a]
}

// Abbreviation is the short label drawn on decorated template images.
func (a Anchor) Abbreviation() string {
	if a < 0 || a >= anchorCount {
		return "?"
	}
	return anchorAbbreviations[a]
}

// ParseAnchor accepts an anchor name such as "LEFT_STEM"; "" means NoAnchor.
func ParseAnchor(name string) (Anchor, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return NoAnchor, nil
	}
	for i, n := range anchorNames {
		if n == upper {
			return Anchor(i), nil
		}
	}
	return NoAnchor, fmt.Errorf("unknown anchor %q", name)
}

// anchorOffset is the frozen translation from the template top-left corner
// to an anchor.
type anchorOffset struct {
	dx, dy  int
	defined bool
}
