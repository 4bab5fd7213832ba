package template

import (
	"fmt"
	"strings"
)

// Shape is a music symbol that can be matched with a template.
type Shape int

const (
	NoteheadBlack Shape = iota
	NoteheadBlackSmall
	NoteheadVoid
	NoteheadVoidSmall
	WholeNote
	WholeNoteSmall
)

var shapeNames = [...]string{
	NoteheadBlack:      "NOTEHEAD_BLACK",
	NoteheadBlackSmall: "NOTEHEAD_BLACK_SMALL",
	NoteheadVoid:       "NOTEHEAD_VOID",
	NoteheadVoidSmall:  "NOTEHEAD_VOID_SMALL",
	WholeNote:          "WHOLE_NOTE",
	WholeNoteSmall:     "WHOLE_NOTE_SMALL",
}

// Shapes lists every supported shape.
func Shapes() []Shape {
	shapes := make([]Shape, len(shapeNames))
	for i := range shapeNames {
		shapes[i] = Shape(i)
	}
	return shapes
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ParseShape accepts a shape name such as "NOTEHEAD_VOID" or "notehead_void".
func ParseShape(name string) (Shape, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range shapeNames {
		if n == upper {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shape %q", name)
}

// IsSmall reports cue / grace sized shapes.
func (s Shape) IsSmall() bool {
	return s == NoteheadBlackSmall || s == NoteheadVoidSmall || s == WholeNoteSmall
}

// HasHoles reports shapes whose glyph encloses background.
func (s Shape) HasHoles() bool {
	switch s {
	case NoteheadVoid, NoteheadVoidSmall, WholeNote, WholeNoteSmall:
		return true
	}
	return false
}

// CanHaveStem reports shapes a stem can attach to.
func (s Shape) CanHaveStem() bool {
	switch s {
	case NoteheadBlack, NoteheadBlackSmall, NoteheadVoid, NoteheadVoidSmall:
		return true
	}
	return false
}

// Lines describes how staff or ledger lines cross a template.
type Lines int

const (
	// LinesAny only appears in filters.
	LinesAny Lines = iota - 1
	LinesNone
	LinesMiddle
)

func (l Lines) String() string {
	switch l {
	case LinesAny:
		return "any"
	case LinesNone:
		return "none"
	case LinesMiddle:
		return "middle"
	}
	return fmt.Sprintf("Lines(%d)", int(l))
}

// ParseLines accepts "none", "middle" or "any" ("" means any).
func ParseLines(s string) (Lines, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return LinesAny, nil
	case "none":
		return LinesNone, nil
	case "middle":
		return LinesMiddle, nil
	}
	return LinesAny, fmt.Errorf("unknown lines configuration %q", s)
}

// StemSide tells on which side of the head a stem is attached.
type StemSide int

const (
	// StemAny only appears in filters.
	StemAny StemSide = iota - 1
	StemNone
	StemLeft
	StemRight
)

func (s StemSide) String() string {
	switch s {
	case StemAny:
		return "any"
	case StemNone:
		return "none"
	case StemLeft:
		return "left"
	case StemRight:
		return "right"
	}
	return fmt.Sprintf("StemSide(%d)", int(s))
}

// ParseStemSide accepts "none", "left", "right" or "any" ("" means any).
func ParseStemSide(s string) (StemSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return StemAny, nil
	case "none":
		return StemNone, nil
	case "left":
		return StemLeft, nil
	case "right":
		return StemRight, nil
	}
	return StemAny, fmt.Errorf("unknown stem side %q", s)
}

// Key identifies one structural variant of a shape.
type Key struct {
	Lines Lines
	Stem  StemSide
}

func (k Key) String() string {
	return "lines=" + k.Lines.String() + ",stem=" + k.Stem.String()
}

// Keys enumerates the variants built for shape. Stem variants exist only for
// shapes that can carry a stem.
func Keys(shape Shape) []Key {
	stems := []StemSide{StemNone}
	if shape.CanHaveStem() {
		stems = append(stems, StemLeft, StemRight)
	}

	keys := make([]Key, 0, 2*len(stems))
	for _, l := range []Lines{LinesNone, LinesMiddle} {
		for _, s := range stems {
			keys = append(keys, Key{Lines: l, Stem: s})
		}
	}
	return keys
}

// KeyFilter selects variants. A nil filter selects all of them.
type KeyFilter func(Key) bool

// Match returns a filter accepting keys with the given lines and stem side;
// LinesAny and StemAny act as wildcards.
func Match(lines Lines, stem StemSide) KeyFilter {
	if lines == LinesAny && stem == StemAny {
		return nil
	}
	return func(k Key) bool {
		return (lines == LinesAny || k.Lines == lines) && (stem == StemAny || k.Stem == stem)
	}
}
