// Package typeset holds the mutable typesetting context threaded through a
// layout walk: the per-key setting stacks and the tab environment.
package typeset

import "fmt"

// Alignment controls horizontal placement of lines within the text column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return fmt.Sprintf("alignment(%d)", int(a))
	}
}

// ParseAlignment maps an argument string to an Alignment.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "left":
		return AlignLeft, nil
	case "center":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	case "justify":
		return AlignJustify, nil
	default:
		return AlignLeft, fmt.Errorf("invalid alignment %q", s)
	}
}

// FontStyle selects a face within a font family. Bold and italic combine.
type FontStyle uint8

const (
	StyleRoman  FontStyle = 0
	StyleBold   FontStyle = 1 << 0
	StyleItalic FontStyle = 1 << 1

	StyleBoldItalic = StyleBold | StyleItalic
)

func (f FontStyle) String() string {
	switch f {
	case StyleRoman:
		return "roman"
	case StyleBold:
		return "bold"
	case StyleItalic:
		return "italic"
	case StyleBoldItalic:
		return "bold_italic"
	default:
		return fmt.Sprintf("font_style(%d)", int(f))
	}
}

// ParseFontStyle maps an argument string to a FontStyle.
func ParseFontStyle(s string) (FontStyle, error) {
	switch s {
	case "roman":
		return StyleRoman, nil
	case "bold":
		return StyleBold, nil
	case "italic":
		return StyleItalic, nil
	case "bold_italic":
		return StyleBoldItalic, nil
	default:
		return StyleRoman, fmt.Errorf("invalid font style %q", s)
	}
}

// Tab is a named column definition for tabular layout. Indent is the offset
// from the left page margin, Length the column's wrap width; both in points.
// A zero Length means the remaining usable width. Quad selects whether
// overflowing text wraps within the column (true) or runs past it on the
// same baseline (false).
type Tab struct {
	Name      string
	Indent    float64
	Direction Alignment
	Length    float64
	Quad      bool
}
