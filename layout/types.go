package layout

import (
	"fmt"

	"github.com/burrodoc/burro/typeset"
)

// This file defines the layout result shared by the engine, the renderer
// and the debug JSON output. All coordinates are in points, measured from
// the top-left corner of the page with y growing downward. Placement Y is
// the text baseline.

// Result holds the fully positioned document.
type Result struct {
	PageWidth  float64   `json:"pageWidth"`
	PageHeight float64   `json:"pageHeight"`
	Margins    Margins   `json:"margins"`
	Pages      []Page    `json:"pages"`
	Warnings   []Warning `json:"warnings,omitempty"`
}

// Page carries every placement allocated to one page.
type Page struct {
	Number int         `json:"number"`
	Texts  []Placement `json:"texts"`
}

// Placement is one run of text in a single font face, positioned at its
// baseline. A word whose styling changes mid-word becomes several
// placements sharing a baseline with no intervening space.
type Placement struct {
	Text   string            `json:"text"`
	X      float64           `json:"x"`
	Y      float64           `json:"y"`
	Family string            `json:"family"`
	Style  typeset.FontStyle `json:"style"`
	Size   float64           `json:"size"`
}

// Margins are the default page margins the result was built with.
// Individual blocks may have moved them mid-document.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Warning is a non-fatal layout diagnostic, such as a tab region wider
// than the page allows.
type Warning struct {
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Msg  string `json:"msg"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d:%d: %s", w.Line, w.Col, w.Msg)
}
