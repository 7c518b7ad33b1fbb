package parser

import (
	"github.com/burrodoc/burro/typeset"
)

// Document is the parsed source: the configuration collected from the
// preamble (everything before .start) and the ordered body blocks. It is
// immutable once Parse returns.
type Document struct {
	Config Config
	Blocks []Block
}

// Config carries the document-wide settings established in the preamble.
// Defaults seeds the typesetting state's per-key stacks; keys absent here
// fall back to the layout engine's built-in defaults.
type Config struct {
	PageWidth  float64 // points, 0 = default
	PageHeight float64 // points, 0 = default
	Defaults   map[typeset.Key]typeset.Value
	Tabs       map[string]typeset.Tab
	TabLists   map[string][]string
}

// BlockKind discriminates the Block variants.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockCommand
)

// Block is one top-level unit of the document body, in reading order.
type Block struct {
	Kind BlockKind
	Par  Fragment // BlockParagraph
	Cmd  Command  // BlockCommand
}

// Fragment is ordered inline content: text runs interleaved with inline
// commands. Variable references are spliced away during parsing, so a
// fragment in a finished Document never contains one.
type Fragment struct {
	Items []Item
}

// Empty reports whether the fragment holds no visible content.
func (f Fragment) Empty() bool {
	for _, item := range f.Items {
		if item.Kind != ItemText || !blank(item.Text) {
			return false
		}
	}
	return true
}

// ItemKind discriminates the Item variants.
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemCommand
	// itemVar only appears in unresolved variable bodies held by the
	// parser; Text carries the referenced name.
	itemVar
)

// Item is one element of a Fragment.
type Item struct {
	Kind ItemKind
	Text string
	Cmd  *Command
}

// CmdKind discriminates the closed set of command shapes. Argument shapes
// are validated during parsing, so the layout walk can dispatch on kind
// without re-checking.
type CmdKind int

const (
	// CmdSet pushes, adjusts, or resets one typesetting setting.
	CmdSet CmdKind = iota
	// CmdStyled applies a font style or quoting to its argument fragment,
	// then restores the previous style.
	CmdStyled
	CmdPageBreak
	CmdLoadTabs
	CmdUseTab
	CmdNextTab
	CmdPreviousTab
	CmdQuitTabs
)

// SetArg is the argument of a CmdSet command: an explicit value, a relative
// adjustment, or the "-" reset.
type SetArg struct {
	Reset    bool
	Relative bool
	Value    typeset.Value
}

// Command is a parsed directive with its typed payload.
type Command struct {
	Name string
	Line int
	Col  int
	Kind CmdKind

	Key typeset.Key // CmdSet
	Set SetArg      // CmdSet

	Style typeset.FontStyle // CmdStyled: style bits to apply
	Or    bool              // CmdStyled: OR Style into the current style
	Quote bool              // CmdStyled: wrap the argument in curly quotes
	Arg   *Fragment         // CmdStyled, may be nil for an argless directive

	TabName string // CmdLoadTabs, CmdUseTab
}
