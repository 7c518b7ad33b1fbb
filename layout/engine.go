package layout

import (
	"fmt"
	"unicode"

	"github.com/burrodoc/burro/parser"
	"github.com/burrodoc/burro/typeset"
)

// Built-in defaults used when the configuration leaves a setting unset.
// Page dimensions are US Letter in points.
const (
	DefaultPageWidth  = 612.0
	DefaultPageHeight = 792.0
	DefaultMargin     = 72.0
	DefaultPtSize     = 12.0

	leadingFactor = 1.2
)

// DefaultFamily is the family name assumed when the document never sets
// one. The font map must be able to resolve it.
const DefaultFamily = "default"

const (
	openQuote  = "“"
	closeQuote = "”"
)

// Build positions every paragraph of doc and allocates lines to pages.
func Build(doc *parser.Document, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("layout: nil document")
	}
	if opts.Metrics == nil {
		return nil, fmt.Errorf("layout: missing font metrics")
	}

	eng := newEngine(doc, opts.Metrics)
	for _, blk := range doc.Blocks {
		var err error
		switch blk.Kind {
		case parser.BlockCommand:
			err = eng.applyCommand(blk.Cmd)
		case parser.BlockParagraph:
			err = eng.paragraph(blk.Par)
		}
		if err != nil {
			return nil, err
		}
	}
	return eng.result(), nil
}

// mark remembers a vertical position so tab columns can rewind to the top
// of their environment and quitting can resume below the deepest column.
type mark struct {
	page  int
	y     float64
	fresh bool
}

func (m mark) below(o mark) bool {
	return m.page > o.page || (m.page == o.page && m.y > o.y)
}

type engine struct {
	doc   *parser.Document
	met   Metrics
	st    *typeset.State
	tabs  *typeset.Tabs
	pageW float64
	pageH float64

	pages []Page
	cur   int
	// cursorY is the baseline of the last placed line, or the content top
	// when fresh is set and nothing has been placed on the page yet.
	cursorY float64
	fresh   bool

	envStart mark
	envMax   mark

	warnings []Warning
}

func newEngine(doc *parser.Document, met Metrics) *engine {
	pageW := doc.Config.PageWidth
	pageH := doc.Config.PageHeight
	if pageW <= 0 {
		pageW = DefaultPageWidth
	}
	if pageH <= 0 {
		pageH = DefaultPageHeight
	}

	defaults := map[typeset.Key]typeset.Value{
		typeset.KeyMarginTop:    typeset.Points(DefaultMargin),
		typeset.KeyMarginBottom: typeset.Points(DefaultMargin),
		typeset.KeyMarginLeft:   typeset.Points(DefaultMargin),
		typeset.KeyMarginRight:  typeset.Points(DefaultMargin),
		typeset.KeyPtSize:       typeset.Points(DefaultPtSize),
		typeset.KeyLeading:      {Auto: true},
		typeset.KeyParSpace:     {Auto: true},
		typeset.KeyParIndent:    typeset.Points(0),
		typeset.KeySpaceWidth:   {Auto: true},
		typeset.KeyAlign:        {Align: typeset.AlignLeft},
		typeset.KeyFamily:       {Str: DefaultFamily},
		typeset.KeyFont:         {Style: typeset.StyleRoman},
	}
	for key, val := range doc.Config.Defaults {
		defaults[key] = val
	}

	e := &engine{
		doc:   doc,
		met:   met,
		st:    typeset.NewState(defaults),
		tabs:  typeset.NewTabs(doc.Config.Tabs, doc.Config.TabLists),
		pageW: pageW,
		pageH: pageH,
	}
	e.newPage()
	return e
}

func (e *engine) result() *Result {
	return &Result{
		PageWidth:  e.pageW,
		PageHeight: e.pageH,
		Margins: Margins{
			Top:    e.st.Get(typeset.KeyMarginTop).Pts,
			Right:  e.st.Get(typeset.KeyMarginRight).Pts,
			Bottom: e.st.Get(typeset.KeyMarginBottom).Pts,
			Left:   e.st.Get(typeset.KeyMarginLeft).Pts,
		},
		Pages:    e.pages,
		Warnings: e.warnings,
	}
}

// Derived settings. Leading and paragraph spacing track the point size
// until the document sets them explicitly.

func (e *engine) size() float64 { return e.st.Get(typeset.KeyPtSize).Pts }

func (e *engine) leading() float64 {
	v := e.st.Get(typeset.KeyLeading)
	if v.Auto {
		return leadingFactor * e.size()
	}
	return v.Pts
}

func (e *engine) parSpace() float64 {
	v := e.st.Get(typeset.KeyParSpace)
	if v.Auto {
		return e.leading()
	}
	return v.Pts
}

func (e *engine) parIndent() float64 { return e.st.Get(typeset.KeyParIndent).Pts }

// autoValue resolves the derived default for a key so relative adjustments
// have a base to add to.
func (e *engine) autoValue(key typeset.Key) float64 {
	switch key {
	case typeset.KeyLeading:
		return leadingFactor * e.size()
	case typeset.KeyParSpace:
		return e.parSpace()
	case typeset.KeySpaceWidth:
		w, err := e.met.Advance(e.family(), e.st.Get(typeset.KeyFont).Style, e.size(), " ")
		if err != nil {
			return 0
		}
		return w
	}
	return 0
}

func (e *engine) family() string { return e.st.Get(typeset.KeyFamily).Str }

// region returns the left edge and width of the area lines flow into,
// honouring the selected tab when a tab environment is active.
func (e *engine) region() (x, width float64) {
	left := e.st.Get(typeset.KeyMarginLeft).Pts
	right := e.st.Get(typeset.KeyMarginRight).Pts
	usable := e.pageW - left - right
	if tab, ok := e.tabs.Current(); ok {
		w := tab.Length
		if w <= 0 {
			w = usable - tab.Indent
		}
		return left + tab.Indent, w
	}
	return left, usable
}

func (e *engine) align() typeset.Alignment {
	if tab, ok := e.tabs.Current(); ok {
		return tab.Direction
	}
	return e.st.Get(typeset.KeyAlign).Align
}

func (e *engine) applyCommand(cmd parser.Command) error {
	switch cmd.Kind {
	case parser.CmdSet:
		return e.applySet(cmd)
	case parser.CmdPageBreak:
		e.newPage()
		return nil
	case parser.CmdLoadTabs:
		if err := e.tabs.Load(cmd.TabName, e.st); err != nil {
			return cmdErr(cmd, err)
		}
		e.envStart = e.here()
		e.envMax = e.envStart
		return nil
	case parser.CmdUseTab:
		tab, err := e.tabs.Select(cmd.TabName)
		if err != nil {
			return cmdErr(cmd, err)
		}
		e.rewind()
		e.checkTabWidth(cmd, tab)
		return nil
	case parser.CmdNextTab:
		tab, err := e.tabs.Next()
		if err != nil {
			return cmdErr(cmd, err)
		}
		e.rewind()
		e.checkTabWidth(cmd, tab)
		return nil
	case parser.CmdPreviousTab:
		tab, err := e.tabs.Previous()
		if err != nil {
			return cmdErr(cmd, err)
		}
		e.rewind()
		e.checkTabWidth(cmd, tab)
		return nil
	case parser.CmdQuitTabs:
		if err := e.tabs.Quit(e.st); err != nil {
			return cmdErr(cmd, err)
		}
		e.cur = e.envMax.page
		e.cursorY = e.envMax.y
		e.fresh = e.envMax.fresh
		return nil
	}
	return cmdErr(cmd, fmt.Errorf("unsupported command"))
}

func (e *engine) applySet(cmd parser.Command) error {
	if cmd.Set.Reset {
		if err := e.st.Pop(cmd.Key); err != nil {
			return cmdErr(cmd, err)
		}
		return nil
	}
	v := cmd.Set.Value
	if cmd.Set.Relative {
		curr := e.st.Get(cmd.Key)
		base := curr.Pts
		if curr.Auto {
			base = e.autoValue(cmd.Key)
		}
		v = typeset.Points(base + v.Pts)
	}
	e.st.Push(cmd.Key, v)
	return nil
}

func (e *engine) here() mark { return mark{page: e.cur, y: e.cursorY, fresh: e.fresh} }

// rewind moves the cursor back to the top of the tab environment so the
// newly selected column starts level with its siblings.
func (e *engine) rewind() {
	e.cur = e.envStart.page
	e.cursorY = e.envStart.y
	e.fresh = e.envStart.fresh
}

func (e *engine) noteProgress() {
	if !e.tabs.Active() {
		return
	}
	if h := e.here(); h.below(e.envMax) {
		e.envMax = h
	}
}

func (e *engine) checkTabWidth(cmd parser.Command, tab typeset.Tab) {
	left := e.st.Get(typeset.KeyMarginLeft).Pts
	right := e.st.Get(typeset.KeyMarginRight).Pts
	usable := e.pageW - left - right
	if tab.Indent+tab.Length > usable {
		e.warnings = append(e.warnings, Warning{
			Line: cmd.Line,
			Col:  cmd.Col,
			Msg:  fmt.Sprintf("tab %q exceeds the usable page width", tab.Name),
		})
	}
}

// newPage moves the cursor to the top of the next page, reusing pages a
// deeper tab column has already created.
func (e *engine) newPage() {
	if e.cur+1 < len(e.pages) {
		e.cur++
	} else {
		e.pages = append(e.pages, Page{Number: len(e.pages) + 1})
		e.cur = len(e.pages) - 1
	}
	e.cursorY = e.st.Get(typeset.KeyMarginTop).Pts
	e.fresh = true
}

// segment is a run of word text in one resolved face.
type segment struct {
	text   string
	family string
	style  typeset.FontStyle
	size   float64
	width  float64
}

// word is a breakable unit: segments glued together with no internal
// spacing. spaceBefore is the width of the gap separating it from the
// previous word on the same line.
type word struct {
	segs        []segment
	width       float64
	spaceBefore float64
}

func (e *engine) paragraph(frag parser.Fragment) error {
	w := &parWalker{e: e}
	if err := w.walk(frag); err != nil {
		return err
	}
	w.endWord()
	if len(w.words) == 0 {
		return nil
	}

	x0, width := e.region()
	quad := true
	if tab, ok := e.tabs.Current(); ok {
		quad = tab.Quad
	}
	lines := breakLines(w.words, width, e.parIndent(), quad)
	align := e.align()
	for i, ln := range lines {
		e.advanceLine(i == 0)
		e.placeLine(ln, x0, width, align, i == len(lines)-1)
	}
	return nil
}

// advanceLine moves the cursor down one baseline, inserting paragraph
// spacing before a paragraph's first line and breaking the page when the
// new baseline would cross the bottom margin.
func (e *engine) advanceLine(first bool) {
	step := e.leading()
	if first && !e.fresh {
		step += e.parSpace()
	}
	y := e.cursorY + step
	bottom := e.pageH - e.st.Get(typeset.KeyMarginBottom).Pts
	if y > bottom && !e.fresh {
		e.newPage()
		y = e.cursorY + e.leading()
	}
	e.cursorY = y
	e.fresh = false
	e.noteProgress()
}

func (e *engine) placeLine(ln line, x0, width float64, align typeset.Alignment, last bool) {
	natural := 0.0
	for i, w := range ln.words {
		if i > 0 {
			natural += w.spaceBefore
		}
		natural += w.width
	}

	x := x0 + ln.indent
	extraGap := 0.0
	switch align {
	case typeset.AlignCenter:
		x = x0 + (width-natural)/2
	case typeset.AlignRight:
		x = x0 + width - natural
	case typeset.AlignJustify:
		if gaps := len(ln.words) - 1; !last && gaps > 0 {
			if slack := width - ln.indent - natural; slack > 0 {
				extraGap = slack / float64(gaps)
			}
		}
	}

	y := e.cursorY
	texts := e.pages[e.cur].Texts
	for i, w := range ln.words {
		if i > 0 {
			x += w.spaceBefore + extraGap
		}
		for _, seg := range w.segs {
			texts = append(texts, Placement{
				Text:   seg.text,
				X:      x,
				Y:      y,
				Family: seg.family,
				Style:  seg.style,
				Size:   seg.size,
			})
			x += seg.width
		}
	}
	e.pages[e.cur].Texts = texts
}

type line struct {
	words  []word
	indent float64
}

// breakLines fills lines greedily. The first line is narrowed by the
// paragraph indent. A word wider than the whole line is placed alone and
// allowed to overflow. With quad off (a non-wrapping tab), everything goes
// on one line.
func breakLines(words []word, width, indent float64, quad bool) []line {
	if indent >= width {
		indent = 0
	}
	if !quad {
		return []line{{words: words, indent: indent}}
	}

	var lines []line
	cur := line{indent: indent}
	avail := width - indent
	used := 0.0
	for _, w := range words {
		need := w.width
		if len(cur.words) > 0 {
			need += w.spaceBefore
		}
		if len(cur.words) > 0 && used+need > avail {
			lines = append(lines, cur)
			cur = line{}
			avail = width
			used = 0
			need = w.width
		}
		cur.words = append(cur.words, w)
		used += need
	}
	if len(cur.words) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// parWalker flattens a paragraph fragment into words, applying inline
// settings as it goes. Style spans carry their face on an override stack
// so the surrounding face returns when the span closes; a bare style
// directive instead pushes onto the typesetting state and persists.
type parWalker struct {
	e        *engine
	words    []word
	cur      word
	building bool
	styles   []typeset.FontStyle
}

func (w *parWalker) style() typeset.FontStyle {
	if n := len(w.styles); n > 0 {
		return w.styles[n-1]
	}
	return w.e.st.Get(typeset.KeyFont).Style
}

func (w *parWalker) walk(frag parser.Fragment) error {
	for _, item := range frag.Items {
		switch item.Kind {
		case parser.ItemText:
			if err := w.text(item.Text); err != nil {
				return err
			}
		case parser.ItemCommand:
			if err := w.command(item.Cmd); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *parWalker) command(cmd *parser.Command) error {
	switch cmd.Kind {
	case parser.CmdSet:
		return w.e.applySet(*cmd)
	case parser.CmdStyled:
		style := cmd.Style
		if cmd.Or {
			style |= w.style()
		}
		if cmd.Quote {
			style = w.style()
		}
		if cmd.Arg == nil {
			if cmd.Quote {
				return nil
			}
			w.e.st.Push(typeset.KeyFont, typeset.Value{Style: style})
			return nil
		}
		if cmd.Quote {
			if err := w.append(openQuote); err != nil {
				return err
			}
		}
		w.styles = append(w.styles, style)
		err := w.walk(*cmd.Arg)
		w.styles = w.styles[:len(w.styles)-1]
		if err != nil {
			return err
		}
		if cmd.Quote {
			return w.append(closeQuote)
		}
		return nil
	}
	return cmdErr(*cmd, fmt.Errorf("unsupported command in paragraph"))
}

// text splits on whitespace runs, collapsing each run to a single
// inter-word gap measured in the face active at the gap.
func (w *parWalker) text(s string) error {
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				if err := w.append(s[start:i]); err != nil {
					return err
				}
				start = -1
			}
			w.endWord()
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		return w.append(s[start:])
	}
	return nil
}

// append glues run onto the word being built, measuring it in the current
// face. Consecutive appends with no intervening space merge when the face
// matches.
func (w *parWalker) append(run string) error {
	if run == "" {
		return nil
	}
	family := w.e.family()
	style := w.style()
	size := w.e.size()

	adv, err := w.e.met.Advance(family, style, size, run)
	if err != nil {
		return fmt.Errorf("measuring %q: %w", run, err)
	}

	if !w.building {
		w.cur = word{}
		if len(w.words) > 0 {
			gap, err := w.gapWidth(family, style, size)
			if err != nil {
				return err
			}
			w.cur.spaceBefore = gap
		}
		w.building = true
	}

	if n := len(w.cur.segs); n > 0 {
		prev := &w.cur.segs[n-1]
		if prev.family == family && prev.style == style && prev.size == size {
			prev.text += run
			prev.width += adv
			w.cur.width += adv
			return nil
		}
	}
	w.cur.segs = append(w.cur.segs, segment{
		text:   run,
		family: family,
		style:  style,
		size:   size,
		width:  adv,
	})
	w.cur.width += adv
	return nil
}

func (w *parWalker) gapWidth(family string, style typeset.FontStyle, size float64) (float64, error) {
	if v := w.e.st.Get(typeset.KeySpaceWidth); !v.Auto {
		return v.Pts, nil
	}
	adv, err := w.e.met.Advance(family, style, size, " ")
	if err != nil {
		return 0, fmt.Errorf("measuring space: %w", err)
	}
	return adv, nil
}

func (w *parWalker) endWord() {
	if !w.building {
		return
	}
	if len(w.cur.segs) > 0 {
		w.words = append(w.words, w.cur)
	}
	w.cur = word{}
	w.building = false
}

func cmdErr(cmd parser.Command, err error) error {
	return fmt.Errorf("line %d:%d: .%s: %w", cmd.Line, cmd.Col, cmd.Name, err)
}
