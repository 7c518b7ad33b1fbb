// Package parser turns the lexer's token stream into a Document tree.
//
// Parsing runs in two passes: the first collects every #define in the
// source into a variable table (definitions may appear anywhere, before or
// after their references), the second builds the tree, splicing a fresh
// copy of the defined fragment into each reference site.
package parser

import (
	"strings"

	"github.com/burrodoc/burro/lexer"
	"github.com/burrodoc/burro/typeset"
	"github.com/burrodoc/burro/units"
)

// Parse lexes and parses a complete Burro source.
func Parse(src string) (*Document, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-lexed token stream.
func ParseTokens(toks []lexer.Token) (*Document, error) {
	p := &parser{toks: toks, vars: newVarTable()}
	if err := p.collectDefinitions(); err != nil {
		return nil, err
	}
	p.splicing = true

	doc := &Document{Config: Config{
		Defaults: map[typeset.Key]typeset.Value{},
		Tabs:     map[string]typeset.Tab{},
		TabLists: map[string][]string{},
	}}
	if p.hasStart() {
		if err := p.parseConfig(doc); err != nil {
			return nil, err
		}
	}
	if err := p.parseBlocks(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type parser struct {
	toks     []lexer.Token
	pos      int
	vars     *varTable
	splicing bool
}

func (p *parser) peek() lexer.Token { return p.toks[p.pos] }

func (p *parser) next() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// collectDefinitions is the first pass: every Define token's body is parsed
// into an unresolved fragment and registered. Redefinition is an error.
func (p *parser) collectDefinitions() error {
	for _, tok := range p.toks {
		if tok.Kind != lexer.Define {
			continue
		}
		body, err := lexer.Lex(tok.Body)
		if err != nil {
			return errAtf(tok, "in definition of %q: %v", tok.Name, err)
		}
		sub := &parser{toks: body, vars: p.vars}
		frag, err := sub.parseFragment(ctxBody, tok)
		if err != nil {
			return errAtf(tok, "in definition of %q: %v", tok.Name, err)
		}
		if err := p.vars.define(tok, frag); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) hasStart() bool {
	for _, tok := range p.toks {
		if tok.Kind == lexer.Command && tok.Name == "start" {
			return true
		}
	}
	return false
}

// parseConfig consumes the preamble up to and including .start. Only
// configuration commands, tab definitions, and tab lists may appear here.
func (p *parser) parseConfig(doc *Document) error {
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.EOF:
			return errAt(tok, ErrInvalidConfiguration)
		case lexer.Break, lexer.Define:
			p.next()
		case lexer.Text:
			if !blank(tok.Text) {
				return errAtf(tok, "%w: text before .start", ErrInvalidConfiguration)
			}
			p.next()
		case lexer.Command:
			if tok.Name == "start" {
				p.next()
				return nil
			}
			if err := p.parseConfigCommand(doc); err != nil {
				return err
			}
		default:
			return errAtf(tok, "%w: unexpected %s", ErrInvalidConfiguration, tok.Kind)
		}
	}
}

func (p *parser) parseConfigCommand(doc *Document) error {
	tok := p.next()
	name := tok.Name
	switch name {
	case "page_width", "page_height":
		val, err := p.unitValue(tok, false)
		if err != nil {
			return err
		}
		if name == "page_width" {
			doc.Config.PageWidth = val.Points
		} else {
			doc.Config.PageHeight = val.Points
		}
		return nil
	case "margins":
		val, err := p.unitValue(tok, false)
		if err != nil {
			return err
		}
		for _, key := range typeset.MarginKeys {
			doc.Config.Defaults[key] = typeset.Points(val.Points)
		}
		return nil
	case "margin_top", "margin_bottom", "margin_left", "margin_right",
		"pt_size", "leading", "par_space", "par_indent", "space_width":
		val, err := p.unitValue(tok, false)
		if err != nil {
			return err
		}
		doc.Config.Defaults[typeset.Key(name)] = typeset.Points(val.Points)
		return nil
	case "family":
		raw, err := p.bracketValue(tok)
		if err != nil {
			return err
		}
		doc.Config.Defaults[typeset.KeyFamily] = typeset.Value{Str: raw}
		return nil
	case "font":
		raw, err := p.bracketValue(tok)
		if err != nil {
			return err
		}
		style, err := typeset.ParseFontStyle(raw)
		if err != nil {
			return errAt(tok, err)
		}
		doc.Config.Defaults[typeset.KeyFont] = typeset.Value{Style: style}
		return nil
	case "align":
		raw, err := p.bracketValue(tok)
		if err != nil {
			return err
		}
		align, err := typeset.ParseAlignment(raw)
		if err != nil {
			return errAt(tok, err)
		}
		doc.Config.Defaults[typeset.KeyAlign] = typeset.Value{Align: align}
		return nil
	case "tab":
		return p.parseTabDef(tok, doc)
	case "tab_list":
		return p.parseTabList(tok, doc)
	default:
		return errAtf(tok, "%w: .%s is not a configuration command", ErrInvalidConfiguration, name)
	}
}

// parseTabDef handles `.tab{.indent[..] .direction[..] .length[..]
// .quad[..]}[name]` in the preamble.
func (p *parser) parseTabDef(cmdTok lexer.Token, doc *Document) error {
	if p.peek().Kind != lexer.OpenBrace {
		return errAtf(cmdTok, "%w: .tab requires a brace block", ErrMissingArgument)
	}
	p.next()

	tab := typeset.Tab{Direction: typeset.AlignLeft, Quad: true}
	seen := map[string]bool{}
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.CloseBrace:
			p.next()
			name, err := p.bracketValue(cmdTok)
			if err != nil {
				return err
			}
			tab.Name = name
			if _, ok := doc.Config.Tabs[name]; ok {
				return errAtf(cmdTok, "%w: %q", ErrDuplicateTab, name)
			}
			doc.Config.Tabs[name] = tab
			return nil
		case lexer.Break:
			p.next()
		case lexer.Text:
			if !blank(tok.Text) {
				return errAtf(tok, "unexpected text %q in tab definition", strings.TrimSpace(tok.Text))
			}
			p.next()
		case lexer.Command:
			p.next()
			if seen[tok.Name] {
				return errAtf(tok, "repeated key .%s in tab definition", tok.Name)
			}
			seen[tok.Name] = true
			switch tok.Name {
			case "indent", "length":
				val, err := p.unitValue(tok, false)
				if err != nil {
					return err
				}
				if tok.Name == "indent" {
					tab.Indent = val.Points
				} else {
					tab.Length = val.Points
				}
			case "direction":
				raw, err := p.bracketValue(tok)
				if err != nil {
					return err
				}
				dir, err := typeset.ParseAlignment(raw)
				if err != nil {
					return errAt(tok, err)
				}
				tab.Direction = dir
			case "quad":
				raw, err := p.bracketValue(tok)
				if err != nil {
					return err
				}
				switch raw {
				case "true":
					tab.Quad = true
				case "false":
					tab.Quad = false
				default:
					return errAtf(tok, "invalid boolean %q for .quad", raw)
				}
			default:
				return errAtf(tok, "%w .%s in tab definition", ErrUnknownCommand, tok.Name)
			}
		default:
			return errAtf(tok, "unexpected %s in tab definition", tok.Kind)
		}
	}
}

// parseTabList handles `.tab_list{.tab[a].tab[b]}[name]`: an ordered list
// of tab references registered under the bracket name.
func (p *parser) parseTabList(cmdTok lexer.Token, doc *Document) error {
	if p.peek().Kind != lexer.OpenBrace {
		return errAtf(cmdTok, "%w: .tab_list requires a brace block", ErrMissingArgument)
	}
	p.next()

	var tabs []string
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.CloseBrace:
			p.next()
			name, err := p.bracketValue(cmdTok)
			if err != nil {
				return err
			}
			doc.Config.TabLists[name] = tabs
			return nil
		case lexer.Break:
			p.next()
		case lexer.Text:
			if !blank(tok.Text) {
				return errAtf(tok, "unexpected text %q in tab list", strings.TrimSpace(tok.Text))
			}
			p.next()
		case lexer.Command:
			if tok.Name != "tab" {
				return errAtf(tok, "%w .%s in tab list", ErrUnknownCommand, tok.Name)
			}
			p.next()
			ref, err := p.bracketValue(tok)
			if err != nil {
				return err
			}
			tabs = append(tabs, ref)
		default:
			return errAtf(tok, "unexpected %s in tab list", tok.Kind)
		}
	}
}

// blockCommand reports whether name forms its own Block rather than inline
// paragraph content.
func blockCommand(name string) bool {
	switch name {
	case "margins", "margin_top", "margin_bottom", "margin_left", "margin_right",
		"align", "leading", "par_space", "par_indent", "space_width",
		"page_break", "page_width", "page_height",
		"load_tabs", "tab", "tab_list", "next_tab", "previous_tab", "quit_tabs":
		return true
	}
	return false
}

func (p *parser) parseBlocks(doc *Document) error {
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.EOF:
			return nil
		case lexer.Break, lexer.Define:
			p.next()
		case lexer.Text:
			if blank(tok.Text) {
				p.next()
				continue
			}
			if err := p.parseParagraph(doc); err != nil {
				return err
			}
		case lexer.VarRef:
			if err := p.parseParagraph(doc); err != nil {
				return err
			}
		case lexer.Command:
			if tok.Name == "start" {
				return errAtf(tok, "unexpected .start in document body")
			}
			if blockCommand(tok.Name) {
				blocks, err := p.parseBlockCommand()
				if err != nil {
					return err
				}
				doc.Blocks = append(doc.Blocks, blocks...)
			} else if err := p.parseParagraph(doc); err != nil {
				return err
			}
		case lexer.CloseBracket, lexer.CloseBrace:
			return errAtf(tok, "%w: unexpected %s", ErrUnmatchedDelimiter, tok.Kind)
		default:
			return errAtf(tok, "unexpected %s", tok.Kind)
		}
	}
}

func (p *parser) parseParagraph(doc *Document) error {
	frag, err := p.parseFragment(ctxParagraph, p.peek())
	if err != nil {
		return err
	}
	if !frag.Empty() {
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Par: frag})
	}
	return nil
}

// parseBlockCommand parses one body-level command. The pseudo-command
// .margins expands into all four per-side margin settings.
func (p *parser) parseBlockCommand() ([]Block, error) {
	tok := p.next()
	name := tok.Name
	cmd := Command{Name: name, Line: tok.Line, Col: tok.Col}

	switch name {
	case "page_break":
		cmd.Kind = CmdPageBreak
		return p.finishNoArg(tok, cmd)
	case "next_tab":
		cmd.Kind = CmdNextTab
		return p.finishNoArg(tok, cmd)
	case "previous_tab":
		cmd.Kind = CmdPreviousTab
		return p.finishNoArg(tok, cmd)
	case "quit_tabs":
		cmd.Kind = CmdQuitTabs
		return p.finishNoArg(tok, cmd)
	case "load_tabs":
		arg, err := p.bracketValue(tok)
		if err != nil {
			return nil, err
		}
		cmd.Kind = CmdLoadTabs
		cmd.TabName = arg
		return []Block{{Kind: BlockCommand, Cmd: cmd}}, nil
	case "tab":
		if p.peek().Kind == lexer.OpenBrace {
			return nil, errAt(tok, ErrTabDefInBody)
		}
		arg, err := p.bracketValue(tok)
		if err != nil {
			return nil, err
		}
		cmd.Kind = CmdUseTab
		cmd.TabName = arg
		return []Block{{Kind: BlockCommand, Cmd: cmd}}, nil
	case "tab_list":
		return nil, errAt(tok, ErrTabListInBody)
	case "page_width", "page_height":
		return nil, errAtf(tok, ".%s is only allowed in the document configuration", name)
	case "align":
		raw, err := p.bracketValue(tok)
		if err != nil {
			return nil, err
		}
		cmd.Kind = CmdSet
		cmd.Key = typeset.KeyAlign
		if raw == "-" {
			cmd.Set = SetArg{Reset: true}
		} else {
			align, err := typeset.ParseAlignment(raw)
			if err != nil {
				return nil, errAt(tok, err)
			}
			cmd.Set = SetArg{Value: typeset.Value{Align: align}}
		}
		return []Block{{Kind: BlockCommand, Cmd: cmd}}, nil
	case "margins":
		set, err := p.unitSetArg(tok)
		if err != nil {
			return nil, err
		}
		blocks := make([]Block, 0, len(typeset.MarginKeys))
		for _, key := range typeset.MarginKeys {
			c := cmd
			c.Kind = CmdSet
			c.Key = key
			c.Set = set
			blocks = append(blocks, Block{Kind: BlockCommand, Cmd: c})
		}
		return blocks, nil
	default:
		// remaining block commands are unit settings on their own key
		set, err := p.unitSetArg(tok)
		if err != nil {
			return nil, err
		}
		cmd.Kind = CmdSet
		cmd.Key = typeset.Key(name)
		cmd.Set = set
		return []Block{{Kind: BlockCommand, Cmd: cmd}}, nil
	}
}

func (p *parser) finishNoArg(tok lexer.Token, cmd Command) ([]Block, error) {
	if p.peek().Kind == lexer.OpenBracket || p.peek().Kind == lexer.OpenBrace {
		return nil, errAtf(tok, "%w: .%s takes no argument", ErrUnexpectedArgument, cmd.Name)
	}
	return []Block{{Kind: BlockCommand, Cmd: cmd}}, nil
}

// unitSetArg parses a bracketed measurement argument: a value, a +/-
// relative adjustment, or the "-" reset.
func (p *parser) unitSetArg(cmdTok lexer.Token) (SetArg, error) {
	raw, err := p.bracketValue(cmdTok)
	if err != nil {
		return SetArg{}, err
	}
	if raw == "-" {
		return SetArg{Reset: true}, nil
	}
	val, err := units.Parse(raw)
	if err != nil {
		return SetArg{}, errAt(cmdTok, err)
	}
	return SetArg{Relative: val.Relative, Value: typeset.Points(val.Points)}, nil
}

// unitValue parses a bracketed measurement that must be absolute.
func (p *parser) unitValue(cmdTok lexer.Token, allowRelative bool) (units.Value, error) {
	raw, err := p.bracketValue(cmdTok)
	if err != nil {
		return units.Value{}, err
	}
	val, err := units.Parse(raw)
	if err != nil {
		return units.Value{}, errAt(cmdTok, err)
	}
	if val.Relative && !allowRelative {
		return units.Value{}, errAtf(cmdTok, "relative value %q not allowed for .%s", raw, cmdTok.Name)
	}
	return val, nil
}

// bracketValue consumes a literal `[value]` argument.
func (p *parser) bracketValue(cmdTok lexer.Token) (string, error) {
	if p.peek().Kind != lexer.OpenBracket {
		return "", errAtf(cmdTok, "%w: expected [argument] after .%s", ErrMissingArgument, cmdTok.Name)
	}
	open := p.next()
	var sb strings.Builder
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.Text:
			sb.WriteString(tok.Text)
			p.next()
		case lexer.CloseBracket:
			p.next()
			val := strings.TrimSpace(sb.String())
			if val == "" {
				return "", errAtf(open, "%w: empty argument for .%s", ErrMissingArgument, cmdTok.Name)
			}
			return val, nil
		case lexer.Break, lexer.EOF:
			return "", errAtf(open, "%w: '[' opened at line %d is never closed", ErrUnmatchedDelimiter, open.Line)
		default:
			return "", errAtf(tok, "%w: unexpected %s in argument for .%s", ErrUnexpectedArgument, tok.Kind, cmdTok.Name)
		}
	}
}

// fragCtx tells parseFragment what terminates the fragment.
type fragCtx int

const (
	// ctxParagraph ends at a paragraph break or EOF.
	ctxParagraph fragCtx = iota
	// ctxBracket ends at the matching ']'; a break or EOF first is an
	// unmatched-delimiter error.
	ctxBracket
	// ctxInline ends at '|' (consumed) or at a break, ']' or EOF (left
	// for the enclosing context).
	ctxInline
	// ctxBody is a variable definition body: breaks fold to spaces.
	ctxBody
)

func (p *parser) parseFragment(ctx fragCtx, open lexer.Token) (Fragment, error) {
	var frag Fragment
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.Text:
			p.next()
			frag.Items = append(frag.Items, Item{Kind: ItemText, Text: tok.Text})
		case lexer.VarRef:
			p.next()
			if !p.splicing {
				frag.Items = append(frag.Items, Item{Kind: itemVar, Text: tok.Name})
				continue
			}
			resolved, err := p.vars.resolve(tok, map[string]bool{})
			if err != nil {
				return Fragment{}, err
			}
			frag.Items = append(frag.Items, resolved.Items...)
		case lexer.Define:
			p.next()
		case lexer.Command:
			cmd, err := p.parseInlineCommand()
			if err != nil {
				return Fragment{}, err
			}
			frag.Items = append(frag.Items, Item{Kind: ItemCommand, Cmd: cmd})
		case lexer.Pipe:
			if ctx == ctxInline {
				p.next()
				return frag, nil
			}
			return Fragment{}, errAtf(tok, "%w: unexpected '|'", ErrUnmatchedDelimiter)
		case lexer.CloseBracket:
			switch ctx {
			case ctxBracket:
				p.next()
				return frag, nil
			case ctxInline:
				return frag, nil
			default:
				return Fragment{}, errAtf(tok, "%w: unexpected ']'", ErrUnmatchedDelimiter)
			}
		case lexer.Break:
			switch ctx {
			case ctxParagraph:
				p.next()
				return frag, nil
			case ctxInline:
				return frag, nil
			case ctxBody:
				p.next()
				frag.Items = append(frag.Items, Item{Kind: ItemText, Text: " "})
			default:
				return Fragment{}, errAtf(open, "%w: '[' opened at line %d is never closed",
					ErrUnmatchedDelimiter, open.Line)
			}
		case lexer.EOF:
			if ctx == ctxBracket {
				return Fragment{}, errAtf(open, "%w: '[' opened at line %d is never closed",
					ErrUnmatchedDelimiter, open.Line)
			}
			return frag, nil
		default:
			return Fragment{}, errAtf(tok, "unexpected %s", tok.Kind)
		}
	}
}

// parseInlineCommand parses a command inside a paragraph: a style span, a
// quote, or an inline setting.
func (p *parser) parseInlineCommand() (*Command, error) {
	tok := p.next()
	name := tok.Name
	cmd := &Command{Name: name, Line: tok.Line, Col: tok.Col}

	switch name {
	case "bold", "italic", "roman", "quote":
		cmd.Kind = CmdStyled
		switch name {
		case "bold":
			cmd.Style, cmd.Or = typeset.StyleBold, true
		case "italic":
			cmd.Style, cmd.Or = typeset.StyleItalic, true
		case "roman":
			cmd.Style = typeset.StyleRoman
		case "quote":
			cmd.Quote = true
			cmd.Or = true
		}
		arg, err := p.styleArgument(tok)
		if err != nil {
			return nil, err
		}
		cmd.Arg = arg
		return cmd, nil
	case "pt_size":
		set, err := p.unitSetArg(tok)
		if err != nil {
			return nil, err
		}
		cmd.Kind = CmdSet
		cmd.Key = typeset.KeyPtSize
		cmd.Set = set
		return cmd, nil
	case "font":
		raw, err := p.bracketValue(tok)
		if err != nil {
			return nil, err
		}
		cmd.Kind = CmdSet
		cmd.Key = typeset.KeyFont
		if raw == "-" {
			cmd.Set = SetArg{Reset: true}
		} else {
			style, err := typeset.ParseFontStyle(raw)
			if err != nil {
				return nil, errAt(tok, err)
			}
			cmd.Set = SetArg{Value: typeset.Value{Style: style}}
		}
		return cmd, nil
	case "family":
		raw, err := p.bracketValue(tok)
		if err != nil {
			return nil, err
		}
		cmd.Kind = CmdSet
		cmd.Key = typeset.KeyFamily
		if raw == "-" {
			cmd.Set = SetArg{Reset: true}
		} else {
			cmd.Set = SetArg{Value: typeset.Value{Str: raw}}
		}
		return cmd, nil
	default:
		if blockCommand(name) {
			return nil, errAtf(tok, ".%s is not allowed inside a paragraph", name)
		}
		return nil, errAtf(tok, "%w: .%s", ErrUnknownCommand, name)
	}
}

// styleArgument parses a style command's argument: a bracketed fragment, or
// an inline fragment running to the next '|' or paragraph break. A command
// immediately followed by a terminator carries no argument.
func (p *parser) styleArgument(cmdTok lexer.Token) (*Fragment, error) {
	switch p.peek().Kind {
	case lexer.OpenBrace:
		return nil, errAtf(cmdTok, "%w: .%s takes no brace block", ErrUnexpectedArgument, cmdTok.Name)
	case lexer.OpenBracket:
		open := p.next()
		frag, err := p.parseFragment(ctxBracket, open)
		if err != nil {
			return nil, err
		}
		return &frag, nil
	default:
		frag, err := p.parseFragment(ctxInline, cmdTok)
		if err != nil {
			return nil, err
		}
		if frag.Empty() && len(frag.Items) == 0 {
			return nil, nil
		}
		return &frag, nil
	}
}
