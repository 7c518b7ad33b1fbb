package parser

import (
	"fmt"

	"github.com/burrodoc/burro/lexer"
)

// varTable collects #define(name)(body) fragments during the parser's first
// pass. Bodies are stored unresolved (they may reference variables defined
// later in the source) and spliced on demand during tree construction.
type varTable struct {
	frags map[string]Fragment
	def   map[string]lexer.Token // definition site, for error reporting
}

func newVarTable() *varTable {
	return &varTable{
		frags: map[string]Fragment{},
		def:   map[string]lexer.Token{},
	}
}

func (v *varTable) define(tok lexer.Token, frag Fragment) error {
	if _, ok := v.frags[tok.Name]; ok {
		return errAtf(tok, "%w: %q already defined at line %d", ErrRedefinedVariable,
			tok.Name, v.def[tok.Name].Line)
	}
	v.frags[tok.Name] = frag
	v.def[tok.Name] = tok
	return nil
}

// resolve returns a fresh copy of the named fragment with every nested
// variable reference spliced in. seen guards against definition cycles.
func (v *varTable) resolve(tok lexer.Token, seen map[string]bool) (Fragment, error) {
	name := tok.Name
	frag, ok := v.frags[name]
	if !ok {
		return Fragment{}, errAtf(tok, "%w: ~%s", ErrUndefinedVariable, name)
	}
	if seen[name] {
		return Fragment{}, errAtf(tok, "%w: ~%s", ErrVariableCycle, name)
	}
	seen[name] = true
	defer delete(seen, name)
	return v.splice(frag, tok, seen)
}

func (v *varTable) splice(frag Fragment, tok lexer.Token, seen map[string]bool) (Fragment, error) {
	out := Fragment{Items: make([]Item, 0, len(frag.Items))}
	for _, item := range frag.Items {
		switch item.Kind {
		case itemVar:
			inner, err := v.resolve(lexer.Token{
				Kind: lexer.VarRef, Name: item.Text, Line: tok.Line, Col: tok.Col,
			}, seen)
			if err != nil {
				return Fragment{}, err
			}
			out.Items = append(out.Items, inner.Items...)
		case ItemCommand:
			cmd := *item.Cmd
			if item.Cmd.Arg != nil {
				arg, err := v.splice(*item.Cmd.Arg, tok, seen)
				if err != nil {
					return Fragment{}, err
				}
				cmd.Arg = &arg
			}
			out.Items = append(out.Items, Item{Kind: ItemCommand, Cmd: &cmd})
		default:
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (v *varTable) String() string {
	return fmt.Sprintf("varTable(%d definitions)", len(v.frags))
}
