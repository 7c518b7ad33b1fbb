package parser

import (
	"errors"
	"fmt"

	"github.com/burrodoc/burro/lexer"
)

// Sentinel categories for parse failures; each is wrapped in an Error
// carrying the source position.
var (
	ErrUnknownCommand       = errors.New("unknown command")
	ErrUnmatchedDelimiter   = errors.New("unmatched delimiter")
	ErrUnexpectedArgument   = errors.New("unexpected argument")
	ErrMissingArgument      = errors.New("missing argument")
	ErrUndefinedVariable    = errors.New("undefined variable")
	ErrRedefinedVariable    = errors.New("variable defined twice")
	ErrVariableCycle        = errors.New("variable definitions form a cycle")
	ErrInvalidConfiguration = errors.New("invalid document configuration")
	ErrDuplicateTab         = errors.New("duplicate tab definition")
	ErrTabDefInBody         = errors.New("tab definition in document body")
	ErrTabListInBody        = errors.New("tab list in document body")
)

// Error is a parse failure with its source position.
type Error struct {
	Line int
	Col  int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: %v", e.Line, e.Col, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errAt(tok lexer.Token, err error) error {
	return &Error{Line: tok.Line, Col: tok.Col, Err: err}
}

func errAtf(tok lexer.Token, format string, args ...any) error {
	return &Error{Line: tok.Line, Col: tok.Col, Err: fmt.Errorf(format, args...)}
}
