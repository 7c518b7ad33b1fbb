package lexer

import "fmt"

// Kind classifies a lexical token.
type Kind int

const (
	// Text is a literal text run. Escapes are already resolved and single
	// newlines folded into spaces.
	Text Kind = iota
	// Command is a dot-prefixed directive; the name follows the dot.
	Command
	OpenBracket
	CloseBracket
	OpenBrace
	CloseBrace
	Pipe
	// Break separates paragraphs (two or more consecutive newlines).
	Break
	// Define is a variable definition: #define(name)(body). Body holds the
	// raw fragment source, to be lexed and parsed on its own.
	Define
	// VarRef is a variable reference: ~name.
	VarRef
	EOF
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "TEXT"
	case Command:
		return "COMMAND"
	case OpenBracket:
		return "OPEN_BRACKET"
	case CloseBracket:
		return "CLOSE_BRACKET"
	case OpenBrace:
		return "OPEN_BRACE"
	case CloseBrace:
		return "CLOSE_BRACE"
	case Pipe:
		return "PIPE"
	case Break:
		return "BREAK"
	case Define:
		return "DEFINE"
	case VarRef:
		return "VAR_REF"
	case EOF:
		return "EOF"
	default:
		return fmt.Sprintf("#%d", int(k))
	}
}

// Token is the unit of output of the lexer.
type Token struct {
	Kind Kind
	// Text holds the literal run for Text tokens.
	Text string
	// Name holds the command name for Command tokens and the variable name
	// for Define and VarRef tokens.
	Name string
	// Body holds the raw fragment source of a Define token.
	Body string
	Line int
	Col  int
}

// Error is a lexing failure with its source position.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}
