// Package lexer converts Burro markup source into a flat token stream.
//
// The scanner is hand-written: the grammar's escaping rules and the
// interaction between comments, newlines and paragraph breaks are easier to
// state directly than to encode in a declarative token grammar.
package lexer

import "strings"

// special reports whether c can be escaped with a backslash.
func special(c byte) bool {
	switch c {
	case '.', '[', ']', '{', '}', '|', '~', '\\':
		return true
	}
	return false
}

func identChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_'
}

type scanner struct {
	src  string
	pos  int
	line int
	col  int

	tokens []Token
	text   strings.Builder
	// position of the first rune of the pending text run
	textLine int
	textCol  int
}

// Lex scans the whole source and returns its token sequence, terminated by
// an EOF token. The returned slice is immutable output; callers may iterate
// it as many times as they like.
func Lex(src string) ([]Token, error) {
	s := &scanner{src: src, line: 1, col: 1}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.tokens, nil
}

func (s *scanner) errf(msg string) error {
	return &Error{Line: s.line, Col: s.col, Msg: msg}
}

func (s *scanner) peek() (byte, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

// advance consumes one byte and keeps the line/column counters current.
func (s *scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *scanner) appendText(c byte) {
	if s.text.Len() == 0 {
		s.textLine = s.line
		s.textCol = s.col
	}
	s.text.WriteByte(c)
}

func (s *scanner) flushText() {
	if s.text.Len() == 0 {
		return
	}
	s.tokens = append(s.tokens, Token{
		Kind: Text,
		Text: s.text.String(),
		Line: s.textLine,
		Col:  s.textCol,
	})
	s.text.Reset()
}

func (s *scanner) emit(k Kind, line, col int) {
	s.flushText()
	s.tokens = append(s.tokens, Token{Kind: k, Line: line, Col: col})
}

// commentLine reports whether the current position starts a comment line:
// the first non-blank character of the line is a semicolon.
func (s *scanner) commentLine() bool {
	if s.col != 1 {
		return false
	}
	for i := s.pos; i < len(s.src); i++ {
		switch s.src[i] {
		case ' ', '\t':
			continue
		case ';':
			return true
		default:
			return false
		}
	}
	return false
}

// skipCommentLine consumes a comment line including its terminating newline,
// so the line contributes nothing, not even to paragraph breaking.
func (s *scanner) skipCommentLine() {
	for s.pos < len(s.src) {
		if s.advance() == '\n' {
			return
		}
	}
}

// ident consumes a run of identifier characters.
func (s *scanner) ident() string {
	start := s.pos
	for s.pos < len(s.src) && identChar(s.src[s.pos]) {
		s.advance()
	}
	return s.src[start:s.pos]
}

// newlines handles a run of newlines and interleaved comment lines. A single
// newline folds into a space; two or more become a paragraph break.
func (s *scanner) newlines() {
	line, col := s.line, s.col
	count := 0
	for {
		if s.commentLine() {
			s.skipCommentLine()
			continue
		}
		c, ok := s.peek()
		if !ok {
			break
		}
		if c == '\r' {
			s.advance()
			continue
		}
		if c != '\n' {
			break
		}
		s.advance()
		count++
	}
	switch {
	case count >= 2:
		s.emit(Break, line, col)
	case count == 1:
		s.appendText(' ')
	}
}

// define scans a #define(name)(body) form. The body is captured raw, with
// parentheses balanced, and handed to the parser as fragment source.
func (s *scanner) define(line, col int) error {
	s.pos += len("#define")
	s.col += len("#define")
	c, ok := s.peek()
	if !ok || c != '(' {
		return s.errf("malformed variable definition: expected '(' after #define")
	}
	s.advance()
	name := s.ident()
	if name == "" {
		return s.errf("malformed variable definition: missing name")
	}
	c, ok = s.peek()
	if !ok || c != ')' {
		return s.errf("malformed variable definition: unterminated name")
	}
	s.advance()
	c, ok = s.peek()
	if !ok || c != '(' {
		return s.errf("malformed variable definition: expected '(' before body")
	}
	s.advance()

	start := s.pos
	depth := 1
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '\\' && s.pos+1 < len(s.src) {
			s.advance()
			s.advance()
			continue
		}
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				body := s.src[start:s.pos]
				s.advance()
				s.flushText()
				s.tokens = append(s.tokens, Token{
					Kind: Define,
					Name: name,
					Body: body,
					Line: line,
					Col:  col,
				})
				return nil
			}
		}
		s.advance()
	}
	return &Error{Line: line, Col: col, Msg: "unterminated variable definition for '" + name + "'"}
}

func (s *scanner) run() error {
	for s.commentLine() {
		s.skipCommentLine()
	}
	for {
		c, ok := s.peek()
		if !ok {
			break
		}
		line, col := s.line, s.col
		switch c {
		case '\\':
			s.advance()
			next, ok := s.peek()
			if !ok {
				return &Error{Line: line, Col: col, Msg: "escape sequence truncated at end of input"}
			}
			if special(next) {
				s.appendText(next)
				s.advance()
			} else {
				// a lone backslash is itself literal
				s.appendText('\\')
			}
		case '\n':
			s.newlines()
		case '\r':
			s.advance()
		case '[':
			s.advance()
			s.emit(OpenBracket, line, col)
		case ']':
			s.advance()
			s.emit(CloseBracket, line, col)
		case '{':
			s.advance()
			s.emit(OpenBrace, line, col)
		case '}':
			s.advance()
			s.emit(CloseBrace, line, col)
		case '|':
			s.advance()
			s.emit(Pipe, line, col)
		case '.':
			s.advance()
			name := s.ident()
			if name == "" {
				// a period that starts no identifier is plain text
				s.appendText('.')
				continue
			}
			s.flushText()
			s.tokens = append(s.tokens, Token{Kind: Command, Name: name, Line: line, Col: col})
		case '~':
			s.advance()
			name := s.ident()
			if name == "" {
				s.appendText('~')
				continue
			}
			s.flushText()
			s.tokens = append(s.tokens, Token{Kind: VarRef, Name: name, Line: line, Col: col})
		case '#':
			if strings.HasPrefix(s.src[s.pos:], "#define(") {
				if err := s.define(line, col); err != nil {
					return err
				}
				continue
			}
			s.appendText('#')
			s.advance()
		default:
			s.appendText(c)
			s.advance()
		}
	}
	s.flushText()
	s.tokens = append(s.tokens, Token{Kind: EOF, Line: s.line, Col: s.col})
	return nil
}
