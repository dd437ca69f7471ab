// Package lexer implements the lox tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/loxwalk/lox/pkg/diagnostics"
	"github.com/loxwalk/lox/pkg/token"
)

type scanner struct {
	source string
	start  int
	pos    int
	line   int
	tokens []token.Token
	diags  []diagnostics.Diagnostic
}

func newScanner(source string) *scanner {
	return &scanner{
		source: source,
		line:   1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	return ch
}

// match consumes the next byte if it equals want.
func (s *scanner) match(want byte) bool {
	if s.atEnd() || s.source[s.pos] != want {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) addToken(kind token.Kind, literal any) {
	s.tokens = append(s.tokens, token.Token{
		Kind:    kind,
		Lexeme:  s.source[s.start:s.pos],
		Literal: literal,
		Line:    s.line,
	})
}

func (s *scanner) lexError(msg string) {
	s.diags = append(s.diags, diagnostics.MakeDiag(diagnostics.ELex, s.line, "", msg))
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *scanner) scanString() {
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.atEnd() {
		s.lexError("Unterminated string.")
		return
	}
	s.advance() // closing "

	// Payload excludes the quotes; no escape processing.
	s.addToken(token.String, s.source[s.start+1:s.pos-1])
}

func (s *scanner) scanNumber() {
	for isDigit(s.peek()) {
		s.advance()
	}
	// A '.' belongs to the number only when a digit follows it.
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	// Out-of-range literals saturate to ±Inf; the digit grammar rules out
	// any other ParseFloat failure.
	value, _ := strconv.ParseFloat(s.source[s.start:s.pos], 64)
	s.addToken(token.Number, value)
}

func (s *scanner) scanIdentOrKeyword() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	s.addToken(token.LookupIdent(s.source[s.start:s.pos]), nil)
}

func (s *scanner) scanToken() {
	ch := s.advance()
	switch ch {
	case '(':
		s.addToken(token.LeftParen, nil)
	case ')':
		s.addToken(token.RightParen, nil)
	case '{':
		s.addToken(token.LeftBrace, nil)
	case '}':
		s.addToken(token.RightBrace, nil)
	case ',':
		s.addToken(token.Comma, nil)
	case '.':
		s.addToken(token.Dot, nil)
	case '-':
		s.addToken(token.Minus, nil)
	case '+':
		s.addToken(token.Plus, nil)
	case ';':
		s.addToken(token.Semicolon, nil)
	case '*':
		s.addToken(token.Star, nil)

	case '!':
		s.addToken(s.pick('=', token.BangEqual, token.Bang), nil)
	case '=':
		s.addToken(s.pick('=', token.EqualEqual, token.Equal), nil)
	case '<':
		s.addToken(s.pick('=', token.LessEqual, token.Less), nil)
	case '>':
		s.addToken(s.pick('=', token.GreaterEqual, token.Greater), nil)

	case '/':
		if s.match('/') {
			// Comment runs to end of line
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			s.addToken(token.Slash, nil)
		}

	case ' ', '\r', '\t':
	case '\n':
		s.line++

	case '"':
		s.scanString()

	default:
		switch {
		case isDigit(ch):
			s.scanNumber()
		case isAlpha(ch):
			s.scanIdentOrKeyword()
		default:
			s.unexpected()
		}
	}
}

// pick returns two if the next byte is next (consuming it), else one.
func (s *scanner) pick(next byte, two, one token.Kind) token.Kind {
	if s.match(next) {
		return two
	}
	return one
}

// unexpected reports the character starting at s.start, consuming the whole
// UTF-8 sequence so a multi-byte character yields a single diagnostic.
func (s *scanner) unexpected() {
	r, size := utf8.DecodeRuneInString(s.source[s.start:])
	if r == utf8.RuneError && size <= 1 {
		s.lexError(fmt.Sprintf("Unexpected character: \\x%02x.", s.source[s.start]))
		return
	}
	s.pos = s.start + size
	s.lexError(fmt.Sprintf("Unexpected character: %c.", r))
}

// Scan breaks source into tokens. Lexical errors are collected rather than
// aborting the pass; the returned tokens always end with exactly one EOF.
func Scan(source string) ([]token.Token, []diagnostics.Diagnostic) {
	s := newScanner(source)
	for !s.atEnd() {
		s.start = s.pos
		s.scanToken()
	}
	s.tokens = append(s.tokens, token.New(token.EOF, "", s.line))
	return s.tokens, s.diags
}
