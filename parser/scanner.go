// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package parser

import (
	"fmt"
	"unicode"

	"github.com/golox/lox/token"
)

// ErrorHandler is called for each lexical error the Scanner finds.
type ErrorHandler func(err *ScanError)

// Scanner produces tokens from a Source one at a time. Lexical errors never
// stop the Scanner; they are returned as token.Error tokens and reported to
// the ErrorHandler.
type Scanner struct {
	src       *Source
	errh      ErrorHandler
	firstLine int
	start     int
	current   int
	line      int
	startLine int
	errCount  int
}

// NewScanner creates a Scanner starting at line 1.
func NewScanner(src []byte, errh ErrorHandler) *Scanner {
	return NewScannerAt(src, 1, errh)
}

// NewScannerAt creates a Scanner whose first line is numbered line.
func NewScannerAt(src []byte, line int, errh ErrorHandler) *Scanner {
	if line < 1 {
		line = 1
	}
	return &Scanner{
		src:       NewSource(src),
		errh:      errh,
		firstLine: line,
		line:      line,
	}
}

// Source returns the source the tokens index into.
func (s *Scanner) Source() *Source {
	return s.src
}

// ErrorCount returns the number of lexical errors reported so far.
func (s *Scanner) ErrorCount() int {
	return s.errCount
}

// Reset rewinds the Scanner to the beginning of its source.
func (s *Scanner) Reset() {
	s.start = 0
	s.current = 0
	s.line = s.firstLine
	s.startLine = s.firstLine
	s.errCount = 0
}

// ScanAll scans the remaining tokens up to and including EOF.
func (s *Scanner) ScanAll() []Token {
	var toks []Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

// Scan returns the next token. Once EOF is returned, every following call
// returns EOF again.
func (s *Scanner) Scan() Token {
	s.skipWhitespace()
	s.start = s.current
	s.startLine = s.line

	if s.atEnd() {
		return s.makeToken(token.EOF)
	}

	c := s.advance()
	if isAlpha(c) {
		return s.identifier()
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.makeToken(token.LeftParen)
	case ')':
		return s.makeToken(token.RightParen)
	case '{':
		return s.makeToken(token.LeftBrace)
	case '}':
		return s.makeToken(token.RightBrace)
	case ';':
		return s.makeToken(token.Semicolon)
	case ',':
		return s.makeToken(token.Comma)
	case '.':
		return s.makeToken(token.Dot)
	case '-':
		return s.makeToken(token.Minus)
	case '+':
		return s.makeToken(token.Plus)
	case '/':
		return s.makeToken(token.Slash)
	case '*':
		return s.makeToken(token.Star)
	case '!':
		return s.switch2('=', token.BangEqual, token.Bang)
	case '=':
		return s.switch2('=', token.EqualEqual, token.Equal)
	case '<':
		return s.switch2('=', token.LessEqual, token.Less)
	case '>':
		return s.switch2('=', token.GreaterEqual, token.Greater)
	case '"':
		return s.string()
	}
	return s.errorToken(c, fmt.Sprintf("Unexpected character '%c'.", c))
}

func (s *Scanner) atEnd() bool {
	return s.current >= s.src.Len()
}

func (s *Scanner) advance() rune {
	c := s.src.At(s.current)
	s.current++
	return c
}

func (s *Scanner) peek() rune {
	return s.src.At(s.current)
}

func (s *Scanner) peekNext() rune {
	return s.src.At(s.current + 1)
}

func (s *Scanner) match(expected rune) bool {
	if s.atEnd() || s.src.At(s.current) != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) switch2(next rune, tok2, tok1 token.Kind) Token {
	if s.match(next) {
		return s.makeToken(tok2)
	}
	return s.makeToken(tok1)
}

func (s *Scanner) skipWhitespace() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for !s.atEnd() && s.peek() != '\n' {
				s.current++
			}
		default:
			return
		}
	}
}

func (s *Scanner) string() Token {
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.atEnd() {
		return s.errorToken('"', "Unterminated string.")
	}
	// closing quote
	s.current++
	return s.makeToken(token.String)
}

func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.makeToken(token.Number)
}

func (s *Scanner) identifier() Token {
	for r := s.peek(); isAlpha(r) || isDigit(r); r = s.peek() {
		s.current++
	}
	return s.makeToken(s.identifierKind())
}

// identifierKind dispatches on the first and second characters of the
// lexeme and compares the remainder of the candidate keyword in full.
func (s *Scanner) identifierKind() token.Kind {
	lex := s.src.slice(s.start, s.current)
	switch lex[0] {
	case 'a':
		return checkKeyword(lex, 1, "nd", token.And)
	case 'c':
		return checkKeyword(lex, 1, "lass", token.Class)
	case 'e':
		return checkKeyword(lex, 1, "lse", token.Else)
	case 'f':
		if len(lex) > 1 {
			switch lex[1] {
			case 'a':
				return checkKeyword(lex, 2, "lse", token.False)
			case 'o':
				return checkKeyword(lex, 2, "r", token.For)
			case 'u':
				return checkKeyword(lex, 2, "n", token.Fun)
			}
		}
	case 'i':
		return checkKeyword(lex, 1, "f", token.If)
	case 'n':
		return checkKeyword(lex, 1, "il", token.Nil)
	case 'o':
		return checkKeyword(lex, 1, "r", token.Or)
	case 'p':
		return checkKeyword(lex, 1, "rint", token.Print)
	case 'r':
		return checkKeyword(lex, 1, "eturn", token.Return)
	case 's':
		return checkKeyword(lex, 1, "uper", token.Super)
	case 't':
		if len(lex) > 1 {
			switch lex[1] {
			case 'h':
				return checkKeyword(lex, 2, "is", token.This)
			case 'r':
				return checkKeyword(lex, 2, "ue", token.True)
			}
		}
	case 'v':
		return checkKeyword(lex, 1, "ar", token.Var)
	case 'w':
		return checkKeyword(lex, 1, "hile", token.While)
	}
	return token.Identifier
}

func checkKeyword(lex []rune, begin int, rest string, kind token.Kind) token.Kind {
	if len(lex) == begin+len(rest) && string(lex[begin:]) == rest {
		return kind
	}
	return token.Identifier
}

func (s *Scanner) makeToken(kind token.Kind) Token {
	return Token{
		Kind:   kind,
		Offset: s.start,
		Length: s.current - s.start,
		Line:   s.startLine,
	}
}

func (s *Scanner) errorToken(c rune, msg string) Token {
	s.errCount++
	if s.errh != nil {
		s.errh(&ScanError{
			Char:   c,
			Line:   s.startLine,
			Offset: s.start,
			Msg:    msg,
		})
	}
	return s.makeToken(token.Error)
}

func isAlpha(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
