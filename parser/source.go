// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package parser

import (
	"fmt"

	"github.com/golox/lox/token"
)

// Source holds script text as Unicode scalar values. Token offsets and
// lengths index into it, so multi-byte characters never split a lexeme.
type Source struct {
	text []rune
}

// NewSource returns a Source for src. Invalid UTF-8 sequences are replaced
// with utf8.RuneError.
func NewSource(src []byte) *Source {
	return &Source{text: []rune(string(src))}
}

// Len returns the number of runes in the source.
func (s *Source) Len() int {
	return len(s.text)
}

// At returns the rune at offset i, or 0 when i is out of range.
func (s *Source) At(i int) rune {
	if i < 0 || i >= len(s.text) {
		return 0
	}
	return s.text[i]
}

// Lexeme returns the text spanned by tok.
func (s *Source) Lexeme(tok Token) string {
	end := tok.Offset + tok.Length
	if tok.Offset < 0 || tok.Length < 0 || end > len(s.text) {
		return ""
	}
	return string(s.text[tok.Offset:end])
}

func (s *Source) slice(begin, end int) []rune {
	return s.text[begin:end]
}

// Token is a span of the source text. It does not copy the lexeme; use
// Source.Lexeme to resolve it.
type Token struct {
	Kind   token.Kind
	Offset int
	Length int
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %d:%d line %d", t.Kind, t.Offset, t.Length, t.Line)
}
