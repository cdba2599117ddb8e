// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package token

import "strconv"

// Kind represents a token kind.
type Kind int

// List of token kinds.
const (
	// Single-character tokens.
	LeftParen Kind = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One or two character tokens.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Identifier
	String
	Number

	keywordBeg
	And
	Class
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While
	keywordEnd

	Error
	EOF
)

var kinds = [...]string{
	LeftParen:    "LEFT_PAREN",
	RightParen:   "RIGHT_PAREN",
	LeftBrace:    "LEFT_BRACE",
	RightBrace:   "RIGHT_BRACE",
	Comma:        "COMMA",
	Dot:          "DOT",
	Minus:        "MINUS",
	Plus:         "PLUS",
	Semicolon:    "SEMICOLON",
	Slash:        "SLASH",
	Star:         "STAR",
	Bang:         "BANG",
	BangEqual:    "BANG_EQUAL",
	Equal:        "EQUAL",
	EqualEqual:   "EQUAL_EQUAL",
	Greater:      "GREATER",
	GreaterEqual: "GREATER_EQUAL",
	Less:         "LESS",
	LessEqual:    "LESS_EQUAL",
	Identifier:   "IDENTIFIER",
	String:       "STRING",
	Number:       "NUMBER",
	And:          "AND",
	Class:        "CLASS",
	Else:         "ELSE",
	False:        "FALSE",
	For:          "FOR",
	Fun:          "FUN",
	If:           "IF",
	Nil:          "NIL",
	Or:           "OR",
	Print:        "PRINT",
	Return:       "RETURN",
	Super:        "SUPER",
	This:         "THIS",
	True:         "TRUE",
	Var:          "VAR",
	While:        "WHILE",
	Error:        "ERROR",
	EOF:          "EOF",
}

var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, keywordEnd-keywordBeg-1)
	for k := keywordBeg + 1; k < keywordEnd; k++ {
		keywords[Keyword(k)] = k
	}
}

// String returns the upper-case name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kinds) && kinds[k] != "" {
		return kinds[k]
	}
	return "KIND(" + strconv.Itoa(int(k)) + ")"
}

// IsKeyword returns true if the kind is a reserved word.
func (k Kind) IsKeyword() bool {
	return keywordBeg < k && k < keywordEnd
}

// IsLiteral returns true if the kind is an identifier, string or number.
func (k Kind) IsLiteral() bool {
	return k == Identifier || k == String || k == Number
}

// Keyword returns the source spelling of a keyword kind, or an empty string.
func Keyword(k Kind) string {
	if !k.IsKeyword() {
		return ""
	}
	b := []byte(kinds[k])
	for i := range b {
		b[i] += 'a' - 'A'
	}
	return string(b)
}

// Keywords returns the reserved words in declaration order.
func Keywords() []string {
	out := make([]string, 0, keywordEnd-keywordBeg-1)
	for k := keywordBeg + 1; k < keywordEnd; k++ {
		out = append(out, Keyword(k))
	}
	return out
}

// Lookup maps an identifier to its keyword kind, or Identifier.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Identifier
}
