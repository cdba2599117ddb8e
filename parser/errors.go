// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package parser

import (
	"fmt"
	"sort"
)

// ScanError is a lexical error: an unexpected character or an unterminated
// string. Line is the line the offending token starts on.
type ScanError struct {
	Char   rune
	Line   int
	Offset int
	Msg    string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Msg)
}

// Error represents a compile diagnostic.
type Error struct {
	Line  int
	Where string
	Msg   string
	// Err is the lexical error the diagnostic was created from, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Where != "" {
		return fmt.Sprintf("[line %d] Error %s: %s", e.Line, e.Where, e.Msg)
	}
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorList is a collection of compile diagnostics.
type ErrorList []*Error

// Add adds a new diagnostic to the collection.
func (p *ErrorList) Add(line int, where, msg string) {
	*p = append(*p, &Error{Line: line, Where: where, Msg: msg})
}

// AddScanError adds a diagnostic for a lexical error.
func (p *ErrorList) AddScanError(err *ScanError) {
	*p = append(*p, &Error{Line: err.Line, Msg: err.Msg, Err: err})
}

// Len returns the number of elements in the collection.
func (p ErrorList) Len() int {
	return len(p)
}

func (p ErrorList) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

func (p ErrorList) Less(i, j int) bool {
	return p[i].Line < p[j].Line
}

// Sort sorts the collection by line, keeping report order within a line.
func (p ErrorList) Sort() {
	sort.Stable(p)
}

func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0], len(p)-1)
}

// Unwrap returns the diagnostics as errors so errors.Is and errors.As can
// reach a ScanError inside the list.
func (p ErrorList) Unwrap() []error {
	errs := make([]error, len(p))
	for i := range p {
		errs[i] = p[i]
	}
	return errs
}

// Err returns an error.
func (p ErrorList) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}
