// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lox

import (
	"fmt"
	"strings"

	"github.com/golox/lox/parser"
)

var (
	// ErrMissingChunk is returned by VM when it is asked to run without a
	// Chunk.
	ErrMissingChunk = &Error{Name: "MissingChunkError"}

	// ErrInvalidOpCode represents an undecodable instruction byte.
	ErrInvalidOpCode = &Error{Name: "InvalidOpCodeError"}

	// ErrMalformedChunk represents an instruction whose operand is missing or
	// refers outside of the constant pool.
	ErrMalformedChunk = &Error{Name: "MalformedChunkError"}

	// ErrStackOverflow represents a stack overflow error.
	ErrStackOverflow = &Error{Name: "StackOverflowError"}

	// ErrStackUnderflow represents a pop from an empty stack.
	ErrStackUnderflow = &Error{Name: "StackUnderflowError"}

	// ErrIO represents a failure reading a script or writing output.
	ErrIO = &Error{Name: "IOError"}
)

// Error represents a named error. Package level errors are sentinels, use
// NewError or Wrap to derive an error that keeps the sentinel as its cause.
type Error struct {
	Name    string
	Message string
	Cause   error
}

func (o *Error) Error() string {
	name := o.Name
	if name == "" {
		name = "error"
	}
	if o.Message == "" {
		return name
	}
	return fmt.Sprintf("%s: %s", name, o.Message)
}

func (o *Error) Unwrap() error {
	return o.Cause
}

// Is reports whether target is the sentinel error o was derived from by
// name, so errors.Is(err, ErrIO) holds for an error created by Wrap.
func (o *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Cause != nil {
		return false
	}
	return t.Name == o.Name
}

// NewError creates a new Error with given messages, the receiver is set as
// the cause.
func (o *Error) NewError(messages ...string) *Error {
	return &Error{
		Name:    o.Name,
		Message: strings.Join(messages, " "),
		Cause:   o,
	}
}

// Wrap creates a new Error carrying err as its cause and err's text as its
// message.
func (o *Error) Wrap(err error) *Error {
	return &Error{
		Name:    o.Name,
		Message: err.Error(),
		Cause:   err,
	}
}

// RuntimeError represents a failure while executing a Chunk. Offset is the
// byte offset of the failing instruction and Line its source line; both are
// -1 and 0 respectively when no instruction was fetched.
type RuntimeError struct {
	Err    *Error
	Offset int
	Line   int
}

func (o *RuntimeError) Unwrap() error {
	if o.Err != nil {
		return o.Err
	}
	return nil
}

func (o *RuntimeError) Error() string {
	if o.Err == nil {
		return "<nil>"
	}
	if o.Line > 0 {
		return fmt.Sprintf("%s\n[line %d] in script", o.Err.Error(), o.Line)
	}
	return o.Err.Error()
}

// CompilerError represents a failed compilation. It carries every diagnostic
// reported while compiling, sorted by line.
type CompilerError struct {
	Name string
	Errs parser.ErrorList
}

func (e *CompilerError) Error() string {
	return fmt.Sprintf("Compile Error: %s", e.Errs.Error())
}

func (e *CompilerError) Unwrap() error {
	return e.Errs
}
