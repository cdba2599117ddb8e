// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lox

import (
	"bytes"
	"io"
)

// Eval compiles and runs scripts one after another on the same VM, as the
// REPL does. Line numbers continue across scripts so diagnostics refer to
// the session line.
// Warning: Eval is not safe to use concurrently.
type Eval struct {
	Opts       CompilerOptions
	VM         *VM
	LastChunk  *Chunk
	LastResult Value
	line       int
}

// NewEval returns new Eval object.
func NewEval(opts CompilerOptions, vmOpts VMOptions) *Eval {
	line := opts.Line
	if line < 1 {
		line = 1
	}
	return &Eval{
		Opts: opts,
		VM:   NewVM(vmOpts),
		line: line,
	}
}

// Line returns the line number the next script starts at.
func (r *Eval) Line() int {
	return r.line
}

// Run compiles and runs given script and returns the value it printed and
// the compiled chunk. The chunk is nil if compilation fails.
func (r *Eval) Run(script []byte) (Value, *Chunk, error) {
	opts := r.Opts
	opts.Line = r.line
	r.line += bytes.Count(script, []byte{'\n'}) + 1

	chunk, err := Compile(script, opts)
	if err != nil {
		return 0, nil, err
	}
	r.LastChunk = chunk

	v, err := r.VM.Interpret(chunk)
	if err != nil {
		return 0, chunk, err
	}
	r.LastResult = v
	return v, chunk, nil
}

// Interpret compiles source and runs it on a new VM writing the result to
// out, os.Stdout if nil.
func Interpret(source []byte, out io.Writer) (Value, error) {
	chunk, err := Compile(source, DefaultCompilerOptions)
	if err != nil {
		return 0, err
	}
	return NewVM(VMOptions{Out: out}).Interpret(chunk)
}
