// Copyright (c) 2020 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lox

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// maxConstantIndex is the largest constant pool index a one byte operand
// can address.
const maxConstantIndex = 255

// Chunk holds instructions, their source lines and the constant pool.
// len(Lines) == len(Code) always holds.
type Chunk struct {
	Code      []byte  `cbor:"1,keyasint"`
	Lines     []int   `cbor:"2,keyasint"`
	Constants []Value `cbor:"3,keyasint"`
}

// NewChunk creates an empty Chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends a byte and the source line it belongs to.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode with its operands.
func (c *Chunk) WriteOp(line int, op Opcode, operands ...int) error {
	inst, err := MakeInstruction(op, operands...)
	if err != nil {
		return err
	}
	for _, b := range inst {
		c.Write(b, line)
	}
	return nil
}

// AddConstant appends v to the constant pool and returns its index. The
// caller must check the index fits an operand.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Get returns the byte at offset.
func (c *Chunk) Get(offset int) byte {
	return c.Code[offset]
}

// Line returns the source line of the byte at offset, or 0 if offset is out
// of range.
func (c *Chunk) Line(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// Len returns the number of bytes in Code.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// Validate checks that the chunk is well formed: the line table matches the
// code, every opcode is known, every operand is present and every constant
// index is inside the pool.
func (c *Chunk) Validate() error {
	if len(c.Lines) != len(c.Code) {
		return ErrMalformedChunk.NewError(fmt.Sprintf(
			"%d lines for %d bytes", len(c.Lines), len(c.Code)))
	}
	var err error
	IterateInstructions(c.Code,
		func(pos int, op Opcode, operands []int, offset int) bool {
			if !IsValidOpcode(op) {
				_, err = DecodeOpcode(op)
				return false
			}
			if pos+offset >= len(c.Code) {
				err = ErrMalformedChunk.NewError(fmt.Sprintf(
					"%s at %04d is truncated", OpcodeNames[op], pos))
				return false
			}
			if op == OpConstant && operands[0] >= len(c.Constants) {
				err = ErrMalformedChunk.NewError(fmt.Sprintf(
					"constant index %d at %04d is out of range",
					operands[0], pos))
				return false
			}
			return true
		})
	return err
}

// Fprint writes the disassembly of the chunk to w under name.
func (c *Chunk) Fprint(w io.Writer, name string) {
	DisassembleChunk(w, c, name)
}

func (c *Chunk) String() string {
	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Constants:\n")
	for i := range c.Constants {
		_, _ = fmt.Fprintf(&buf, "%4d: %s\n", i, c.Constants[i])
	}
	_, _ = fmt.Fprintf(&buf, "Instructions:\n")
	for _, s := range FormatInstructions(c.Code, 0) {
		_, _ = buf.WriteString(s)
		_ = buf.WriteByte('\n')
	}
	_, _ = fmt.Fprintf(&buf, "Lines:%s\n", formatLines(c.Lines))
	return buf.String()
}

func formatLines(lines []int) string {
	b := make([]byte, 0, 2*len(lines)+2)
	b = append(b, '[')
	for i, l := range lines {
		if i > 0 {
			b = append(b, ' ')
		}
		b = strconv.AppendInt(b, int64(l), 10)
	}
	return string(append(b, ']'))
}
