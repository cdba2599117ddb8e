// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lox

import (
	"fmt"
	"io"
)

// DisassembleChunk writes every instruction of c to w under a "== name =="
// header.
func DisassembleChunk(w io.Writer, c *Chunk, name string) {
	_, _ = fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = DisassembleInstruction(w, c, offset)
	}
}

// DisassembleInstruction writes the instruction at offset to w and returns
// the offset of the next instruction. Unknown opcodes advance by one byte.
func DisassembleInstruction(w io.Writer, c *Chunk, offset int) int {
	_, _ = fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Line(offset) == c.Line(offset-1) {
		_, _ = fmt.Fprint(w, "   | ")
	} else {
		_, _ = fmt.Fprintf(w, "%4d ", c.Line(offset))
	}

	op := c.Code[offset]
	switch op {
	case OpConstant:
		return constantInstruction(w, OpcodeNames[op], c, offset)
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpNegate, OpReturn:
		return simpleInstruction(w, OpcodeNames[op], offset)
	default:
		_, _ = fmt.Fprintf(w, "Unknown opcode %d\n", op)
		return offset + 1
	}
}

func simpleInstruction(w io.Writer, name string, offset int) int {
	_, _ = fmt.Fprintln(w, name)
	return offset + 1
}

func constantInstruction(w io.Writer, name string, c *Chunk, offset int) int {
	if offset+1 >= len(c.Code) {
		_, _ = fmt.Fprintf(w, "%-16s <truncated>\n", name)
		return len(c.Code)
	}
	idx := int(c.Code[offset+1])
	_, _ = fmt.Fprintf(w, "%-16s %4d '", name, idx)
	if idx < len(c.Constants) {
		_, _ = fmt.Fprint(w, c.Constants[idx].String())
	} else {
		_, _ = fmt.Fprint(w, "<invalid>")
	}
	_, _ = fmt.Fprintln(w, "'")
	return offset + 2
}

// FormatInstructions returns string representation of bytecode instructions.
func FormatInstructions(b []byte, posOffset int) []string {
	var out []string
	IterateInstructions(b,
		func(pos int, op Opcode, operands []int, offset int) bool {
			switch {
			case !IsValidOpcode(op):
				out = append(out, fmt.Sprintf("%04d UNKNOWN(%d)", posOffset+pos, op))
			case operands == nil && offset > 0:
				out = append(out, fmt.Sprintf("%04d %-12s <truncated>",
					posOffset+pos, OpcodeNames[op]))
			case len(operands) == 0:
				out = append(out, fmt.Sprintf("%04d %-12s", posOffset+pos, OpcodeNames[op]))
			default:
				out = append(out, fmt.Sprintf("%04d %-12s %-5d",
					posOffset+pos, OpcodeNames[op], operands[0]))
			}
			return true
		})
	return out
}

// IterateInstructions iterate instructions and call given function for each
// instruction. Unknown opcodes are reported with no operands and advance by
// one byte. A truncated instruction is reported with nil operands and an
// offset reaching past the end of insts.
// Note: Do not use operands slice in callback, it is reused for less allocation.
func IterateInstructions(insts []byte,
	fn func(pos int, opcode Opcode, operands []int, offset int) bool) {
	operands := make([]int, 0, 4)
	var offset int
	for i := 0; i < len(insts); i++ {
		op := insts[i]
		if !IsValidOpcode(op) {
			if !fn(i, op, operands[:0], 0) {
				break
			}
			continue
		}
		width := OperandWidth(op)
		if i+width >= len(insts) && width > 0 {
			fn(i, op, nil, width)
			break
		}
		operands, offset = ReadOperands(OpcodeOperands[op], insts[i+1:], operands)
		if !fn(i, op, operands, offset) {
			break
		}
		i += offset
	}
}
