// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lox

import (
	"fmt"
	"strconv"
)

// Opcode represents a single byte operation code.
type Opcode = byte

// List of opcodes
const (
	OpConstant Opcode = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
	OpReturn

	numOpcodes
)

// OpcodeNames are string representation of opcodes.
var OpcodeNames = [...]string{
	OpConstant: "OP_CONSTANT",
	OpAdd:      "OP_ADD",
	OpSubtract: "OP_SUBTRACT",
	OpMultiply: "OP_MULTIPLY",
	OpDivide:   "OP_DIVIDE",
	OpNegate:   "OP_NEGATE",
	OpReturn:   "OP_RETURN",
}

// OpcodeOperands is the number of operands.
var OpcodeOperands = [...][]int{
	OpConstant: {1}, // constant index
	OpAdd:      {},
	OpSubtract: {},
	OpMultiply: {},
	OpDivide:   {},
	OpNegate:   {},
	OpReturn:   {},
}

// IsValidOpcode reports whether b is a known opcode tag.
func IsValidOpcode(b byte) bool {
	return b < numOpcodes
}

// DecodeOpcode converts a byte to an Opcode. Unknown tags return an error
// derived from ErrInvalidOpCode.
func DecodeOpcode(b byte) (Opcode, error) {
	if !IsValidOpcode(b) {
		return 0, ErrInvalidOpCode.NewError(strconv.Itoa(int(b)))
	}
	return b, nil
}

// OperandWidth returns the total width of the operands of op in bytes.
func OperandWidth(op Opcode) int {
	var total int
	for _, w := range OpcodeOperands[op] {
		total += w
	}
	return total
}

// ReadOperands reads operands from the bytecode. Given operands slice is used to
// fill operands and is returned to allocate less.
func ReadOperands(numOperands []int, ins []byte, operands []int) ([]int, int) {
	operands = operands[:0]
	var offset int
	for _, width := range numOperands {
		if width == 1 {
			operands = append(operands, int(ins[offset]))
		}
		offset += width
	}
	return operands, offset
}

// MakeInstruction returns a bytecode for an opcode and the operands.
func MakeInstruction(op Opcode, args ...int) ([]byte, error) {
	if !IsValidOpcode(op) {
		return nil, fmt.Errorf("MakeInstruction: unknown Opcode %d", op)
	}
	operands := OpcodeOperands[op]
	if len(operands) != len(args) {
		return nil, fmt.Errorf("MakeInstruction: %s expected %d operands, but got %d",
			OpcodeNames[op], len(operands), len(args))
	}
	switch op {
	case OpConstant:
		if args[0] < 0 || args[0] > maxConstantIndex {
			return nil, fmt.Errorf("MakeInstruction: %s operand %d out of range",
				OpcodeNames[op], args[0])
		}
		return []byte{op, byte(args[0])}, nil
	default:
		return []byte{op}, nil
	}
}
