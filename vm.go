// Copyright (c) 2020 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tliron/commonlog"
)

// StackMax is the capacity of the VM value stack.
const StackMax = 256

var vmLog = commonlog.GetLogger("lox.vm")

// VMOptions configures a VM.
type VMOptions struct {
	// Out receives the value of each OpReturn, os.Stdout if nil.
	Out io.Writer
	// Trace, if not nil, receives the stack and the disassembly of every
	// instruction before it is executed.
	Trace io.Writer
}

// VM executes the instructions in a Chunk.
type VM struct {
	mu    sync.Mutex
	chunk *Chunk
	ip    int
	stack [StackMax]Value
	sp    int
	out   io.Writer
	trace io.Writer
}

// NewVM creates a VM object.
func NewVM(opts VMOptions) *VM {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &VM{
		out:   out,
		trace: opts.Trace,
	}
}

// SetTrace sets the trace writer, nil disables tracing.
func (vm *VM) SetTrace(w io.Writer) *VM {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.trace = w
	return vm
}

// SetOutput sets the writer results are printed to.
func (vm *VM) SetOutput(w io.Writer) *VM {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.out = w
	return vm
}

// Tracing reports whether trace output is enabled.
func (vm *VM) Tracing() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.trace != nil
}

// StackSize returns the number of values left on the stack by the last
// Interpret call.
func (vm *VM) StackSize() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.sp
}

// Interpret executes chunk until OpReturn or the end of its code. The value
// returned by OpReturn is printed to the output and returned. The chunk is
// only referenced for the duration of the call. Calls on the same VM are
// serialized.
func (vm *VM) Interpret(chunk *Chunk) (Value, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if chunk == nil {
		return 0, &RuntimeError{Err: ErrMissingChunk, Offset: -1}
	}

	vm.chunk = chunk
	vm.ip = 0
	vm.sp = 0
	defer func() { vm.chunk = nil }()

	vmLog.Debugf("interpret: %d bytes, %d constants",
		len(chunk.Code), len(chunk.Constants))
	return vm.run()
}

func (vm *VM) run() (Value, error) {
	code := vm.chunk.Code
	constants := vm.chunk.Constants

	for {
		if vm.ip >= len(code) {
			return 0, nil
		}
		if vm.trace != nil {
			vm.traceInstruction()
		}

		start := vm.ip
		op, err := DecodeOpcode(code[vm.ip])
		if err != nil {
			return 0, vm.fail(start, err)
		}
		vm.ip++

		switch op {
		case OpConstant:
			if vm.ip >= len(code) {
				return 0, vm.fail(start,
					ErrMalformedChunk.NewError("missing constant operand"))
			}
			idx := int(code[vm.ip])
			vm.ip++
			if idx >= len(constants) {
				return 0, vm.fail(start, ErrMalformedChunk.NewError(
					fmt.Sprintf("constant index %d out of range", idx)))
			}
			if err := vm.push(constants[idx]); err != nil {
				return 0, vm.fail(start, err)
			}
		case OpAdd, OpSubtract, OpMultiply, OpDivide:
			right, err := vm.pop()
			if err != nil {
				return 0, vm.fail(start, err)
			}
			left, err := vm.pop()
			if err != nil {
				return 0, vm.fail(start, err)
			}
			if err := vm.push(binaryOp(op, left, right)); err != nil {
				return 0, vm.fail(start, err)
			}
		case OpNegate:
			v, err := vm.pop()
			if err != nil {
				return 0, vm.fail(start, err)
			}
			if err := vm.push(-v); err != nil {
				return 0, vm.fail(start, err)
			}
		case OpReturn:
			v, err := vm.pop()
			if err != nil {
				return 0, vm.fail(start, err)
			}
			if _, err := fmt.Fprintln(vm.out, v.String()); err != nil {
				return 0, vm.fail(start, ErrIO.Wrap(err))
			}
			return v, nil
		}
	}
}

// binaryOp applies op to left and right. Division by zero follows IEEE 754
// and yields an infinity or NaN.
func binaryOp(op Opcode, left, right Value) Value {
	switch op {
	case OpAdd:
		return left + right
	case OpSubtract:
		return left - right
	case OpMultiply:
		return left * right
	default:
		return left / right
	}
}

func (vm *VM) push(v Value) error {
	if vm.sp >= StackMax {
		return ErrStackOverflow
	}
	vm.stack[vm.sp] = v
	vm.sp++
	return nil
}

func (vm *VM) pop() (Value, error) {
	if vm.sp == 0 {
		return 0, ErrStackUnderflow
	}
	vm.sp--
	return vm.stack[vm.sp], nil
}

func (vm *VM) fail(offset int, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Message: err.Error(), Cause: err}
	}
	rerr := &RuntimeError{
		Err:    e,
		Offset: offset,
		Line:   vm.chunk.Line(offset),
	}
	vmLog.Debugf("runtime error at %04d: %s", offset, e)
	return rerr
}

func (vm *VM) traceInstruction() {
	_, _ = fmt.Fprint(vm.trace, "          ")
	for i := 0; i < vm.sp; i++ {
		_, _ = fmt.Fprintf(vm.trace, "[ %s ]", vm.stack[i])
	}
	_, _ = fmt.Fprintln(vm.trace)
	DisassembleInstruction(vm.trace, vm.chunk, vm.ip)
}
